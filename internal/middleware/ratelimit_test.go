package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/model"
)

func TestRateLimitEnforcesBurst(t *testing.T) {
	_, restore := captureLogs(t)
	defer restore()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(), asPrincipal(admin()))
	r.Use(RateLimitMiddleware(config.RateLimitConfig{QPS: 0.001, Burst: 2}))
	r.GET("/users", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("burst requests rejected: %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("over-burst request allowed: %v", codes)
	}
}

func TestRateLimitKeysPerPrincipal(t *testing.T) {
	_, restore := captureLogs(t)
	defer restore()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(func(c *gin.Context) {
		c.Set(ContextPrincipalKey, &model.Principal{
			ID:   c.GetHeader("X-Test-Principal"),
			Role: model.RoleAdmin,
		})
	})
	r.Use(RateLimitMiddleware(config.RateLimitConfig{QPS: 0.001, Burst: 1}))
	r.GET("/users", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(principal string) int {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("X-Test-Principal", principal)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("admin-1"); code != http.StatusOK {
		t.Fatalf("first admin-1 request: %d", code)
	}
	if code := send("admin-1"); code != http.StatusTooManyRequests {
		t.Fatalf("admin-1 not throttled: %d", code)
	}
	if code := send("admin-2"); code != http.StatusOK {
		t.Fatalf("admin-2 throttled by admin-1's bucket: %d", code)
	}
}
