package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive/internal/pkg/apperrors"
)

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Fields  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"fields"`
}

func newErrorRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	return r
}

func serveError(t *testing.T, r *gin.Engine, path string) (*httptest.ResponseRecorder, errorBody) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad error body %q: %v", w.Body.String(), err)
	}
	return w, body
}

func TestErrorHandlerMapsValidationError(t *testing.T) {
	_, restore := captureLogs(t)
	defer restore()

	r := newErrorRouter()
	r.GET("/bad", func(c *gin.Context) {
		c.Error(apperrors.NewValidation("invalid input",
			apperrors.FieldError{Field: "reason", Message: "must be at least 10 characters"}))
	})

	w, body := serveError(t, r, "/bad")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}
	if body.Success {
		t.Fatal("error envelope marked success")
	}
	if body.Code != string(apperrors.ErrValidation) {
		t.Fatalf("code %q", body.Code)
	}
	if len(body.Fields) != 1 || body.Fields[0].Field != "reason" {
		t.Fatalf("fields %#v", body.Fields)
	}
}

func TestErrorHandlerWrapsUnknownErrorsAsInternal(t *testing.T) {
	_, restore := captureLogs(t)
	defer restore()

	r := newErrorRouter()
	r.GET("/oops", func(c *gin.Context) {
		c.Error(errors.New("pg: connection refused"))
	})

	w, body := serveError(t, r, "/oops")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", w.Code)
	}
	if body.Code != string(apperrors.ErrInternal) {
		t.Fatalf("code %q", body.Code)
	}
}

func TestErrorHandlerDoesNotOverwriteWrittenResponse(t *testing.T) {
	_, restore := captureLogs(t)
	defer restore()

	r := newErrorRouter()
	r.GET("/partial", func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"queued": true})
		c.Error(apperrors.New(apperrors.ErrUpstream, "late failure", nil))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/partial", nil))
	if w.Code != http.StatusAccepted {
		t.Fatalf("written response clobbered: %d", w.Code)
	}
}

func TestReadOnlyBlocksWrites(t *testing.T) {
	_, restore := captureLogs(t)
	defer restore()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(), ReadOnlyMiddleware(true))
	r.GET("/users", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/users/u-1/moderate", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("read blocked in read-only mode: %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users/u-1/moderate", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("write allowed in read-only mode: %d", w.Code)
	}
}

func TestIdempotencyReplaysCachedResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := NewInMemIdempotencyStore()
	var calls int
	r := gin.New()
	r.Use(asPrincipal(admin()), IdempotencyMiddleware(store))
	r.POST("/moderate", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"call": calls})
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/moderate", nil)
		req.Header.Set(HeaderIdempotencyKey, "retry-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := send()
	second := send()

	if calls != 1 {
		t.Fatalf("handler ran %d times", calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replay diverged: %q vs %q", first.Body.String(), second.Body.String())
	}
}

func TestIdempotencyDoesNotCacheErroredResponse(t *testing.T) {
	_, restore := captureLogs(t)
	defer restore()

	gin.SetMode(gin.TestMode)
	store := NewInMemIdempotencyStore()
	var calls int
	r := gin.New()
	// Mirrors the server: the error envelope is written by the outer
	// ErrorHandler and never passes through the idempotency writer.
	r.Use(ErrorHandler(), asPrincipal(admin()), IdempotencyMiddleware(store))
	r.POST("/moderate", func(c *gin.Context) {
		calls++
		if calls == 1 {
			c.Error(apperrors.NewValidation("invalid request",
				apperrors.FieldError{Field: "reason", Message: "must be at least 10 characters"}))
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/moderate", nil)
		req.Header.Set(HeaderIdempotencyKey, "retry-3")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := send(); w.Code != http.StatusBadRequest {
		t.Fatalf("first attempt: %d", w.Code)
	}
	// The corrected retry must reach the handler, not replay the failure.
	second := send()
	if second.Code != http.StatusOK {
		t.Fatalf("corrected retry got %d body %q", second.Code, second.Body.String())
	}
	if calls != 2 {
		t.Fatalf("handler ran %d times", calls)
	}
}

func TestIdempotencyReleasesKeyOnPanic(t *testing.T) {
	_, restore := captureLogs(t)
	defer restore()

	gin.SetMode(gin.TestMode)
	store := NewInMemIdempotencyStore()
	var calls int
	r := gin.New()
	r.Use(gin.Recovery(), asPrincipal(admin()), IdempotencyMiddleware(store))
	r.POST("/moderate", func(c *gin.Context) {
		calls++
		if calls == 1 {
			panic("transient failure")
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/moderate", nil)
		req.Header.Set(HeaderIdempotencyKey, "retry-4")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := send(); w.Code != http.StatusInternalServerError {
		t.Fatalf("first attempt: %d", w.Code)
	}
	// The key must not stay locked as in-progress after the unwind.
	if w := send(); w.Code != http.StatusOK {
		t.Fatalf("retry after panic got %d body %q", w.Code, w.Body.String())
	}
	if calls != 2 {
		t.Fatalf("handler ran %d times", calls)
	}
}

func TestIdempotencyReleasesKeyOnServerError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := NewInMemIdempotencyStore()
	var calls int
	r := gin.New()
	r.Use(asPrincipal(admin()), IdempotencyMiddleware(store))
	r.POST("/moderate", func(c *gin.Context) {
		calls++
		if calls == 1 {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/moderate", nil)
		req.Header.Set(HeaderIdempotencyKey, "retry-2")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := send(); w.Code != http.StatusInternalServerError {
		t.Fatalf("first attempt: %d", w.Code)
	}
	if w := send(); w.Code != http.StatusOK {
		t.Fatalf("retry after server error blocked: %d", w.Code)
	}
	if calls != 2 {
		t.Fatalf("handler ran %d times", calls)
	}
}
