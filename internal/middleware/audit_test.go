package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/pkg/apperrors"
)

type stubRecorder struct {
	mu      sync.Mutex
	entries []*model.AuditEntry
	panics  bool
}

func (s *stubRecorder) Record(entry *model.AuditEntry) {
	if s.panics {
		panic("recorder down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *stubRecorder) all() []*model.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.AuditEntry(nil), s.entries...)
}

func asPrincipal(p *model.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p != nil {
			c.Set(ContextPrincipalKey, p)
		}
		c.Next()
	}
}

func admin() *model.Principal {
	return &model.Principal{ID: "admin-1", Email: "admin@taskhive.io", Role: model.RoleAdmin}
}

func newAuditRouter(rec AuditRecorder, p *model.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery(), asPrincipal(p))
	r.POST("/users/:id/moderate", AuditUpdate(rec, ParamResource("user", "id")),
		func(c *gin.Context) {
			AddAuditContext(c, "moderation_action", "SUSPEND")
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
	return r
}

func TestAuditRecordsAfterResponse(t *testing.T) {
	rec := &stubRecorder{}
	r := newAuditRouter(rec, admin())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users/u-42/moderate", nil))

	entries := rec.all()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.UserID != "admin-1" || e.Action != model.AuditActionUpdate {
		t.Fatalf("unexpected entry identity: %+v", e)
	}
	if e.ResourceType != "user" || e.ResourceID != "u-42" {
		t.Fatalf("extractor missed route param: %+v", e)
	}
	if e.StatusCode != http.StatusOK {
		t.Fatalf("entry captured before status known: %d", e.StatusCode)
	}
	if e.Context["moderation_action"] != "SUSPEND" {
		t.Fatalf("handler-attached context dropped: %#v", e.Context)
	}
}

func TestAuditSkipsAnonymousRequests(t *testing.T) {
	rec := &stubRecorder{}
	r := newAuditRouter(rec, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users/u-1/moderate", nil))

	if len(rec.all()) != 0 {
		t.Fatalf("anonymous request produced audit entries: %d", len(rec.all()))
	}
}

func TestAuditRecorderPanicDoesNotAffectResponse(t *testing.T) {
	_, restore := captureLogs(t)
	defer restore()

	rec := &stubRecorder{panics: true}
	r := newAuditRouter(rec, admin())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users/u-1/moderate", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("recorder failure leaked into response: %d", w.Code)
	}
}

func TestAuditExtractorPanicStillRecords(t *testing.T) {
	_, restore := captureLogs(t)
	defer restore()

	rec := &stubRecorder{}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asPrincipal(admin()))
	boom := func(*gin.Context) Resource { panic("bad extractor") }
	r.GET("/dashboard", AuditView(rec, boom), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("extractor failure leaked into response: %d", w.Code)
	}
	entries := rec.all()
	if len(entries) != 1 {
		t.Fatalf("entry lost to extractor panic: %d", len(entries))
	}
	if entries[0].ResourceType != "" {
		t.Fatalf("resource set despite extractor panic: %+v", entries[0])
	}
}

func TestAuditCapturesErrorPathStatus(t *testing.T) {
	_, restore := captureLogs(t)
	defer restore()

	rec := &stubRecorder{}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// ErrorHandler is global in the server, so it renders pending errors
	// only after the route-level audit middleware has unwound.
	r.Use(ErrorHandler(), asPrincipal(admin()))
	r.POST("/users/:id/moderate", AuditUpdate(rec, ParamResource("user", "id")),
		func(c *gin.Context) {
			c.Error(apperrors.NewNotFound("user not found"))
		})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users/ghost/moderate", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("client status %d", w.Code)
	}

	entries := rec.all()
	if len(entries) != 1 {
		t.Fatalf("failed request not audited: %d entries", len(entries))
	}
	if entries[0].StatusCode != http.StatusNotFound {
		t.Fatalf("entry status %d, client saw %d", entries[0].StatusCode, w.Code)
	}
}

func TestAuditCapturesFailureStatus(t *testing.T) {
	rec := &stubRecorder{}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asPrincipal(admin()))
	r.POST("/verifications/:id/process", AuditUpdate(rec, ParamResource("verification", "id")),
		func(c *gin.Context) {
			c.AbortWithStatus(http.StatusConflict)
		})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/verifications/v-1/process", nil))

	entries := rec.all()
	if len(entries) != 1 {
		t.Fatalf("failed request not audited: %d entries", len(entries))
	}
	if entries[0].StatusCode != http.StatusConflict {
		t.Fatalf("status mismatch: %d", entries[0].StatusCode)
	}
}
