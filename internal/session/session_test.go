package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/whoami", func(c *gin.Context) { c.String(http.StatusOK, From(c)) })
	return r
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	r := newEngine()
	tests := []struct {
		name   string
		header string
		query  string
		status int
		want   string
	}{
		{"header", "abc-123", "", http.StatusOK, "abc-123"},
		{"query", "", "from_query", http.StatusOK, "from_query"},
		{"header wins", "h", "q", http.StatusOK, "h"},
		{"invalid", "a.b", "", http.StatusBadRequest, ""},
		{"too long", strings.Repeat("x", 65), "", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/whoami"
			if tt.query != "" {
				target += "?session_id=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set(HeaderName, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.status == http.StatusOK && (w.Body.String() != tt.want || w.Header().Get(HeaderName) != tt.want) {
				t.Fatalf("session = %q (header %q), want %q", w.Body.String(), w.Header().Get(HeaderName), tt.want)
			}
		})
	}
}

func TestMiddlewareIssuesSession(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	issued := w.Header().Get(HeaderName)
	if _, err := uuid.Parse(issued); err != nil || w.Body.String() != issued {
		t.Fatalf("issued %q, body %q", issued, w.Body.String())
	}
}
