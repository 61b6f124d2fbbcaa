package routes

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/esports-arena/handlers"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("routes-test-secret")

func newRouter() http.Handler {
	r := chi.NewRouter()
	SetupRoutes(r,
		Options{
			JWTSecret:      testSecret,
			AllowedOrigins: []string{"*"},
			Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
		handlers.NewBracketHandler(nil),
		handlers.NewMatchHandler(nil),
		handlers.NewEvidenceHandler(nil, nil),
		handlers.NewModerationHandler(nil),
		handlers.NewVetoHandler(nil),
	)
	return r
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 5, "role": role, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)
	return "Bearer " + s
}

func TestPublicRoutes(t *testing.T) {
	router := newRouter()

	for _, path := range []string{"/healthz", "/bracket-styles", "/swagger/doc.json"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestProtectedRoutes(t *testing.T) {
	router := newRouter()

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		status int
	}{
		{"start without token", http.MethodPost, "/matches/1/start", "", http.StatusUnauthorized},
		{"start as player", http.MethodPost, "/matches/1/start", bearer(t, "player"), http.StatusForbidden},
		{"generate as referee", http.MethodPost, "/tournaments/1/bracket", bearer(t, "referee"), http.StatusForbidden},
		{"moderation as organizer", http.MethodGet, "/moderation/audit", bearer(t, "organizer"), http.StatusForbidden},
		{"chat post without token", http.MethodPost, "/matches/1/chat", "", http.StatusUnauthorized},
		{"veto without token", http.MethodPost, "/matches/1/veto", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
