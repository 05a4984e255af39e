package authgate_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront_auth/internal/config"
	"storefront_auth/internal/lib/api/cookies"
	"storefront_auth/internal/lib/jwt"
	"storefront_auth/internal/middleware/authgate"
	"storefront_auth/internal/models"
)

func testCodec(t *testing.T) *jwt.Codec {
	t.Helper()

	codec, err := jwt.New(config.Tokens{
		AccessTokenSecret:    "access-secret",
		RefreshTokenSecret:   "refresh-secret",
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      7 * 24 * time.Hour,
		VerificationTokenTTL: 24 * time.Hour,
		ResetTokenTTL:        time.Hour,
	})
	if err != nil {
		t.Fatalf("jwt.New error: %v", err)
	}

	return codec
}

// gateHandler оборачивает шлюзом обработчик, который отдает личность
// из контекста — по ответу видно, что именно дошло до обработчика.
func gateHandler(t *testing.T, codec *jwt.Codec) http.Handler {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := authgate.FromContext(r.Context()); ok {
			_ = json.NewEncoder(w).Encode(id)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	return authgate.New(log, codec, false)(inner)
}

func signAccess(t *testing.T, codec *jwt.Codec, role string) string {
	t.Helper()

	tok, err := codec.SignAccess(models.TokenPayload{
		UserID: "507f1f77bcf86cd799439011",
		Email:  "a@x.com",
		Role:   role,
	})
	if err != nil {
		t.Fatalf("SignAccess error: %v", err)
	}

	return tok
}

func TestGate_UnprotectedPathPasses(t *testing.T) {
	t.Parallel()

	h := gateHandler(t, testCodec(t))

	for _, path := range []string{"/", "/catalog", "/api/products", "/administrator"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 without token, got %d", path, rec.Code)
		}
	}
}

// Пути самого auth API шлюз пропускает: иначе нельзя залогиниться.
func TestGate_AuthAPIExcluded(t *testing.T) {
	t.Parallel()

	h := gateHandler(t, testCodec(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /api/auth/* to bypass the gate, got %d", rec.Code)
	}
}

func TestGate_APIWithoutToken(t *testing.T) {
	t.Parallel()

	h := gateHandler(t, testCodec(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("expected JSON error body, got Content-Type %q", ct)
	}
}

// Страница без токена — редирект на логин, не 401.
func TestGate_PageWithoutToken(t *testing.T) {
	t.Parallel()

	h := gateHandler(t, testCodec(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/account/settings", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/auth/login" {
		t.Fatalf("expected redirect to /auth/login, got %q", loc)
	}
}

// Протухшая кука чистится, чтобы браузер не слал ее снова.
func TestGate_InvalidTokenClearsCookie(t *testing.T) {
	t.Parallel()

	h := gateHandler(t, testCodec(t))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.AddCookie(&http.Cookie{Name: cookies.AccessToken, Value: "garbage"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookies.AccessToken && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("expected the access token cookie to be cleared")
	}
}

func TestGate_ValidCookieInjectsIdentity(t *testing.T) {
	t.Parallel()

	codec := testCodec(t)
	h := gateHandler(t, codec)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.AddCookie(&http.Cookie{Name: cookies.AccessToken, Value: signAccess(t, codec, models.RoleUser)})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var id authgate.Identity
	if err := json.NewDecoder(rec.Body).Decode(&id); err != nil {
		t.Fatalf("decode identity: %v", err)
	}
	if id.UserID != "507f1f77bcf86cd799439011" || id.Email != "a@x.com" || id.Role != models.RoleUser {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestGate_BearerHeaderAccepted(t *testing.T) {
	t.Parallel()

	codec := testCodec(t)
	h := gateHandler(t, codec)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+signAccess(t, codec, models.RoleUser))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer header, got %d", rec.Code)
	}
}

func TestGate_AdminPaths(t *testing.T) {
	t.Parallel()

	codec := testCodec(t)
	h := gateHandler(t, codec)

	userToken := signAccess(t, codec, models.RoleUser)
	adminToken := signAccess(t, codec, models.RoleAdmin)

	// API: обычному пользователю — 403.
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.AddCookie(&http.Cookie{Name: cookies.AccessToken, Value: userToken})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin on API, got %d", rec.Code)
	}

	// Страница: обычному пользователю — редирект на главную.
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: cookies.AccessToken, Value: userToken})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302 for non-admin on page, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}

	// Админ проходит.
	req = httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.AddCookie(&http.Cookie{Name: cookies.AccessToken, Value: adminToken})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
}

// Кука имеет приоритет над заголовком: битая кука — отказ, даже если
// в заголовке лежит валидный токен.
func TestGate_CookieTakesPrecedence(t *testing.T) {
	t.Parallel()

	codec := testCodec(t)
	h := gateHandler(t, codec)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.AddCookie(&http.Cookie{Name: cookies.AccessToken, Value: "garbage"})
	req.Header.Set("Authorization", "Bearer "+signAccess(t, codec, models.RoleUser))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when cookie is invalid, got %d", rec.Code)
	}
}
