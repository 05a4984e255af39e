package cookies

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}

	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestSet_Attributes(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Set(rec, AccessToken, "tok", 15*time.Minute, true)

	c := findCookie(t, rec, AccessToken)
	if c.Value != "tok" {
		t.Fatalf("unexpected value: %q", c.Value)
	}
	if !c.HttpOnly {
		t.Fatalf("cookie must be httpOnly")
	}
	if !c.Secure {
		t.Fatalf("cookie must be secure when asked")
	}
	if c.Path != "/" {
		t.Fatalf("unexpected path: %q", c.Path)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected SameSite: %v", c.SameSite)
	}
	if c.MaxAge != int((15 * time.Minute).Seconds()) {
		t.Fatalf("unexpected MaxAge: %d", c.MaxAge)
	}
}

func TestClearPair(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	ClearPair(rec, false)

	for _, name := range []string{AccessToken, RefreshToken} {
		c := findCookie(t, rec, name)
		if c.MaxAge >= 0 || c.Value != "" {
			t.Fatalf("%s: expected expired empty cookie, got MaxAge=%d value=%q", name, c.MaxAge, c.Value)
		}
	}
}
