package jwt

import (
	"errors"
	"testing"
	"time"

	"storefront_auth/internal/config"
	"storefront_auth/internal/models"
)

func testCodec(t *testing.T, accessTTL, refreshTTL time.Duration) *Codec {
	t.Helper()

	codec, err := New(config.Tokens{
		AccessTokenSecret:    "access-secret",
		RefreshTokenSecret:   "refresh-secret",
		AccessTokenTTL:       accessTTL,
		RefreshTokenTTL:      refreshTTL,
		VerificationTokenTTL: 24 * time.Hour,
		ResetTokenTTL:        time.Hour,
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	return codec
}

func testPayload() models.TokenPayload {
	return models.TokenPayload{
		UserID: "507f1f77bcf86cd799439011",
		Email:  "a@x.com",
		Role:   models.RoleUser,
	}
}

func TestNew_EmptySecrets(t *testing.T) {
	t.Parallel()

	_, err := New(config.Tokens{AccessTokenSecret: "", RefreshTokenSecret: "r"})
	if err == nil {
		t.Fatalf("expected error for empty access secret, got nil")
	}

	_, err = New(config.Tokens{AccessTokenSecret: "a", RefreshTokenSecret: ""})
	if err == nil {
		t.Fatalf("expected error for empty refresh secret, got nil")
	}
}

func TestSignAccess_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := testCodec(t, 15*time.Minute, 7*24*time.Hour)
	want := testPayload()

	tok, err := codec.SignAccess(want)
	if err != nil {
		t.Fatalf("SignAccess error: %v", err)
	}

	got, err := codec.VerifyAccess(tok)
	if err != nil {
		t.Fatalf("VerifyAccess error: %v", err)
	}
	if got != want {
		t.Fatalf("payload mismatch: got %+v want %+v", got, want)
	}
}

func TestSignRefresh_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := testCodec(t, 15*time.Minute, 7*24*time.Hour)
	want := testPayload()

	tok, err := codec.SignRefresh(want)
	if err != nil {
		t.Fatalf("SignRefresh error: %v", err)
	}

	got, err := codec.VerifyRefresh(tok)
	if err != nil {
		t.Fatalf("VerifyRefresh error: %v", err)
	}
	if got != want {
		t.Fatalf("payload mismatch: got %+v want %+v", got, want)
	}
}

func TestVerifyAccess_Expired(t *testing.T) {
	t.Parallel()

	codec := testCodec(t, -1*time.Second, 7*24*time.Hour)

	tok, err := codec.SignAccess(testPayload())
	if err != nil {
		t.Fatalf("SignAccess error: %v", err)
	}

	_, err = codec.VerifyAccess(tok)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

// Разделение ключей: access токен не проходит как refresh и наоборот.
func TestKeySeparation(t *testing.T) {
	t.Parallel()

	codec := testCodec(t, 15*time.Minute, 7*24*time.Hour)

	accessTok, err := codec.SignAccess(testPayload())
	if err != nil {
		t.Fatalf("SignAccess error: %v", err)
	}
	refreshTok, err := codec.SignRefresh(testPayload())
	if err != nil {
		t.Fatalf("SignRefresh error: %v", err)
	}

	if _, err := codec.VerifyRefresh(accessTok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token passed refresh verification: %v", err)
	}
	if _, err := codec.VerifyAccess(refreshTok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token passed access verification: %v", err)
	}
}

// Две подписи одной и той же нагрузки — два разных токена (jti).
func TestSign_UniquePerIssue(t *testing.T) {
	t.Parallel()

	codec := testCodec(t, 15*time.Minute, 7*24*time.Hour)

	first, err := codec.SignRefresh(testPayload())
	if err != nil {
		t.Fatalf("SignRefresh error: %v", err)
	}
	second, err := codec.SignRefresh(testPayload())
	if err != nil {
		t.Fatalf("SignRefresh error: %v", err)
	}

	if first == second {
		t.Fatalf("two issued tokens are byte-identical")
	}
}

func TestVerifyAccess_Malformed(t *testing.T) {
	t.Parallel()

	codec := testCodec(t, 15*time.Minute, 7*24*time.Hour)

	for _, tok := range []string{"", "not.a.jwt", "garbage"} {
		if _, err := codec.VerifyAccess(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", tok, err)
		}
	}
}

func TestNewOpaqueToken(t *testing.T) {
	t.Parallel()

	codec := testCodec(t, 15*time.Minute, 7*24*time.Hour)

	first, err := codec.NewOpaqueToken()
	if err != nil {
		t.Fatalf("NewOpaqueToken error: %v", err)
	}
	second, err := codec.NewOpaqueToken()
	if err != nil {
		t.Fatalf("NewOpaqueToken error: %v", err)
	}

	// 256 бит в hex — ровно 64 символа.
	if len(first) != 64 {
		t.Fatalf("unexpected token length: got %d want 64", len(first))
	}
	if first == second {
		t.Fatalf("two opaque tokens are identical")
	}
}

func TestExpiryPolicies(t *testing.T) {
	t.Parallel()

	codec := testCodec(t, 15*time.Minute, 7*24*time.Hour)

	now := time.Now()

	verification := codec.VerificationExpiry()
	if d := verification.Sub(now); d < 23*time.Hour || d > 25*time.Hour {
		t.Fatalf("verification expiry out of range: %v", d)
	}

	reset := codec.ResetExpiry()
	if d := reset.Sub(now); d < 55*time.Minute || d > 65*time.Minute {
		t.Fatalf("reset expiry out of range: %v", d)
	}
}
