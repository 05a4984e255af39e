package jwt

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"storefront_auth/internal/config"
	"storefront_auth/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken возвращается на любую причину отказа: битый токен,
// неверная подпись или истекший срок. Вызывающий не должен уметь их различать.
var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// * Codec подписывает и проверяет access/refresh токены.
// Секреты подписи различны: access токен нельзя предъявить как refresh.
type Codec struct {
	accessSecret    []byte
	refreshSecret   []byte
	accessTTL       time.Duration
	refreshTTL      time.Duration
	verificationTTL time.Duration
	resetTTL        time.Duration
}

func New(cfg config.Tokens) (*Codec, error) {
	const op = "lib.jwt.New"

	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("%s: signing secrets must not be empty", op)
	}

	return &Codec{
		accessSecret:    []byte(cfg.AccessTokenSecret),
		refreshSecret:   []byte(cfg.RefreshTokenSecret),
		accessTTL:       cfg.AccessTokenTTL,
		refreshTTL:      cfg.RefreshTokenTTL,
		verificationTTL: cfg.VerificationTokenTTL,
		resetTTL:        cfg.ResetTokenTTL,
	}, nil
}

func (c *Codec) SignAccess(p models.TokenPayload) (string, error) {
	return sign(p, c.accessSecret, c.accessTTL)
}

func (c *Codec) SignRefresh(p models.TokenPayload) (string, error) {
	return sign(p, c.refreshSecret, c.refreshTTL)
}

func (c *Codec) VerifyAccess(token string) (models.TokenPayload, error) {
	return verify(token, c.accessSecret)
}

func (c *Codec) VerifyRefresh(token string) (models.TokenPayload, error) {
	return verify(token, c.refreshSecret)
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// * NewOpaqueToken генерирует криптостойкий одноразовый токен:
// 256 бит случайности в hex, без какой-либо полезной нагрузки внутри.
func (c *Codec) NewOpaqueToken() (string, error) {
	const op = "lib.jwt.NewOpaqueToken"

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return hex.EncodeToString(buf), nil
}

// VerificationExpiry: токен верификации живет сутки.
func (c *Codec) VerificationExpiry() time.Time {
	return time.Now().Add(c.verificationTTL)
}

// ResetExpiry: токен сброса пароля дает смену учетных данных,
// поэтому окно короткое.
func (c *Codec) ResetExpiry() time.Time {
	return time.Now().Add(c.resetTTL)
}

func sign(p models.TokenPayload, secret []byte, ttl time.Duration) (string, error) {
	const op = "lib.jwt.sign"

	now := time.Now()

	// jti делает токен уникальным: две выдачи в одну секунду для одного
	// пользователя не должны совпасть байт в байт, иначе ломается ротация.
	jti := make([]byte, 16)
	if _, err := rand.Read(jti); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        hex.EncodeToString(jti),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: p.UserID,
		Email:  p.Email,
		Role:   p.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

func verify(tokenStr string, secret []byte) (models.TokenPayload, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return models.TokenPayload{}, ErrInvalidToken
	}

	return models.TokenPayload{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
