package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storefront_auth/internal/lib/hasher"
	"storefront_auth/internal/lib/jwt"
	sl "storefront_auth/internal/lib/logger"
	"storefront_auth/internal/models"
	"storefront_auth/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrAlreadyVerified    = errors.New("email already verified")
)

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	codec       *jwt.Codec
	publisher   Publisher
	appURL      string
}

type UserSaver interface {
	SaveUser(ctx context.Context, user models.User) (id string, err error)
	SetVerified(ctx context.Context, userID string) error
	SetVerificationToken(ctx context.Context, userID, token string, expiry time.Time) error
	SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error
	SetRefreshToken(ctx context.Context, userID, token string) error
	RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string) error
	ClearRefreshToken(ctx context.Context, userID string) error
	ResetPassword(ctx context.Context, userID, passHash string) error
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id string) (models.User, error)
	UserByVerificationToken(ctx context.Context, token string) (models.User, error)
	UserByResetToken(ctx context.Context, token string) (models.User, error)
}

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	codec *jwt.Codec,
	publisher Publisher,
	appURL string,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		codec:       codec,
		publisher:   publisher,
		appURL:      appURL,
	}
}

// * Register создает неподтвержденного пользователя и шлет письмо верификации.
// Падение отправки письма регистрацию не ломает: аккаунт не должен зависнуть
// из-за лежащего почтового брокера, пользователь дошлет письмо сам.
func (a *Auth) Register(ctx context.Context, name, email, password string) (string, error) {
	const op = "auth.Register"

	log := a.log.With(slog.String("op", op))

	passHash, err := hasher.Hash(password)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	verificationToken, err := a.codec.NewOpaqueToken()
	if err != nil {
		log.Error("failed to generate verification token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	expiry := a.codec.VerificationExpiry()

	user := models.User{
		Email:                   email,
		Name:                    name,
		PassHash:                passHash,
		Role:                    models.RoleUser,
		IsVerified:              false,
		VerificationToken:       verificationToken,
		VerificationTokenExpiry: &expiry,
	}

	id, err := a.usrSaver.SaveUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			return "", ErrUserExists
		}

		log.Error("failed to save user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	a.sendEmail(ctx, log, email, name, verificationToken, models.PurposeVerification)

	log.Info("user registered", slog.String("uid", id))

	return id, nil
}

// * Login проверяет учетные данные и выдает пару access/refresh токенов.
// "Нет пользователя" и "неверный пароль" снаружи неразличимы.
func (a *Auth) Login(ctx context.Context, email, password string) (models.User, string, string, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return models.User{}, "", "", ErrInvalidCredentials
		}

		log.Error("failed to get user", sl.Err(err))
		return models.User{}, "", "", fmt.Errorf("%s: %w", op, err)
	}

	if !user.IsVerified {
		return models.User{}, "", "", ErrEmailNotVerified
	}

	if !hasher.Compare(password, user.PassHash) {
		log.Info("invalid credentials")
		return models.User{}, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := a.signPair(user)
	if err != nil {
		log.Error("failed to sign tokens", sl.Err(err))
		return models.User{}, "", "", fmt.Errorf("%s: %w", op, err)
	}

	// Слот один: новый логин молча разлогинивает прежнюю сессию.
	if err := a.usrSaver.SetRefreshToken(ctx, user.ID.Hex(), refreshToken); err != nil {
		log.Error("failed to save refresh token", sl.Err(err))
		return models.User{}, "", "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.String("uid", user.ID.Hex()))

	return user, accessToken, refreshToken, nil
}

// * Refresh меняет предъявленный refresh токен на новую пару.
// Подпись валидна, но слот не совпал — отказ: слот в базе и есть
// единственный источник правды о действующей сессии.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	const op = "auth.Refresh"

	log := a.log.With(slog.String("op", op))

	if refreshToken == "" {
		return "", "", ErrInvalidCredentials
	}

	payload, err := a.codec.VerifyRefresh(refreshToken)
	if err != nil {
		log.Warn("refresh token failed verification")
		return "", "", ErrInvalidCredentials
	}

	user, err := a.usrProvider.UserByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", "", ErrInvalidCredentials
		}

		log.Error("failed to load user", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	if user.RefreshToken != refreshToken {
		log.Warn("refresh token does not match stored slot", slog.String("uid", user.ID.Hex()))
		return "", "", ErrInvalidCredentials
	}

	accessToken, newRefresh, err := a.signPair(user)
	if err != nil {
		log.Error("failed to sign tokens", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	err = a.usrSaver.RotateRefreshToken(ctx, user.ID.Hex(), refreshToken, newRefresh)
	if err != nil {
		if errors.Is(err, storage.ErrRefreshConflict) {
			log.Warn("lost refresh rotation race", slog.String("uid", user.ID.Hex()))
			return "", "", ErrInvalidCredentials
		}

		log.Error("failed to rotate refresh token", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("refresh successful", slog.String("uid", user.ID.Hex()))

	return accessToken, newRefresh, nil
}

// * Verify подтверждает email по одноразовому токену из письма.
func (a *Auth) Verify(ctx context.Context, token string) error {
	const op = "auth.Verify"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			log.Warn("verification token not found or expired")
			return ErrInvalidToken
		}

		log.Error("failed to look up verification token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.usrSaver.SetVerified(ctx, user.ID.Hex()); err != nil {
		log.Error("failed to mark user as verified", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email verified", slog.String("uid", user.ID.Hex()))

	return nil
}

// * ResendVerification перевыпускает токен верификации, затирая прежний.
func (a *Auth) ResendVerification(ctx context.Context, email string) error {
	const op = "auth.ResendVerification"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("user not found")
			return storage.ErrUserNotFound
		}

		log.Error("failed to get user", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if user.IsVerified {
		return ErrAlreadyVerified
	}

	token, err := a.codec.NewOpaqueToken()
	if err != nil {
		log.Error("failed to generate verification token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	err = a.usrSaver.SetVerificationToken(ctx, user.ID.Hex(), token, a.codec.VerificationExpiry())
	if err != nil {
		log.Error("failed to save verification token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	a.sendEmail(ctx, log, user.Email, user.Name, token, models.PurposeVerification)

	log.Info("verification email resent", slog.String("uid", user.ID.Hex()))

	return nil
}

// * RequestReset инициирует сброс пароля. Снаружи ответ всегда одинаковый:
// существование email не раскрывается ни статусом, ни телом ответа.
func (a *Auth) RequestReset(ctx context.Context, email string) error {
	const op = "auth.RequestReset"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("reset requested for unknown email")
			return nil
		}

		log.Error("failed to get user", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := a.codec.NewOpaqueToken()
	if err != nil {
		log.Error("failed to generate reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	err = a.usrSaver.SetResetToken(ctx, user.ID.Hex(), token, a.codec.ResetExpiry())
	if err != nil {
		log.Error("failed to save reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	a.sendEmail(ctx, log, user.Email, user.Name, token, models.PurposePasswordReset)

	log.Info("reset token issued", slog.String("uid", user.ID.Hex()))

	return nil
}

// * ConfirmReset меняет пароль по токену сброса. Вместе с токеном гасится
// и слот refresh токена: смена учетных данных разлогинивает все сессии.
func (a *Auth) ConfirmReset(ctx context.Context, token, newPassword string) error {
	const op = "auth.ConfirmReset"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			log.Warn("reset token not found or expired")
			return ErrInvalidToken
		}

		log.Error("failed to look up reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := hasher.Hash(newPassword)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.usrSaver.ResetPassword(ctx, user.ID.Hex(), passHash); err != nil {
		log.Error("failed to reset password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password reset", slog.String("uid", user.ID.Hex()))

	return nil
}

// * Logout гасит слот refresh токена, если предъявлен действующий токен.
// Куки чистит обработчик; невалидный токен здесь не ошибка.
func (a *Auth) Logout(ctx context.Context, refreshToken string) error {
	const op = "auth.Logout"

	log := a.log.With(slog.String("op", op))

	if refreshToken == "" {
		return nil
	}

	payload, err := a.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return nil
	}

	user, err := a.usrProvider.UserByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil
		}

		log.Error("failed to load user", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if user.RefreshToken != refreshToken {
		return nil
	}

	if err := a.usrSaver.ClearRefreshToken(ctx, user.ID.Hex()); err != nil {
		log.Error("failed to clear refresh token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged out", slog.String("uid", user.ID.Hex()))

	return nil
}

func (a *Auth) signPair(user models.User) (string, string, error) {
	payload := models.TokenPayload{
		UserID: user.ID.Hex(),
		Email:  user.Email,
		Role:   user.Role,
	}

	accessToken, err := a.codec.SignAccess(payload)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := a.codec.SignRefresh(payload)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// sendEmail публикует письмо в очередь. Ошибка публикации глотается
// намеренно, но пишется в лог со стабильным сообщением, чтобы сломанный
// почтовый тракт было видно по счетчику в логах.
func (a *Auth) sendEmail(ctx context.Context, log *slog.Logger, email, name, token, purpose string) {
	var link string

	switch purpose {
	case models.PurposePasswordReset:
		link = fmt.Sprintf("%s/auth/reset-password?token=%s", a.appURL, token)
	default:
		link = fmt.Sprintf("%s/auth/verify?token=%s", a.appURL, token)
	}

	msg := models.Message{
		Email:   email,
		Name:    name,
		Link:    link,
		Purpose: purpose,
	}

	if err := a.publisher.SendMessage(ctx, msg); err != nil {
		log.Warn("failed to publish email job", sl.Err(err))
	}
}
