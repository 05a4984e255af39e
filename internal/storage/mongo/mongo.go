package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront_auth/internal/config"
	"storefront_auth/internal/models"
	"storefront_auth/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepo struct {
	client *mongo.Client
	users  *mongo.Collection
}

func New(ctx context.Context, cfg *config.Config) (*MongoRepo, error) {
	const op = "storage.mongo.New"

	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(10).
		SetMinPoolSize(2)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect: %w", op, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	users := client.Database(cfg.Mongo.Database).Collection("users")

	// * email уникален; все чтения и записи идут по нормализованному значению
	_, err = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: failed to create email index: %w", op, err)
	}

	return &MongoRepo{client: client, users: users}, nil
}

// * SaveUser создает запись пользователя; повторный email -> ErrUserExists.
func (r *MongoRepo) SaveUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.mongo.SaveUser"

	now := time.Now()
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", storage.ErrUserExists
		}

		return "", fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("%s: unexpected inserted id type", op)
	}

	return id.Hex(), nil
}

func (r *MongoRepo) UserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.mongo.UserByEmail"

	filter := bson.M{"email": strings.ToLower(email)}

	var u models.User
	err := r.users.FindOne(ctx, filter).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (r *MongoRepo) UserByID(ctx context.Context, id string) (models.User, error) {
	const op = "storage.mongo.UserByID"

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, storage.ErrUserNotFound
	}

	var u models.User
	err = r.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// * UserByVerificationToken ищет пользователя по неистекшему токену верификации.
func (r *MongoRepo) UserByVerificationToken(ctx context.Context, token string) (models.User, error) {
	const op = "storage.mongo.UserByVerificationToken"

	filter := bson.M{
		"verification_token":        token,
		"verification_token_expiry": bson.M{"$gt": time.Now()},
	}

	var u models.User
	err := r.users.FindOne(ctx, filter).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, storage.ErrTokenNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// * UserByResetToken ищет пользователя по неистекшему токену сброса пароля.
func (r *MongoRepo) UserByResetToken(ctx context.Context, token string) (models.User, error) {
	const op = "storage.mongo.UserByResetToken"

	filter := bson.M{
		"reset_password_token":  token,
		"reset_password_expiry": bson.M{"$gt": time.Now()},
	}

	var u models.User
	err := r.users.FindOne(ctx, filter).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, storage.ErrTokenNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// * SetVerified помечает email подтвержденным и гасит одноразовый токен.
func (r *MongoRepo) SetVerified(ctx context.Context, userID string) error {
	const op = "storage.mongo.SetVerified"

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return storage.ErrUserNotFound
	}

	update := bson.M{
		"$set": bson.M{"is_verified": true, "updated_at": time.Now()},
		"$unset": bson.M{
			"verification_token":        "",
			"verification_token_expiry": "",
		},
	}

	res, err := r.users.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

func (r *MongoRepo) SetVerificationToken(ctx context.Context, userID, token string, expiry time.Time) error {
	const op = "storage.mongo.SetVerificationToken"

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return storage.ErrUserNotFound
	}

	update := bson.M{"$set": bson.M{
		"verification_token":        token,
		"verification_token_expiry": expiry,
		"updated_at":                time.Now(),
	}}

	res, err := r.users.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

func (r *MongoRepo) SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error {
	const op = "storage.mongo.SetResetToken"

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return storage.ErrUserNotFound
	}

	update := bson.M{"$set": bson.M{
		"reset_password_token":  token,
		"reset_password_expiry": expiry,
		"updated_at":            time.Now(),
	}}

	res, err := r.users.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// * SetRefreshToken пишет в единственный слот сессии, затирая прежнее значение.
func (r *MongoRepo) SetRefreshToken(ctx context.Context, userID, token string) error {
	const op = "storage.mongo.SetRefreshToken"

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return storage.ErrUserNotFound
	}

	update := bson.M{"$set": bson.M{
		"refresh_token": token,
		"updated_at":    time.Now(),
	}}

	res, err := r.users.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// * RotateRefreshToken — compare-and-swap: ротация проходит только если
// в слоте все еще лежит предъявленный токен. Проигравший гонку получает
// ErrRefreshConflict и закрывается с отказом.
func (r *MongoRepo) RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string) error {
	const op = "storage.mongo.RotateRefreshToken"

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return storage.ErrUserNotFound
	}

	filter := bson.M{"_id": oid, "refresh_token": oldToken}
	update := bson.M{"$set": bson.M{
		"refresh_token": newToken,
		"updated_at":    time.Now(),
	}}

	res, err := r.users.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrRefreshConflict
	}

	return nil
}

func (r *MongoRepo) ClearRefreshToken(ctx context.Context, userID string) error {
	const op = "storage.mongo.ClearRefreshToken"

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return storage.ErrUserNotFound
	}

	update := bson.M{
		"$set":   bson.M{"updated_at": time.Now()},
		"$unset": bson.M{"refresh_token": ""},
	}

	_, err = r.users.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * ResetPassword меняет хеш пароля, гасит токен сброса и обнуляет слот
// refresh токена: после смены учетных данных все сессии разлогинены.
func (r *MongoRepo) ResetPassword(ctx context.Context, userID, passHash string) error {
	const op = "storage.mongo.ResetPassword"

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return storage.ErrUserNotFound
	}

	update := bson.M{
		"$set": bson.M{
			"password_hash": passHash,
			"updated_at":    time.Now(),
		},
		"$unset": bson.M{
			"reset_password_token":  "",
			"reset_password_expiry": "",
			"refresh_token":         "",
		},
	}

	res, err := r.users.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

func (r *MongoRepo) Close(ctx context.Context) {
	_ = r.client.Disconnect(ctx)
}
