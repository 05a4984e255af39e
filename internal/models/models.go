package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                      primitive.ObjectID `bson:"_id,omitempty"`
	Email                   string             `bson:"email"`
	Name                    string             `bson:"name"`
	PassHash                string             `bson:"password_hash"`
	Role                    string             `bson:"role"`
	IsVerified              bool               `bson:"is_verified"`
	VerificationToken       string             `bson:"verification_token,omitempty"`
	VerificationTokenExpiry *time.Time         `bson:"verification_token_expiry,omitempty"`
	ResetPasswordToken      string             `bson:"reset_password_token,omitempty"`
	ResetPasswordExpiry     *time.Time         `bson:"reset_password_expiry,omitempty"`
	RefreshToken            string             `bson:"refresh_token,omitempty"`
	CreatedAt               time.Time          `bson:"created_at"`
	UpdatedAt               time.Time          `bson:"updated_at"`
}

// * TokenPayload — утверждения, зашитые в access/refresh токены.
// Ничего кроме userId, email и role в токенах не хранится.
type TokenPayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// * PublicUser — поля пользователя, которые можно отдавать клиенту.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

const (
	PurposeVerification  = "email_verification"
	PurposePasswordReset = "password_reset"
)

type Message struct {
	Email   string `json:"to"`
	Name    string `json:"name"`
	Link    string `json:"link"`
	Purpose string `json:"purpose"`
}
