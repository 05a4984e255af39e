package storage

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrTokenNotFound   = errors.New("token not found")
	ErrRefreshConflict = errors.New("refresh token was rotated concurrently")
)
