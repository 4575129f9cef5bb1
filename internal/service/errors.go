package service

import "errors"

var (
	ErrPostNotFound       = errors.New("post not found or access denied")
	ErrSlugConflict       = errors.New("could not allocate a unique slug")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
