package admin

import "errors"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token expired")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnknownRole      = errors.New("unknown role")
	ErrInvalidPolicy    = errors.New("invalid role policy")
)
