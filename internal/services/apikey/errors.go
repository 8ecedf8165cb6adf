package apikey

import "errors"

var (
	ErrKeyNotFound       = errors.New("api key not found")
	ErrInvalidKey        = errors.New("invalid api key")
	ErrInvalidExpiry     = errors.New("invalid expiry; use 1H, 1D, 1M or 1Y")
	ErrInvalidPermission = errors.New("invalid permission")
)
