package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidAlert  = errors.New("invalid alert definition")
	ErrInvalidQuery  = errors.New("invalid query parameters")
	ErrNoVenueData   = errors.New("no venue returned data")
	ErrUnauthorized  = errors.New("unauthorized")
)
