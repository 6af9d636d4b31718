package security

import "errors"

var (
	ErrBlockNotFound = errors.New("block entry not found")
	ErrInvalidIP     = errors.New("invalid ip address")
)
