package domain

import "time"

// TokenType is reported alongside issued bearer tokens.
const TokenType = "bearer"

// Claims is the verified content of a session token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
