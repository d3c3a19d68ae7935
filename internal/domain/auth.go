package domain

import "time"

// Identity is what the identity provider vouches for after verifying a token.
type Identity struct {
	UID       string
	Email     string
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Session is a token issued by the identity provider on sign-in.
type Session struct {
	UID       string
	Token     string
	ExpiresAt time.Time
}
