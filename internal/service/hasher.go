package service

import "github.com/alexedwards/argon2id"

// Hasher is the one-way password capability. The stored verifier is never
// reversible and never leaves the service.
type Hasher interface {
	Hash(password string) (string, error)
	Matches(password, hash string) (bool, error)
}

type argonHasher struct{}

func NewArgonHasher() Hasher {
	return argonHasher{}
}

func (argonHasher) Hash(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

func (argonHasher) Matches(password, hash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, hash)
}
