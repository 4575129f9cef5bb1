package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

type PasswordEncoder interface {
	GetPasswordHash(password string) (string, error)
	IsMatching(hash, password string) bool
}

type BCryptEncoder struct {
	Cost int
}

func NewBCryptEncoder() *BCryptEncoder {
	return &BCryptEncoder{Cost: bcrypt.DefaultCost}
}

func (e BCryptEncoder) GetPasswordHash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), e.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (BCryptEncoder) IsMatching(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewPasswordEncoder picks an encoder by name: "bcrypt" or "pbkdf2".
func NewPasswordEncoder(name, secret string, iterations, keyLength int) (PasswordEncoder, error) {
	switch name {
	case "", "bcrypt":
		return NewBCryptEncoder(), nil
	case "pbkdf2":
		return NewPBKDF2Encoder(secret, iterations, keyLength)
	default:
		return nil, fmt.Errorf("unknown password encoder %q", name)
	}
}
