package security

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

type PBKDF2Encoder struct {
	Secret    string
	Iteration int
	KeyLength int
}

func NewPBKDF2Encoder(secret string, iteration, keyLength int) (*PBKDF2Encoder, error) {
	if secret == "" {
		return nil, errors.New("pbkdf2 secret is required")
	}
	if iteration <= 0 || keyLength <= 0 {
		return nil, errors.New("pbkdf2 iterations and key length must be positive")
	}
	return &PBKDF2Encoder{Secret: secret, Iteration: iteration, KeyLength: keyLength}, nil
}

func (p PBKDF2Encoder) GetPasswordHash(password string) (string, error) {
	hash := pbkdf2.Key([]byte(password), []byte(p.Secret), p.Iteration, p.KeyLength, sha512.New)
	return base64.StdEncoding.EncodeToString(hash), nil
}

func (p PBKDF2Encoder) IsMatching(hash, password string) bool {
	encoded, _ := p.GetPasswordHash(password)
	return subtle.ConstantTimeCompare([]byte(encoded), []byte(hash)) == 1
}
