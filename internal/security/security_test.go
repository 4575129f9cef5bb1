package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestEncoders(t *testing.T) {
	pbkdf2, err := NewPBKDF2Encoder("pepper", 1000, 32)
	require.NoError(t, err)

	encoders := map[string]PasswordEncoder{
		"bcrypt": &BCryptEncoder{Cost: bcrypt.MinCost},
		"pbkdf2": pbkdf2,
	}

	for name, encoder := range encoders {
		t.Run(name, func(t *testing.T) {
			hash, err := encoder.GetPasswordHash("password")
			require.NoError(t, err)
			assert.NotEqual(t, "password", hash)
			assert.True(t, encoder.IsMatching(hash, "password"))
			assert.False(t, encoder.IsMatching(hash, "Password"))
		})
	}
}

func TestBCryptEncoder_MatchesSeededHash(t *testing.T) {
	// bcrypt of "password" at cost 10.
	seeded := "$2a$10$92IXUNpkjO0rOQ5byMi.Ye4oKoEa3Ro9llC/.og/at2.uheWG/igi"
	assert.True(t, NewBCryptEncoder().IsMatching(seeded, "password"))
}

func TestPBKDF2Encoder_Deterministic(t *testing.T) {
	encoder, err := NewPBKDF2Encoder("pepper", 1000, 32)
	require.NoError(t, err)
	first, _ := encoder.GetPasswordHash("secret")
	second, _ := encoder.GetPasswordHash("secret")
	assert.Equal(t, first, second)
}

func TestNewPasswordEncoder(t *testing.T) {
	encoder, err := NewPasswordEncoder("bcrypt", "", 0, 0)
	require.NoError(t, err)
	assert.IsType(t, &BCryptEncoder{}, encoder)

	encoder, err = NewPasswordEncoder("pbkdf2", "pepper", 1000, 64)
	require.NoError(t, err)
	assert.IsType(t, &PBKDF2Encoder{}, encoder)

	_, err = NewPasswordEncoder("pbkdf2", "", 1000, 64)
	assert.Error(t, err)
	_, err = NewPasswordEncoder("md5", "", 0, 0)
	assert.Error(t, err)
}
