package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

const (
	issuer = "miniblog"

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("bearer token is invalid")

type Claims struct {
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.StandardClaims
}

type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (i *TokenIssuer) GenerateTokens(userID, role string) (string, string, error) {
	accessToken, err := i.generate(userID, role, TokenTypeAccess, i.accessTTL, i.accessSecret)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := i.generate(userID, role, TokenTypeRefresh, i.refreshTTL, i.refreshSecret)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (i *TokenIssuer) ParseAccessToken(tokenString string) (*Claims, error) {
	return i.parse(tokenString, TokenTypeAccess, i.accessSecret)
}

func (i *TokenIssuer) ParseRefreshToken(tokenString string) (*Claims, error) {
	return i.parse(tokenString, TokenTypeRefresh, i.refreshSecret)
}

func (i *TokenIssuer) generate(userID, role, tokenType string, ttl time.Duration, secret []byte) (string, error) {
	now := i.now()
	claims := &Claims{
		Role:      role,
		TokenType: tokenType,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(ttl).Unix(),
			Id:        uuid.New().String(),
			IssuedAt:  now.Unix(),
			Issuer:    issuer,
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (i *TokenIssuer) parse(tokenString, tokenType string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
