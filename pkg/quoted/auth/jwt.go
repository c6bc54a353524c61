package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrWrongCredentials   = errors.New("wrong credentials")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrTokenCreation      = errors.New("token creation failed")
)

// Claims represents the JWT claims carried by issued tokens: issuer,
// subject and expiry.
type Claims struct {
	jwt.RegisteredClaims
}

// Registration is the credential set presented to obtain a token. The
// password is the shared registration secret, not a per-user password.
type Registration struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthBody is the token response returned on successful registration.
type AuthBody struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Service issues and validates bearer tokens. It holds the signing and
// registration secrets loaded once at startup and is immutable for the
// process lifetime.
type Service struct {
	signingKey []byte
	regSecret  string
	issuer     string
	tokenTTL   time.Duration
}

// NewService creates a token service. regSecret may be either the plain
// shared secret or a bcrypt hash of it.
func NewService(signingKey []byte, regSecret, issuer string, tokenTTL time.Duration) *Service {
	return &Service{
		signingKey: signingKey,
		regSecret:  regSecret,
		issuer:     issuer,
		tokenTTL:   tokenTTL,
	}
}

// Issue validates the registration credentials and returns a signed
// bearer token. The subject identifies the registrant by name and email;
// there is no per-user scoping beyond that.
func (s *Service) Issue(reg Registration) (*AuthBody, error) {
	if !s.checkRegistrationSecret(reg.Password) {
		return nil, ErrWrongCredentials
	}

	now := time.Now().UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   fmt.Sprintf("%s <%s>", reg.FullName, reg.Email),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return nil, ErrTokenCreation
	}

	return &AuthBody{AccessToken: signed, TokenType: "Bearer"}, nil
}

// Validate verifies a token's signature and expiry and returns its claims.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// checkRegistrationSecret compares the supplied password against the
// configured registration secret in constant time. A secret stored as a
// bcrypt hash is recognized by its prefix.
func (s *Service) checkRegistrationSecret(password string) bool {
	if strings.HasPrefix(s.regSecret, "$2a$") ||
		strings.HasPrefix(s.regSecret, "$2b$") ||
		strings.HasPrefix(s.regSecret, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(s.regSecret), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(s.regSecret), []byte(password)) == 1
}
