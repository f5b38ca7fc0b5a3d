// Package auth implements email/password signup and login with bcrypt
// hashing and HS256 JWT issuance.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
	"golang.org/x/crypto/bcrypt"

	"github.com/temporal-nexus/nexus-api/internal/model"
	"github.com/temporal-nexus/nexus-api/internal/store"
)

// ErrEmailTaken is returned by Signup when the email already has an account.
var ErrEmailTaken = eris.New("auth: email already registered")

// ErrInvalidCredentials is returned by Login for both unknown emails and
// wrong passwords, so responses don't reveal which one it was.
var ErrInvalidCredentials = eris.New("auth: invalid credentials")

// Service issues tokens against accounts in the store.
type Service struct {
	store  store.Store
	secret []byte
	ttl    time.Duration
}

// NewService builds an auth service. ttl bounds token lifetime.
func NewService(st store.Store, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{store: st, secret: []byte(secret), ttl: ttl}
}

// Claims are the JWT claims carried by issued tokens.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Signup creates an account with a bcrypt-hashed password and returns it
// with a fresh token.
func (s *Service) Signup(ctx context.Context, email, password, name string) (*model.Account, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.store.GetAccountByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, "", eris.Wrap(err, "auth: check existing account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", eris.Wrap(err, "auth: hash password")
	}

	account, err := s.store.CreateAccount(ctx, model.Account{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, "", eris.Wrap(err, "auth: create account")
	}

	token, err := s.issueToken(account)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// Login verifies the password and returns the account with a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*model.Account, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	account, err := s.store.GetAccountByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", eris.Wrap(err, "auth: lookup account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(account)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// Verify parses and validates a token, returning its claims.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, eris.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "auth: parse token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, eris.New("auth: invalid token")
	}
	return claims, nil
}

func (s *Service) issueToken(account *model.Account) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", eris.Wrap(err, "auth: sign token")
	}
	return signed, nil
}
