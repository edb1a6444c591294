package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

const minPasswordLength = 6

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// IdentityService is the password identity service for administrators. It
// issues HS256 tokens carrying a role claim and revokes them on sign-out.
type IdentityService struct {
	repo      ports.CredentialRepository
	revoker   ports.TokenRevoker
	jwtSecret string
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewIdentityService(repo ports.CredentialRepository, revoker ports.TokenRevoker, jwtSecret string, tokenTTL time.Duration) *IdentityService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &IdentityService{
		repo:      repo,
		revoker:   revoker,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *IdentityService) SignUp(ctx context.Context, name, email, password string) (*domain.Session, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrRegistration)
	}
	if !domain.IsAdminEmail(email) {
		return nil, domain.ErrNotAdministrator
	}
	if len(password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cred, err := s.repo.Create(ctx, &domain.Credential{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(name),
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}
	return s.issue(cred)
}

func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	cred, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return s.issue(cred)
}

func (s *IdentityService) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *IdentityService) Verify(ctx context.Context, token string) (*ports.TokenClaims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if revoked {
		return nil, domain.ErrTokenRevoked
	}

	return &ports.TokenClaims{
		Subject:   claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *IdentityService) issue(cred *domain.Credential) (*domain.Session, error) {
	now := s.now()
	expires := now.Add(s.tokenTTL)
	claims := tokenClaims{
		Email: cred.Email,
		Role:  cred.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cred.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}
	return &domain.Session{Subject: cred.ID, Token: signed, ExpiresAt: expires}, nil
}

func (s *IdentityService) parse(token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claims, nil
}
