package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	autherrors "beroepsbelg/internal/auth/errors"
	"beroepsbelg/internal/auth/repository"
	"beroepsbelg/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

type Authenticator struct {
	secret   []byte
	profiles repository.ProfileRepository
	log      *logger.Logger
	parser   *jwt.Parser
}

func NewAuthenticator(secret string, profiles repository.ProfileRepository, log *logger.Logger) *Authenticator {
	return &Authenticator{
		secret:   []byte(secret),
		profiles: profiles,
		log:      log,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", autherrors.ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", autherrors.ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}

// Authenticate verifies the token and loads the profile named by its subject.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Principal, error) {
	var claims jwt.RegisteredClaims
	parsed, err := a.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", autherrors.ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", autherrors.ErrInvalidToken)
	}

	profile, err := a.profiles.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, autherrors.ErrProfileNotFound) {
			return nil, fmt.Errorf("%w: unknown profile", autherrors.ErrInvalidToken)
		}
		return nil, err
	}

	return &Principal{
		ProfileID: profile.ID,
		IsAdmin:   profile.IsAdmin,
		GuideID:   profile.GuideID,
	}, nil
}
