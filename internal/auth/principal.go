// Package auth resolves bearer tokens to profiles and guards handlers by role.
//
// Tokens are HS256 JWTs issued by the identity provider. The subject is the
// profile id; the profile decides whether the caller is an admin and which
// guide, if any, the caller is.
package auth

import (
	"context"
	"strconv"

	apperrors "beroepsbelg/pkg/errors"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller of a request.
type Principal struct {
	ProfileID string
	IsAdmin   bool
	GuideID   *int64
}

// IsGuide reports whether the caller is the guide with the given id.
func (p *Principal) IsGuide(guideID int64) bool {
	return p != nil && p.GuideID != nil && *p.GuideID == guideID
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext returns the caller of the request, or nil for anonymous requests.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

func RequireAdmin(ctx context.Context) error {
	p := FromContext(ctx)
	if p == nil || !p.IsAdmin {
		return apperrors.Forbidden("Admin access required")
	}
	return nil
}

func RequireAuthenticated(ctx context.Context) error {
	if FromContext(ctx) == nil {
		return apperrors.Forbidden("Authentication required")
	}
	return nil
}

// RequireGuideOrAdmin lets admins through, and guides only for their own id.
func RequireGuideOrAdmin(ctx context.Context, guideID int64) error {
	if err := RequireAuthenticated(ctx); err != nil {
		return err
	}
	p := FromContext(ctx)
	if p.IsAdmin || p.IsGuide(guideID) {
		return nil
	}
	return apperrors.Forbidden("Not allowed to act for guide " + strconv.FormatInt(guideID, 10))
}
