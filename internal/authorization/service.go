package authorization

import (
	"context"
	"errors"

	warrantydomain "github.com/smallbiznis/warrantyhub/internal/warranty/domain"
)

// Service resolves what an actor may do before any claim operation runs.
type Service interface {
	// ResolveScope maps the actor's role onto its claim capabilities.
	// Roles without a policy resolve to a dealer-restricted scope.
	ResolveScope(ctx context.Context, actor warrantydomain.Actor) (warrantydomain.AccessScope, error)
	// Authorize fails with ErrForbidden unless the actor's role holds the capability.
	Authorize(ctx context.Context, actor warrantydomain.Actor, object, action string) error
}

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)
