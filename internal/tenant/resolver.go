// Package tenant resolves the choir and role that scope every request.
package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"choir-dashboard/internal/logger"
	"choir-dashboard/internal/model"
)

// Scope is the resolved identity every core operation runs under.
type Scope struct {
	MemberID uuid.UUID
	ChoirID  uuid.UUID
	Role     model.Role
}

func (s Scope) IsAdmin() bool { return s.Role == model.RoleAdmin }

type MemberStore interface {
	GetMember(ctx context.Context, id uuid.UUID) (*model.Member, error)
}

type Resolver struct {
	members MemberStore
	log     *zap.Logger
}

func NewResolver(members MemberStore, log *zap.Logger) *Resolver {
	return &Resolver{members: members, log: logger.OrNop(log).Named("tenant")}
}

// Resolve looks up the principal's membership. A store failure is returned
// as is; no default scope is ever produced.
func (r *Resolver) Resolve(ctx context.Context, principalID uuid.UUID) (Scope, error) {
	m, err := r.members.GetMember(ctx, principalID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			r.log.Error("scope lookup failed", zap.Stringer("principal", principalID), zap.Error(err))
		}
		return Scope{}, fmt.Errorf("resolve principal %s: %w", principalID, err)
	}
	if !m.Onboarded() {
		return Scope{}, fmt.Errorf("resolve principal %s: %w", principalID, model.ErrNotOnboarded)
	}
	if !m.Role.Valid() {
		return Scope{}, fmt.Errorf("principal %s has role %d: %w", principalID, int(m.Role), model.ErrForbidden)
	}
	return Scope{MemberID: m.ID, ChoirID: *m.ChoirID, Role: m.Role}, nil
}

type scopeKey struct{}

func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

func FromContext(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(Scope)
	return s, ok
}
