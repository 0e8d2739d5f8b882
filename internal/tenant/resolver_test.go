package tenant

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"choir-dashboard/internal/model"
)

type fakeMembers struct {
	members map[uuid.UUID]*model.Member
	err     error
}

func (f *fakeMembers) GetMember(_ context.Context, id uuid.UUID) (*model.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.members[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return m, nil
}

func TestResolve(t *testing.T) {
	choir := uuid.New()
	admin := &model.Member{ID: uuid.New(), Role: model.RoleAdmin, ChoirID: &choir}
	newcomer := &model.Member{ID: uuid.New(), Role: model.RoleMember}
	store := &fakeMembers{members: map[uuid.UUID]*model.Member{admin.ID: admin, newcomer.ID: newcomer}}
	r := NewResolver(store, nil)

	scope, err := r.Resolve(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, Scope{MemberID: admin.ID, ChoirID: choir, Role: model.RoleAdmin}, scope)
	assert.True(t, scope.IsAdmin())

	_, err = r.Resolve(context.Background(), newcomer.ID)
	assert.ErrorIs(t, err, model.ErrNotOnboarded)

	_, err = r.Resolve(context.Background(), uuid.New())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestResolveSurfacesLookupFailure(t *testing.T) {
	store := &fakeMembers{err: fmt.Errorf("get member: %w", model.ErrUnreachable)}
	scope, err := NewResolver(store, nil).Resolve(context.Background(), uuid.New())
	assert.ErrorIs(t, err, model.ErrUnreachable)
	assert.Equal(t, Scope{}, scope)
}

func TestScopeContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	want := Scope{MemberID: uuid.New(), ChoirID: uuid.New(), Role: model.RoleMember}
	got, ok := FromContext(WithScope(context.Background(), want))
	require.True(t, ok)
	assert.Equal(t, want, got)
}
