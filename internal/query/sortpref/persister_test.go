package sortpref

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/adminconsole/internal/adapters/preferences"
	"github.com/zatekoja/adminconsole/internal/domain/entities"
)

type MockSortStore struct {
	mock.Mock
}

func (m *MockSortStore) Load(ctx context.Context, listID string) (*entities.SortState, error) {
	args := m.Called(ctx, listID)
	if s := args.Get(0); s != nil {
		return s.(*entities.SortState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSortStore) Save(ctx context.Context, listID string, state entities.SortState) error {
	args := m.Called(ctx, listID, state)
	return args.Error(0)
}

func TestPersister_RoundTrip(t *testing.T) {
	p := NewPersister(preferences.NewMemorySortStore())
	ctx := context.Background()

	p.Save(ctx, "historicoList", entities.SortState{Direction: entities.SortDesc})

	got := p.Load(ctx, "historicoList")
	require.NotNil(t, got)
	assert.Equal(t, entities.SortDesc, got.Direction)

	assert.Nil(t, p.Load(ctx, "transacoesList"), "lists do not share preferences")
}

func TestPersister_SwallowsLoadErrors(t *testing.T) {
	store := new(MockSortStore)
	store.On("Load", mock.Anything, "historicoList").Return(nil, errors.New("corrupt json"))

	p := NewPersister(store)
	assert.Nil(t, p.Load(context.Background(), "historicoList"))
	store.AssertExpectations(t)
}

func TestPersister_SwallowsSaveErrors(t *testing.T) {
	store := new(MockSortStore)
	state := entities.SortState{Direction: entities.SortAsc}
	store.On("Save", mock.Anything, "historicoList", state).Return(errors.New("disk full"))

	p := NewPersister(store)
	assert.NotPanics(t, func() { p.Save(context.Background(), "historicoList", state) })
	store.AssertExpectations(t)
}

func TestPersister_IgnoresInvalidDirection(t *testing.T) {
	store := new(MockSortStore)
	store.On("Load", mock.Anything, "historicoList").Return(&entities.SortState{Direction: "sideways"}, nil)

	assert.Nil(t, NewPersister(store).Load(context.Background(), "historicoList"))
}

func TestPersister_NilStore(t *testing.T) {
	p := NewPersister(nil)
	p.Save(context.Background(), "historicoList", entities.SortState{Direction: entities.SortDesc})
	assert.Nil(t, p.Load(context.Background(), "historicoList"))
}
