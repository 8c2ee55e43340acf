package services_test

import (
	"context"
	"errors"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/adminconsole/internal/adapters/events"
	"github.com/zatekoja/adminconsole/internal/application/services"
	"github.com/zatekoja/adminconsole/internal/domain/entities"
	"github.com/zatekoja/adminconsole/internal/domain/providers"
	"github.com/zatekoja/adminconsole/internal/query/cache"
)

// MockCacheProvider for testing
type MockCacheProvider struct {
	mu       sync.RWMutex
	data     map[string][]byte
	patterns []string
}

func NewMockCacheProvider() *MockCacheProvider {
	return &MockCacheProvider{data: make(map[string][]byte)}
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if val, ok := m.data[key]; ok {
		return val, nil
	}
	return nil, providers.ErrCacheMiss
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCacheProvider) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheProvider) DeletePattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, pattern)
	for key := range m.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.data, key)
		}
	}
	return nil
}

type failingBus struct {
	providers.EventBus
}

func (failingBus) Publish(ctx context.Context, channel string, event *entities.ListEvent) error {
	return errors.New("redis unavailable")
}

func warmService(t *testing.T, fetcher *MockFetcher) (*services.ListService[entities.AuditEntry], entities.FilterState) {
	t.Helper()
	resultCache, err := cache.New[entities.AuditEntry](cache.Options[entities.AuditEntry]{StaleTime: time.Hour})
	require.NoError(t, err)
	svc := services.NewListService[entities.AuditEntry](services.ListServiceConfig{ListID: "historico"}, fetcher, resultCache, nil)

	filter := entities.NewFilterState(10)
	fetcher.On("Fetch", mock.Anything, filter).Return(auditPage(filter, 1, "a"), nil)
	_, outcome, err := svc.GetPage(context.Background(), filter)
	require.NoError(t, err)
	require.Equal(t, cache.OutcomeMiss, outcome)
	return svc, filter
}

func TestCacheInvalidationService_EventMarksPagesStale(t *testing.T) {
	bus := events.NewLocalEventBus()
	defer bus.Close()

	svc, filter := warmService(t, new(MockFetcher))
	provider := NewMockCacheProvider()

	invalidation := services.NewCacheInvalidationService(provider, bus, "test")
	invalidation.Register(svc)
	require.NoError(t, invalidation.Start())
	defer invalidation.Stop()

	require.NoError(t, invalidation.Invalidate(context.Background(), "historico"))
	assert.Equal(t, []string{"list:historico:*"}, provider.patterns)

	require.Eventually(t, func() bool {
		_, outcome, err := svc.GetPage(context.Background(), filter)
		return err == nil && outcome == cache.OutcomeStale
	}, time.Second, 5*time.Millisecond)
}

func TestCacheInvalidationService_PublishFailureStillClearsLocally(t *testing.T) {
	svc, filter := warmService(t, new(MockFetcher))

	invalidation := services.NewCacheInvalidationService(nil, failingBus{}, "test")
	invalidation.Register(svc)

	err := invalidation.Invalidate(context.Background(), "historico")
	assert.Error(t, err)

	_, outcome, err := svc.GetPage(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, cache.OutcomeStale, outcome)
}

func TestCacheInvalidationService_UnknownListIsIgnored(t *testing.T) {
	bus := events.NewLocalEventBus()
	defer bus.Close()

	invalidation := services.NewCacheInvalidationService(nil, bus, "test")
	require.NoError(t, invalidation.Start())
	defer invalidation.Stop()

	assert.NoError(t, invalidation.Invalidate(context.Background(), "desconhecida"))
}

func TestCacheInvalidationService_StopWithoutStart(t *testing.T) {
	invalidation := services.NewCacheInvalidationService(nil, events.NewLocalEventBus(), "test")
	done := make(chan struct{})
	go func() {
		invalidation.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked")
	}
}
