package listapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
	apperrors "github.com/zatekoja/adminconsole/pkg/errors"
)

type row struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func serve(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Fetch(t *testing.T) {
	var gotQuery map[string][]string
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/lists/historico", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"1","status":"ATIVO"},{"id":"2","status":"SUSPENSO"}],
			"pagination":{"page":2,"pageSize":10,"total":25,"totalPages":3}}`))
	})

	client := NewClient[row](srv.URL+"/api/lists/", "historico", Options{})
	filter := entities.NewFilterState(10).
		WithFacet("status", entities.Set("ATIVO", "SUSPENSO")).
		WithFacet("actor", entities.Set("ana")).
		WithPage(2)

	page, err := client.Fetch(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, []row{{"1", "ATIVO"}, {"2", "SUSPENSO"}}, page.Items)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.Equal(t, entities.OriginServer, page.Pagination.Origin)

	assert.Equal(t, []string{"ATIVO,SUSPENSO"}, gotQuery["status"])
	assert.Equal(t, []string{"ana"}, gotQuery["actor"], "a one-element set is sent as a scalar")
	assert.Equal(t, []string{"2"}, gotQuery["page"])
	_, hasSearch := gotQuery["search"]
	assert.False(t, hasSearch, "empty values are omitted")
}

func TestClient_SynthesizesMissingPagination(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"1"},{"id":"2"},{"id":"3"}]}`))
	})

	page, err := NewClient[row](srv.URL, "historico", Options{}).Fetch(context.Background(), entities.NewFilterState(2))
	require.NoError(t, err)

	assert.Equal(t, entities.OriginSynthesized, page.Pagination.Origin)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Len(t, page.Items, 2)
}

func TestClient_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   apperrors.ErrorType
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, apperrors.ErrorTypeTransport},
		{"not found", http.StatusNotFound, ``, apperrors.ErrorTypeTransport},
		{"malformed json", http.StatusOK, `{"data":[`, apperrors.ErrorTypeTransport},
		{"missing data", http.StatusOK, `{"items":[]}`, apperrors.ErrorTypeShape},
		{"null data", http.StatusOK, `{"data":null}`, apperrors.ErrorTypeShape},
		{"data not a list", http.StatusOK, `{"data":{"id":"1"}}`, apperrors.ErrorTypeShape},
		{"bad pagination", http.StatusOK, `{"data":[],"pagination":"soon"}`, apperrors.ErrorTypeShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := NewClient[row](srv.URL, "historico", Options{}).Fetch(context.Background(), entities.NewFilterState(10))
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.want), "got %v", err)
		})
	}
}

func TestClient_StatusCodeIsKept(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := NewClient[row](srv.URL, "historico", Options{}).Fetch(context.Background(), entities.NewFilterState(10))
	appErr := apperrors.Classify(err)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.StatusCode)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	client := NewClient[row](srv.URL, "historico", Options{Timeout: 30 * time.Millisecond})
	_, err := client.Fetch(context.Background(), entities.NewFilterState(10))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTimeout), "got %v", err)
}

func TestClient_CallerCancelIsNotAFailure(t *testing.T) {
	release := make(chan struct{})
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewClient[row](srv.URL, "historico", Options{}).Fetch(ctx, entities.NewFilterState(10))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, apperrors.IsType(err, apperrors.ErrorTypeTransport))
}

func TestClient_SendsHeaders(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[]}`))
	})

	headers := http.Header{}
	headers.Set("Authorization", "Bearer token")
	_, err := NewClient[row](srv.URL, "historico", Options{Headers: headers}).Fetch(context.Background(), entities.NewFilterState(10))
	require.NoError(t, err)
}
