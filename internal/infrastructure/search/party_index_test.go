package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
)

func newTestIndex(t *testing.T, h http.HandlerFunc) *PartyIndex {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewPartyIndex(es, "parties", nil)
}

func TestIndexPartySendsDocument(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	p := &entity.Party{ID: "p-1", Kind: entity.PartyClient, Profile: entity.Profile{Name: "Ana"}, AccountStatus: entity.StatusActive}
	p.WorkflowStep = entity.StepAnalysis
	require.NoError(t, idx.IndexParty(context.Background(), p))

	assert.Equal(t, "/parties/_doc/p-1", gotPath)
	assert.Equal(t, "Ana", gotBody["name"])
	assert.Equal(t, "analysis", gotBody["workflow_step"])
	assert.Equal(t, entity.StepAnalysis.Label(), gotBody["workflow_step_label"])
}

func TestIndexPartyReportsErrorStatus(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad"}`))
	})
	err := idx.IndexParty(context.Background(), &entity.Party{ID: "p-1"})
	assert.Error(t, err)
}

func TestSearchPartiesReturnsSources(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.True(t, strings.Contains(string(b), `"multi_match"`))
		_, _ = w.Write([]byte(`{"hits":{"hits":[{"_id":"p-1","_source":{"id":"p-1","name":"Ana"}}]}}`))
	})

	hits, err := idx.SearchParties(context.Background(), "Ana", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Ana", hits[0]["name"])
}

func TestDisabledIndexIsNoop(t *testing.T) {
	var idx *PartyIndex
	assert.NoError(t, idx.IndexParty(context.Background(), &entity.Party{ID: "x"}))
	hits, err := NewPartyIndex(nil, "parties", nil).SearchParties(context.Background(), "x", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
