package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
)

// PartyIndex mirrors parties into Elasticsearch for back-office search.
// A nil client or an empty index name turns every call into a no-op.
type PartyIndex struct {
	ES      *elasticsearch.Client
	Index   string
	Logger  *logrus.Logger
	Timeout time.Duration
}

func NewPartyIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *PartyIndex {
	return &PartyIndex{ES: es, Index: index, Logger: logger, Timeout: 3 * time.Second}
}

func (x *PartyIndex) enabled() bool { return x != nil && x.ES != nil && x.Index != "" }

func partyDocument(p *entity.Party) map[string]any {
	return map[string]any{
		"id":                   p.ID,
		"kind":                 p.Kind,
		"name":                 p.Name,
		"tax_document":         p.TaxDocument,
		"email":                p.Email,
		"phone":                p.Phone,
		"city":                 p.Address.City,
		"workflow_step":        p.WorkflowStep,
		"workflow_step_label":  p.WorkflowStep.Label(),
		"account_status":       p.AccountStatus,
		"account_status_label": p.AccountStatus.Label(),
		"created_at":           p.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":           p.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func (x *PartyIndex) IndexParty(ctx context.Context, p *entity.Party) error {
	if !x.enabled() {
		return nil
	}
	b, err := json.Marshal(partyDocument(p))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.Index, DocumentID: p.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, x.Timeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		if x.Logger != nil {
			x.Logger.WithField("status", res.Status()).WithField("party_id", p.ID).Warn("es index response error")
		}
		return fmt.Errorf("es index: %s", res.Status())
	}
	return nil
}

// SearchParties runs a multi_match over name, tax document and email.
func (x *PartyIndex) SearchParties(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if !x.enabled() {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"name^2", "tax_document^3", "email"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, x.Timeout)
	defer cancel()

	res, err := x.ES.Search(x.ES.Search.WithContext(c), x.ES.Search.WithIndex(x.Index), x.ES.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
