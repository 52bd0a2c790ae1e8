package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
	repo "github.com/oksasatya/party-lifecycle/internal/domain/repository"
)

// PartyService serves back-office reads: listings, single records and search.
type PartyService struct {
	Repo    repo.PartyRepository
	Indexer PartyIndexer
	Logger  *logrus.Logger
}

func NewPartyService(r repo.PartyRepository, indexer PartyIndexer, logger *logrus.Logger) *PartyService {
	return &PartyService{Repo: r, Indexer: indexer, Logger: logger}
}

func (s *PartyService) Get(ctx context.Context, id string) (*entity.Party, error) {
	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get party", err)
	}
	return p, nil
}

func (s *PartyService) List(ctx context.Context, f entity.PartyFilter) ([]entity.Party, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	items, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, storeErr("list parties", err)
	}
	return items, nil
}

// Search queries the index; without an indexer it returns an empty result.
func (s *PartyService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.Indexer == nil {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	out, err := s.Indexer.SearchParties(ctx, q, size)
	if err != nil {
		return nil, storeErr("search parties", err)
	}
	return out, nil
}

// Reindex pushes every party matching f to the search index.
func (s *PartyService) Reindex(ctx context.Context, f entity.PartyFilter) (int, error) {
	if s.Indexer == nil {
		return 0, nil
	}
	items, err := s.Repo.List(ctx, f)
	if err != nil {
		return 0, storeErr("list parties", err)
	}
	n := 0
	for i := range items {
		if err := s.Indexer.IndexParty(ctx, &items[i]); err != nil {
			loggerOr(s.Logger).WithError(err).WithField("party_id", items[i].ID).Warn("party index failed")
			continue
		}
		n++
	}
	return n, nil
}
