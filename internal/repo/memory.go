package repo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkordes/nexttrip/backend/internal/domain"
)

// MemoryRepo persists the travel memory timeline.
type MemoryRepo interface {
	// Load returns the timeline oldest first; empty when absent.
	Load(ctx context.Context) ([]domain.Memory, error)
	Save(ctx context.Context, memories []domain.Memory) error
}

type docMemoryRepo struct {
	doc document[[]domain.Memory]
}

// NewMemoryRepo constructs a MemoryRepo over the given store.
func NewMemoryRepo(store Store, log *slog.Logger) MemoryRepo {
	return &docMemoryRepo{doc: newDocument[[]domain.Memory](store, KeyMemories, log)}
}

func (r *docMemoryRepo) Load(ctx context.Context) ([]domain.Memory, error) {
	memories, _, err := r.doc.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.MemoryRepo.Load: %w", err)
	}
	if memories == nil {
		memories = []domain.Memory{}
	}
	return memories, nil
}

func (r *docMemoryRepo) Save(ctx context.Context, memories []domain.Memory) error {
	if memories == nil {
		memories = []domain.Memory{}
	}
	if err := r.doc.save(ctx, memories); err != nil {
		return fmt.Errorf("repo.MemoryRepo.Save: %w", err)
	}
	return nil
}
