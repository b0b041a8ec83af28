package shop

import (
	"context"

	"assistant-workers/internal/common/logger"
	"assistant-workers/internal/models"
)

// Resolution tiers reported to the recorder.
const (
	TierExact     = "exact"
	TierSubstring = "substring"
	TierIndex     = "index"
	TierMiss      = "miss"
)

// ProductLookup is the database side of product resolution.
type ProductLookup interface {
	FindProductExact(ctx context.Context, term string) (*models.Product, error)
	FindProductSubstring(ctx context.Context, term string) (*models.Product, error)
	FindProductByID(ctx context.Context, id string) (*models.Product, error)
}

// ProductSearcher is the optional fuzzy tier.
type ProductSearcher interface {
	Search(ctx context.Context, term string) (*models.Product, error)
}

type ResolutionRecorder interface {
	RecordProductResolution(ctx context.Context, tier string)
}

type noopResolutionRecorder struct{}

func (noopResolutionRecorder) RecordProductResolution(context.Context, string) {}

// ProductFinder walks the lookup tiers in order: exact name, substring, then
// the search index when one is configured. An index failure degrades to a
// miss; database failures are returned.
type ProductFinder struct {
	db       ProductLookup
	index    ProductSearcher
	logger   logger.Logger
	recorder ResolutionRecorder
}

// NewProductFinder builds a finder; index may be nil.
func NewProductFinder(db ProductLookup, index ProductSearcher, log logger.Logger, rec ResolutionRecorder) *ProductFinder {
	if rec == nil {
		rec = noopResolutionRecorder{}
	}
	return &ProductFinder{db: db, index: index, logger: log, recorder: rec}
}

func (f *ProductFinder) FindProductByName(ctx context.Context, term string) (*models.Product, error) {
	p, err := f.db.FindProductExact(ctx, term)
	if err != nil {
		return nil, err
	}
	if p != nil {
		f.recorder.RecordProductResolution(ctx, TierExact)
		return p, nil
	}

	p, err = f.db.FindProductSubstring(ctx, term)
	if err != nil {
		return nil, err
	}
	if p != nil {
		f.recorder.RecordProductResolution(ctx, TierSubstring)
		return p, nil
	}

	if f.index != nil {
		p, err = f.index.Search(ctx, term)
		if err != nil {
			f.logger.Warn("product index lookup failed", map[string]interface{}{
				"term":  term,
				"error": err.Error(),
			})
		} else if p != nil {
			// Index documents can lag; price and stock come from the database.
			p, err = f.db.FindProductByID(ctx, p.ID)
			if err != nil {
				return nil, err
			}
			if p != nil {
				f.recorder.RecordProductResolution(ctx, TierIndex)
				return p, nil
			}
		}
	}

	f.recorder.RecordProductResolution(ctx, TierMiss)
	return nil, nil
}

// Store is the full data store: Repository queries with tiered product lookup.
type Store struct {
	*Repository
	finder *ProductFinder
}

func NewStore(repo *Repository, finder *ProductFinder) *Store {
	return &Store{Repository: repo, finder: finder}
}

func (s *Store) FindProductByName(ctx context.Context, term string) (*models.Product, error) {
	return s.finder.FindProductByName(ctx, term)
}
