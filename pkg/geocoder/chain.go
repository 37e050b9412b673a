// Package geocoder turns free text into places, with Nominatim as the primary source and a local
// points of interest catalog as fallback.
package geocoder

import (
	"context"
	"errors"

	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"go.uber.org/zap"
)

type Searcher interface {
	Search(ctx context.Context, query string) ([]da.Place, error)
}

// Chain asks primary first and falls back to the catalog when primary is unavailable.
type Chain struct {
	primary  Searcher
	fallback Searcher
	log      *zap.Logger
}

func NewChain(primary, fallback Searcher, log *zap.Logger) *Chain {
	return &Chain{primary: primary, fallback: fallback, log: log}
}

func (c *Chain) Search(ctx context.Context, query string) ([]da.Place, error) {
	places, err := c.primary.Search(ctx, query)
	if err == nil {
		return places, nil
	}
	if c.fallback == nil || !errors.Is(err, util.ErrGeocodeUnavailable) {
		return nil, err
	}

	c.log.Info("primary geocoder unavailable, using catalog", zap.String("query", query), zap.Error(err))
	fallback, ferr := c.fallback.Search(ctx, query)
	if ferr != nil || len(fallback) == 0 {
		return nil, err
	}
	return fallback, nil
}
