package planner

import (
	"context"
	"strings"

	"github.com/lintang-b-s/ecoflow/pkg/autocomplete"
	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"golang.org/x/sync/errgroup"
)

// Input feeds text typed into the origin or destination field.
func (s *Session) Input(ctx context.Context, field, text string) (Snapshot, error) {
	f, err := s.field(field)
	if err != nil {
		return Snapshot{}, err
	}
	return s.mutate(ctx, func() error {
		f.Input(text)
		return nil
	})
}

// Select picks suggestion index of a field.
func (s *Session) Select(ctx context.Context, field string, index int) (Snapshot, bool, error) {
	f, err := s.field(field)
	if err != nil {
		return Snapshot{}, false, err
	}
	var ok bool
	snap, err := s.mutate(ctx, func() error {
		_, ok = f.Select(index)
		return nil
	})
	return snap, ok, err
}

type fieldQuery struct {
	name  string
	text  string
	place *da.Place
}

// RouteFromFields resolves both fields and routes between them. A field with a selected suggestion
// uses its cached coordinate; otherwise its text is geocoded and the best match taken.
func (s *Session) RouteFromFields(ctx context.Context) (Snapshot, error) {
	var queries [2]fieldQuery
	err := s.do(ctx, func() {
		for i, f := range []*autocomplete.Field{s.origin, s.destination} {
			queries[i].name = f.Name()
			if p, ok := f.Selected(); ok {
				queries[i].place = &p
				continue
			}
			queries[i].text = strings.TrimSpace(f.Text())
		}
	})
	if err != nil {
		return Snapshot{}, err
	}

	for _, q := range queries {
		if q.place == nil && q.text == "" {
			return Snapshot{}, util.NewErrorf(util.ErrBadParamInput, "%s is required", q.name)
		}
	}

	var places [2]da.Place
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		if q.place != nil {
			places[i] = *q.place
			continue
		}
		i, q := i, q
		g.Go(func() error {
			found, err := s.geocoder.Search(gctx, q.text)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				return util.NewErrorf(util.ErrGeocodeUnavailable, "no places found for %q", q.text)
			}
			places[i] = found[0]
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		_ = s.do(ctx, func() { s.notices.Report(err) })
		return Snapshot{}, err
	}

	return s.mutate(ctx, func() error {
		s.origin.Fill(places[0])
		s.destination.Fill(places[1])
		s.replaceWaypoints(places[:])
		return nil
	})
}
