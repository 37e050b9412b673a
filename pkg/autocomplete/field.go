// Package autocomplete implements the debounced place search behind the origin and destination
// inputs. Every method must run on the owning session's event loop.
package autocomplete

import (
	"context"
	"strings"
	"time"

	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/eventloop"
	"go.uber.org/zap"
)

const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultTimeout  = 10 * time.Second

	MinQueryLength = 3
	MaxSuggestions = 5
)

type Geocoder interface {
	Search(ctx context.Context, query string) ([]da.Place, error)
}

type Options struct {
	Debounce time.Duration
	Timeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

type State struct {
	Name        string     `json:"name"`
	Text        string     `json:"text"`
	Suggestions []da.Place `json:"suggestions"`
	Visible     bool       `json:"visible"`
	Searching   bool       `json:"searching"`
	Selected    *da.Place  `json:"selected,omitempty"`
}

type Field struct {
	ctx      context.Context
	name     string
	loop     *eventloop.Loop
	geocoder Geocoder
	opts     Options
	log      *zap.Logger

	text        string
	suggestions []da.Place
	selected    *da.Place
	timer       *eventloop.Timer
	generation  uint64
	searching   bool

	onChange func(State)
	onError  func(error)
}

// NewField creates a field whose lookups are bound to ctx, usually the session context.
func NewField(ctx context.Context, name string, loop *eventloop.Loop, geocoder Geocoder, opts Options,
	log *zap.Logger) *Field {
	return &Field{
		ctx:      ctx,
		name:     name,
		loop:     loop,
		geocoder: geocoder,
		opts:     opts.withDefaults(),
		log:      log.With(zap.String("field", name)),
	}
}

func (f *Field) OnChange(fn func(State)) {
	f.onChange = fn
}

func (f *Field) OnError(fn func(error)) {
	f.onError = fn
}

// Input handles a text change. Text shorter than MinQueryLength hides the suggestions; anything longer
// schedules a lookup after the debounce delay. Each call invalidates lookups issued for older text.
func (f *Field) Input(text string) {
	if f.selected != nil && text == f.selected.Name() {
		f.text = text
		return
	}

	f.text = text
	f.selected = nil
	f.invalidate()

	query := strings.TrimSpace(text)
	if len([]rune(query)) < MinQueryLength {
		f.suggestions = nil
		f.changed()
		return
	}

	gen := f.generation
	f.timer = f.loop.AfterFunc(f.opts.Debounce, func() {
		f.timer = nil
		f.search(gen, query)
	})
	f.changed()
}

// Select picks suggestion i, fills the text with its name and caches its coordinate.
func (f *Field) Select(i int) (da.Place, bool) {
	if i < 0 || i >= len(f.suggestions) {
		return da.Place{}, false
	}
	place := f.suggestions[i]
	f.invalidate()
	f.text = place.Name()
	f.selected = &place
	f.suggestions = nil
	f.changed()
	return place, true
}

// Fill sets the field to an already resolved place.
func (f *Field) Fill(place da.Place) {
	f.invalidate()
	f.text = place.Name()
	f.selected = &place
	f.suggestions = nil
	f.changed()
}

func (f *Field) Selected() (da.Place, bool) {
	if f.selected == nil {
		return da.Place{}, false
	}
	return *f.selected, true
}

func (f *Field) Text() string {
	return f.text
}

func (f *Field) Name() string {
	return f.name
}

func (f *Field) Reset() {
	f.invalidate()
	f.text = ""
	f.selected = nil
	f.suggestions = nil
	f.changed()
}

// Close cancels the pending lookup. Responses still in flight are dropped.
func (f *Field) Close() {
	f.invalidate()
}

func (f *Field) State() State {
	s := State{
		Name:        f.name,
		Text:        f.text,
		Suggestions: append([]da.Place{}, f.suggestions...),
		Visible:     len(f.suggestions) > 0,
		Searching:   f.searching,
	}
	if f.selected != nil {
		sel := *f.selected
		s.Selected = &sel
	}
	return s
}

func (f *Field) invalidate() {
	f.generation++
	f.searching = false
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

func (f *Field) search(gen uint64, query string) {
	f.searching = true
	f.changed()

	go func() {
		ctx, cancel := context.WithTimeout(f.ctx, f.opts.Timeout)
		defer cancel()
		places, err := f.geocoder.Search(ctx, query)
		f.loop.Post(func() {
			f.deliver(gen, places, err)
		})
	}()
}

func (f *Field) deliver(gen uint64, places []da.Place, err error) {
	if gen != f.generation {
		f.log.Debug("dropping stale suggestions", zap.Uint64("generation", gen),
			zap.Uint64("current", f.generation))
		return
	}
	f.searching = false
	if err != nil {
		f.suggestions = nil
		f.log.Warn("autocomplete lookup failed", zap.Error(err))
		if f.onError != nil {
			f.onError(err)
		}
		f.changed()
		return
	}
	if len(places) > MaxSuggestions {
		places = places[:MaxSuggestions]
	}
	f.suggestions = places
	f.changed()
}

func (f *Field) changed() {
	if f.onChange != nil {
		f.onChange(f.State())
	}
}
