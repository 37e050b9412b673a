// Package planner holds the route planner session: the waypoint list of one page together with the
// computed route, the map scene, the charts, the animation and the autocomplete fields. All session
// state is owned by a single event loop goroutine; exported methods hop onto it with loop.Do.
package planner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lintang-b-s/ecoflow/pkg/animation"
	"github.com/lintang-b-s/ecoflow/pkg/autocomplete"
	"github.com/lintang-b-s/ecoflow/pkg/chart"
	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/eventloop"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/lintang-b-s/ecoflow/pkg/mapview"
	"github.com/lintang-b-s/ecoflow/pkg/notice"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"go.uber.org/zap"
)

const (
	FieldOrigin      = "origin"
	FieldDestination = "destination"
)

type Router interface {
	ComputeRoute(ctx context.Context, points []geo.Coordinate, vc da.VehicleClass) (*da.Route, error)
}

type Geocoder interface {
	Search(ctx context.Context, query string) ([]da.Place, error)
}

type EventType string

const (
	EventScene    EventType = "scene"
	EventPosition EventType = "position"
	EventNotice   EventType = "notice"
)

type Event struct {
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	Payload   interface{} `json:"payload"`
}

type Session struct {
	id       string
	cfg      Config
	loop     *eventloop.Loop
	ctx      context.Context
	cancel   context.CancelFunc
	router   Router
	geocoder Geocoder
	log      *zap.Logger

	lastActive atomic.Int64
	closeOnce  sync.Once

	// owned by the loop
	waypoints     []*da.Waypoint
	vehicle       da.VehicleClass
	route         *da.Route
	routeSeq      uint64
	computing     bool
	cancelRoute   context.CancelFunc
	routeRequests uint64

	scene       *mapview.Scene
	charts      *chart.Registry
	player      *animation.Player
	notices     *notice.Board
	origin      *autocomplete.Field
	destination *autocomplete.Field

	listeners    map[uint64]func(Event)
	nextListener uint64
}

func NewSession(id string, cfg Config, router Router, geocoder Geocoder, log *zap.Logger) *Session {
	cfg = cfg.withDefaults()
	log = log.With(zap.String("session_id", id))
	ctx, cancel := context.WithCancel(context.Background())
	loop := eventloop.New(cfg.QueueSize, log).Start()

	s := &Session{
		id:        id,
		cfg:       cfg,
		loop:      loop,
		ctx:       ctx,
		cancel:    cancel,
		router:    router,
		geocoder:  geocoder,
		log:       log,
		vehicle:   cfg.Vehicle,
		scene:     mapview.NewScene(cfg.DefaultCenter, cfg.DefaultZoom),
		charts:    chart.NewRegistry(),
		listeners: make(map[uint64]func(Event)),
	}
	s.player = animation.NewPlayer(loop, s.scene, cfg.AnimationSpeedMs, log)
	s.player.OnStep(func(p animation.Position) {
		s.emit(EventPosition, p)
	})
	s.notices = notice.NewBoard(loop, cfg.NoticeTTL, log)
	s.notices.OnChange(func(active []notice.Notice) {
		s.emit(EventNotice, active)
	})

	opts := autocomplete.Options{Debounce: cfg.Debounce, Timeout: cfg.GeocodeTimeout}
	s.origin = autocomplete.NewField(ctx, FieldOrigin, loop, geocoder, opts, log)
	s.destination = autocomplete.NewField(ctx, FieldDestination, loop, geocoder, opts, log)
	for _, f := range []*autocomplete.Field{s.origin, s.destination} {
		f.OnError(func(err error) { s.notices.Report(err) })
		f.OnChange(func(autocomplete.State) { s.changed() })
	}

	s.touch()
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Config() Config {
	return s.cfg
}

// LastActive is the time of the last operation on the session.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// Close stops the session loop, cancelling in-flight requests and pending timers.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.loop.Do(ctx, func() {
			if s.cancelRoute != nil {
				s.cancelRoute()
				s.cancelRoute = nil
			}
			s.player.Stop()
			s.origin.Close()
			s.destination.Close()
			s.notices.Clear()
			s.listeners = make(map[uint64]func(Event))
		})
		s.cancel()
		s.loop.Close()
		s.log.Info("session closed")
	})
}

// Subscribe registers fn for the session events. fn runs on the session loop and must not block.
func (s *Session) Subscribe(ctx context.Context, fn func(Event)) (func(), error) {
	var id uint64
	if err := s.loop.Do(ctx, func() {
		s.nextListener++
		id = s.nextListener
		s.listeners[id] = fn
	}); err != nil {
		return nil, err
	}
	return func() {
		s.loop.Post(func() { delete(s.listeners, id) })
	}, nil
}

func (s *Session) emit(typ EventType, payload interface{}) {
	if len(s.listeners) == 0 {
		return
	}
	ev := Event{Type: typ, SessionID: s.id, Payload: payload}
	for _, fn := range s.listeners {
		fn(ev)
	}
}

// changed pushes a scene event after state changed outside a client request.
func (s *Session) changed() {
	if len(s.listeners) == 0 {
		return
	}
	s.emit(EventScene, s.snapshot())
}

// do runs fn on the loop.
func (s *Session) do(ctx context.Context, fn func()) error {
	s.touch()
	if err := s.loop.Do(ctx, fn); err != nil {
		if errors.Is(err, eventloop.ErrClosed) {
			return util.WrapErrorf(err, util.ErrNotFound, "session %s is closed", s.id)
		}
		return err
	}
	return nil
}

// mutate runs fn on the loop and returns the resulting snapshot.
func (s *Session) mutate(ctx context.Context, fn func() error) (Snapshot, error) {
	var (
		snap  Snapshot
		opErr error
	)
	err := s.do(ctx, func() {
		opErr = fn()
		snap = s.snapshot()
		s.emit(EventScene, snap)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, opErr
}

func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func() { snap = s.snapshot() })
	return snap, err
}

func (s *Session) field(name string) (*autocomplete.Field, error) {
	switch name {
	case FieldOrigin:
		return s.origin, nil
	case FieldDestination:
		return s.destination, nil
	default:
		return nil, util.NewErrorf(util.ErrBadParamInput, "unknown field %q", name)
	}
}
