package notice

import (
	"errors"
	"time"

	"github.com/lintang-b-s/ecoflow/pkg/eventloop"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"go.uber.org/zap"
)

const DefaultTTL = 5 * time.Second

type Kind string

const (
	KindError Kind = "error"
	KindInfo  Kind = "info"
)

type Notice struct {
	ID        uint64    `json:"id"`
	Kind      Kind      `json:"kind"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Board holds the transient notices of one session. Every method must run on the session loop.
type Board struct {
	loop     *eventloop.Loop
	ttl      time.Duration
	seq      uint64
	active   []Notice
	timers   map[uint64]*eventloop.Timer
	onChange func([]Notice)
	now      func() time.Time
	log      *zap.Logger
}

func NewBoard(loop *eventloop.Loop, ttl time.Duration, log *zap.Logger) *Board {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Board{
		loop:   loop,
		ttl:    ttl,
		timers: make(map[uint64]*eventloop.Timer),
		now:    time.Now,
		log:    log,
	}
}

func (b *Board) OnChange(fn func([]Notice)) {
	b.onChange = fn
}

func (b *Board) Post(kind Kind, code, message string) Notice {
	b.seq++
	now := b.now()
	n := Notice{
		ID:        b.seq,
		Kind:      kind,
		Code:      code,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(b.ttl),
	}
	b.active = append(b.active, n)
	id := n.ID
	b.timers[id] = b.loop.AfterFunc(b.ttl, func() {
		delete(b.timers, id)
		b.remove(id)
	})
	b.changed()
	return n
}

// Report turns a failure into an error notice.
func (b *Board) Report(err error) Notice {
	code := util.ErrorCode(err)
	b.log.Warn("reporting failure to user", zap.Error(err))
	return b.Post(KindError, CodeName(code), MessageFor(err))
}

func (b *Board) Dismiss(id uint64) bool {
	if tm, ok := b.timers[id]; ok {
		tm.Stop()
		delete(b.timers, id)
	}
	return b.remove(id)
}

func (b *Board) Clear() {
	for id, tm := range b.timers {
		tm.Stop()
		delete(b.timers, id)
	}
	if len(b.active) == 0 {
		return
	}
	b.active = nil
	b.changed()
}

func (b *Board) Active() []Notice {
	out := make([]Notice, len(b.active))
	copy(out, b.active)
	return out
}

func (b *Board) remove(id uint64) bool {
	for i, n := range b.active {
		if n.ID == id {
			b.active = append(b.active[:i], b.active[i+1:]...)
			b.changed()
			return true
		}
	}
	return false
}

func (b *Board) changed() {
	if b.onChange != nil {
		b.onChange(b.Active())
	}
}

func CodeName(code error) string {
	switch {
	case errors.Is(code, util.ErrBadParamInput):
		return "bad_param_input"
	case errors.Is(code, util.ErrNotFound):
		return "not_found"
	case errors.Is(code, util.ErrConflict):
		return "conflict"
	case errors.Is(code, util.ErrGeocodeUnavailable):
		return "geocode_unavailable"
	case errors.Is(code, util.ErrRouteUnavailable):
		return "route_unavailable"
	case errors.Is(code, util.ErrGeolocationDenied):
		return "geolocation_denied"
	case errors.Is(code, util.ErrGeolocationUnavailable):
		return "geolocation_unavailable"
	case errors.Is(code, util.ErrGeolocationTimeout):
		return "geolocation_timeout"
	default:
		return "internal"
	}
}

// MessageFor returns the user facing text for err.
func MessageFor(err error) string {
	switch {
	case errors.Is(err, util.ErrGeocodeUnavailable):
		return "Place search is unavailable right now. Please try again."
	case errors.Is(err, util.ErrRouteUnavailable):
		return "Could not calculate the route. Please try other points."
	case errors.Is(err, util.ErrGeolocationDenied):
		return "Location permission was denied."
	case errors.Is(err, util.ErrGeolocationUnavailable):
		return "Location information is unavailable."
	case errors.Is(err, util.ErrGeolocationTimeout):
		return "Timed out while getting the location."
	case errors.Is(err, util.ErrBadParamInput):
		var e *util.Error
		if errors.As(err, &e) {
			return e.Message()
		}
		return err.Error()
	default:
		return "Something went wrong. Please try again."
	}
}
