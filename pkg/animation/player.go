// Package animation moves a vehicle marker along a computed route. Every method must run on the
// owning session's event loop.
package animation

import (
	"math"
	"time"

	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/eventloop"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"go.uber.org/zap"
)

const (
	DefaultSpeedMs = 50
	MinSpeedMs     = 10
	MaxSpeedMs     = 500

	fasterFactor = 0.7
	slowerFactor = 1.5

	startZoom = 14
)

type State uint8

const (
	IDLE State = iota
	PLAYING
	PAUSED
	STOPPED
)

func (s State) String() string {
	switch s {
	case PLAYING:
		return "playing"
	case PAUSED:
		return "paused"
	case STOPPED:
		return "stopped"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MarkerLayer is the part of the map widget the player drives.
type MarkerLayer interface {
	AddMarker(pos geo.Coordinate, label, popup string, draggable bool, icon string) da.MarkerID
	MoveMarker(id da.MarkerID, pos geo.Coordinate) bool
	RemoveMarker(id da.MarkerID) bool
	Contains(pos geo.Coordinate) bool
	PanTo(pos geo.Coordinate)
	SetView(center geo.Coordinate, zoom int)
	Zoom() int
}

type Position struct {
	Index    int            `json:"index"`
	Position geo.Coordinate `json:"position"`
	Bearing  float64        `json:"bearing"`
}

type Player struct {
	loop  *eventloop.Loop
	layer MarkerLayer
	log   *zap.Logger

	path    []geo.Coordinate
	icon    string
	index   int
	speedMs int
	state   State
	timer   *eventloop.Timer
	marker  da.MarkerID
	onStep  func(Position)
}

func NewPlayer(loop *eventloop.Loop, layer MarkerLayer, speedMs int, log *zap.Logger) *Player {
	if speedMs <= 0 {
		speedMs = DefaultSpeedMs
	}
	return &Player{
		loop:    loop,
		layer:   layer,
		log:     log,
		speedMs: util.Clamp(speedMs, MinSpeedMs, MaxSpeedMs),
	}
}

// OnStep registers a callback invoked after every tick.
func (p *Player) OnStep(fn func(Position)) {
	p.onStep = fn
}

// Load stops any running animation and replaces the path. The player is idle afterwards.
func (p *Player) Load(path []geo.Coordinate, icon string) {
	p.halt()
	p.path = append([]geo.Coordinate(nil), path...)
	p.icon = icon
	p.index = 0
	p.state = IDLE
}

// Clear stops the animation and forgets the path.
func (p *Player) Clear() {
	p.halt()
	p.path = nil
	p.index = 0
	p.state = IDLE
}

func (p *Player) HasPath() bool {
	return len(p.path) >= 2
}

// Animate starts the animation from the first point. While playing or paused it toggles instead.
func (p *Player) Animate() error {
	switch p.state {
	case PLAYING, PAUSED:
		p.Toggle()
		return nil
	}
	if !p.HasPath() {
		return util.NewErrorf(util.ErrBadParamInput, "no route to animate")
	}

	p.halt()
	p.index = 0
	start := p.path[0]
	p.marker = p.layer.AddMarker(start, "", "", false, p.icon)
	p.layer.SetView(start, max(p.layer.Zoom(), startZoom))
	p.state = PLAYING
	p.log.Debug("animation started", zap.Int("points", len(p.path)), zap.Int("speed_ms", p.speedMs))
	p.schedule()
	return nil
}

// Toggle switches between playing and paused. It reports whether the state changed.
func (p *Player) Toggle() bool {
	switch p.state {
	case PLAYING:
		p.cancelTimer()
		p.state = PAUSED
		return true
	case PAUSED:
		p.state = PLAYING
		p.schedule()
		return true
	default:
		return false
	}
}

// Stop cancels the pending tick and removes the animation marker.
func (p *Player) Stop() {
	p.halt()
	p.index = 0
	p.state = STOPPED
}

// SetSpeed sets the tick interval in ms, clamped to [MinSpeedMs, MaxSpeedMs]. The next scheduled tick
// keeps its old interval.
func (p *Player) SetSpeed(ms int) int {
	p.speedMs = util.Clamp(ms, MinSpeedMs, MaxSpeedMs)
	return p.speedMs
}

func (p *Player) Faster() int {
	return p.SetSpeed(int(math.Round(float64(p.speedMs) * fasterFactor)))
}

func (p *Player) Slower() int {
	return p.SetSpeed(int(math.Round(float64(p.speedMs) * slowerFactor)))
}

func (p *Player) State() State {
	return p.state
}

func (p *Player) Index() int {
	return p.index
}

func (p *Player) Speed() int {
	return p.speedMs
}

type Snapshot struct {
	State     State           `json:"state"`
	Playing   bool            `json:"playing"`
	Index     int             `json:"index"`
	SpeedMs   int             `json:"speed_ms"`
	NumPoints int             `json:"num_points"`
	Position  *geo.Coordinate `json:"position,omitempty"`
}

func (p *Player) Snapshot() Snapshot {
	s := Snapshot{
		State:     p.state,
		Playing:   p.state == PLAYING,
		Index:     p.index,
		SpeedMs:   p.speedMs,
		NumPoints: len(p.path),
	}
	if (p.state == PLAYING || p.state == PAUSED) && p.index < len(p.path) {
		pos := p.path[p.index]
		s.Position = &pos
	}
	return s
}

func (p *Player) schedule() {
	p.cancelTimer()
	p.timer = p.loop.AfterFunc(time.Duration(p.speedMs)*time.Millisecond, p.tick)
}

func (p *Player) tick() {
	p.timer = nil
	if p.state != PLAYING || len(p.path) == 0 {
		return
	}
	p.advance()
	p.schedule()
}

// advance moves the marker to the next path point, wrapping to the start after the last one.
func (p *Player) advance() {
	p.index = (p.index + 1) % len(p.path)
	pos := p.path[p.index]
	p.layer.MoveMarker(p.marker, pos)
	if !p.layer.Contains(pos) {
		p.layer.PanTo(pos)
	}
	if p.onStep != nil {
		next := p.path[(p.index+1)%len(p.path)]
		p.onStep(Position{
			Index:    p.index,
			Position: pos,
			Bearing:  geo.BearingTo(pos.Lat, pos.Lon, next.Lat, next.Lon),
		})
	}
}

func (p *Player) cancelTimer() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// halt cancels the timer and removes the marker without touching the path.
func (p *Player) halt() {
	p.cancelTimer()
	if p.marker != 0 {
		p.layer.RemoveMarker(p.marker)
		p.marker = 0
	}
}
