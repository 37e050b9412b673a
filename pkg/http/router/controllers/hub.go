package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/lintang-b-s/ecoflow/pkg/concurrent"
	"github.com/lintang-b-s/ecoflow/pkg/planner"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"go.uber.org/zap"
)

const (
	maxPendingEvents = 256
	scheduleTimeout  = 100 * time.Millisecond
	snapshotTimeout  = time.Second
)

type subscribeRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}

type User struct {
	io   sync.Mutex
	conn io.ReadWriteCloser

	id  uint
	hub *Hub

	// guarded by hub.mu
	sessionID string

	outMu    sync.Mutex
	outbox   []interface{}
	flushing bool
}

func (u *User) readRequest() (*subscribeRequest, error) {
	u.io.Lock()
	defer u.io.Unlock()

	h, r, err := wsutil.NextReader(u.conn, ws.StateServerSide)
	if err != nil {
		return nil, err
	}
	if h.OpCode.IsControl() {
		return nil, wsutil.ControlFrameHandler(u.conn, ws.StateServerSide)(h, r)
	}

	req := &subscribeRequest{}
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(req); err != nil {
		return nil, err
	}
	return req, nil
}

// Receive reads one client message and subscribes the user to the session it names.
func (u *User) Receive() error {
	req, err := u.readRequest()
	if err != nil {
		u.conn.Close()
		return err
	}
	if req == nil {
		return nil
	}

	if err := validateRequest(req); err != nil {
		return u.writeError("bad_param_input", messageOf(err))
	}

	s, err := u.hub.sessionManager().Get(req.SessionID)
	if err != nil {
		return u.writeError("not_found", messageOf(err))
	}
	u.hub.subscribe(u, req.SessionID)

	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return u.writeError("not_found", messageOf(err))
	}
	return u.write(envelope{"data": planner.Event{Type: planner.EventScene, SessionID: s.ID(), Payload: snap}})
}

func (u *User) writeError(code, message string) error {
	var resp errorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	return u.write(envelope{"error": resp.Error})
}

func (u *User) write(x interface{}) error {
	w := wsutil.NewWriter(u.conn, ws.StateServerSide, ws.OpText)
	encoder := json.NewEncoder(w)

	u.io.Lock()
	defer u.io.Unlock()

	if err := encoder.Encode(x); err != nil {
		return err
	}

	return w.Flush()
}

// enqueue appends ev to the outbox. It reports whether a flush has to be scheduled.
func (u *User) enqueue(ev interface{}) (schedule bool, dropped bool) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	if len(u.outbox) >= maxPendingEvents {
		return false, true
	}
	u.outbox = append(u.outbox, ev)
	if u.flushing {
		return false, false
	}
	u.flushing = true
	return true, false
}

// flush writes queued events in order until the outbox is empty.
func (u *User) flush() {
	for {
		u.outMu.Lock()
		if len(u.outbox) == 0 {
			u.flushing = false
			u.outMu.Unlock()
			return
		}
		batch := u.outbox
		u.outbox = nil
		u.outMu.Unlock()

		for _, ev := range batch {
			if err := u.write(ev); err != nil {
				u.hub.log.Warn("websocket write failed", zap.Uint("user", u.id), zap.Error(err))
				u.outMu.Lock()
				u.outbox = nil
				u.flushing = false
				u.outMu.Unlock()
				u.hub.Remove(u)
				return
			}
		}
	}
}

type Hub struct {
	mu       sync.RWMutex
	seq      uint
	us       []*User
	ns       map[uint]*User
	sessions SessionManager
	log      *zap.Logger

	pool *concurrent.Pool
}

func NewHub(pool *concurrent.Pool, sessions SessionManager, log *zap.Logger) *Hub {
	hub := &Hub{
		pool:     pool,
		ns:       make(map[uint]*User),
		us:       make([]*User, 0),
		sessions: sessions,
		log:      log,
	}

	return hub
}

// SetSessions is used when the session manager is created after the hub.
func (h *Hub) SetSessions(sessions SessionManager) {
	h.mu.Lock()
	h.sessions = sessions
	h.mu.Unlock()
}

func (h *Hub) sessionManager() SessionManager {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions
}

func (h *Hub) Register(conn net.Conn) *User {
	user := &User{
		hub:  h,
		conn: conn,
	}

	h.mu.Lock()
	user.id = h.seq
	h.ns[user.id] = user
	h.us = append(h.us, user)

	h.seq++
	h.mu.Unlock()

	return user
}

func (h *Hub) subscribe(user *User, sessionID string) {
	h.mu.Lock()
	user.sessionID = sessionID
	h.mu.Unlock()
	h.log.Debug("websocket user subscribed", zap.Uint("user", user.id), zap.String("session_id", sessionID))
}

func (h *Hub) Remove(user *User) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.ns[user.id]; !ok {
		return
	}
	delete(h.ns, user.id)

	i := sort.Search(len(h.us), func(i int) bool {
		return h.us[i].id >= user.id
	})

	newUs := make([]*User, len(h.us)-1)
	copy(newUs[:i], h.us[:i])
	copy(newUs[i:], h.us[i+1:])
	h.us = newUs
	user.conn.Close()
}

func (h *Hub) RemoveAllUser() {
	h.mu.RLock()
	users := append([]*User(nil), h.us...)
	h.mu.RUnlock()
	for _, user := range users {
		h.Remove(user)
	}
}

// Publish sends ev to every user subscribed to sessionID. It never blocks on a slow connection:
// events beyond the outbox capacity are dropped.
func (h *Hub) Publish(sessionID string, ev planner.Event) {
	h.mu.RLock()
	var targets []*User
	for _, u := range h.us {
		if u.sessionID == sessionID {
			targets = append(targets, u)
		}
	}
	h.mu.RUnlock()

	msg := envelope{"data": ev}
	for _, u := range targets {
		schedule, dropped := u.enqueue(msg)
		if dropped {
			h.log.Warn("dropping websocket event", zap.Uint("user", u.id), zap.String("type", string(ev.Type)))
			continue
		}
		if !schedule {
			continue
		}
		if err := h.pool.ScheduleTimeout(scheduleTimeout, u.flush); err != nil {
			h.log.Warn("failed to schedule websocket write", zap.Error(util.WrapErrorf(err,
				util.ErrInternalServerError, "user %d", u.id)))
			u.outMu.Lock()
			u.outbox = nil
			u.flushing = false
			u.outMu.Unlock()
		}
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.us)
}
