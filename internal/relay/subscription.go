package relay

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	nostrlib "github.com/nbd-wtf/go-nostr"

	"nostr-card/internal/nostr"
)

// State is the lifecycle position of a single relay attempt.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateSubscribed
	StateResolved
	StateFailed
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateResolved || s == StateFailed || s == StateTimedOut
}

// closeGrace bounds how long we wait to send a close frame on teardown.
const closeGrace = 250 * time.Millisecond

// Subscription is a single-shot kind 0 query against one relay connection.
// It owns the deadline timer and the connection, and settles exactly once.
type Subscription struct {
	ID       string
	Pubkey   string
	Filter   nostrlib.Filter
	Deadline time.Time

	mu        sync.Mutex
	state     State
	conn      *websocket.Conn
	timer     *time.Timer
	stopWatch func() bool
	cancel    context.CancelFunc
	match     *Match
	err       error
}

func newSubscription(pubkey string, deadline time.Time) *Subscription {
	return &Subscription{
		ID:     uuid.NewString(),
		Pubkey: pubkey,
		Filter: nostrlib.Filter{
			Kinds:   []int{nostr.KindProfileMetadata},
			Authors: []string{pubkey},
		},
		Deadline: deadline,
	}
}

// start moves Idle -> Connecting, arms the deadline timer and ties the
// subscription to ctx. The returned context is cancelled on settle, which
// aborts an in-flight dial.
func (s *Subscription) start(ctx context.Context) context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	attemptCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = StateConnecting
	s.timer = time.AfterFunc(time.Until(s.Deadline), func() {
		s.settle(StateTimedOut, nil, ErrTimeout)
	})
	s.stopWatch = context.AfterFunc(ctx, func() {
		s.settle(StateFailed, nil, context.Cause(ctx))
	})
	return attemptCtx
}

// attach hands the open connection to the subscription. It returns false when
// the subscription already settled; the caller then owns and closes conn.
func (s *Subscription) attach(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return false
	}
	s.conn = conn
	return true
}

func (s *Subscription) markSubscribed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateConnecting {
		s.state = StateSubscribed
	}
}

// settle performs the terminal transition. Only the first call wins; it stops
// the timer, detaches from the caller context and closes the connection.
func (s *Subscription) settle(state State, m *Match, err error) bool {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return false
	}
	s.state, s.match, s.err = state, m, err
	conn, timer, stopWatch, cancel := s.conn, s.timer, s.stopWatch, s.cancel
	s.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if stopWatch != nil {
		stopWatch()
	}
	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeGrace))
		_ = conn.Close()
	}
	return true
}

// Outcome returns the current state and, once terminal, the result.
func (s *Subscription) Outcome() (State, *Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.match, s.err
}
