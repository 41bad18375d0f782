// Package realtime follows the live delivery of an order over the backend's
// websocket.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-seller-client/internal/config"
	"github.com/jrsteele09/go-seller-client/sellermodel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EventJoinOrderRoom    = "join-order-room"
	EventDeliveryLocation = "order:delivery_location"

	maxFrameBytes = 1 << 20
)

var ErrGaveUp = errors.New("live tracking gave up")

// Frame is one message in either direction.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Handler func(data json.RawMessage)

// HeaderSource supplies the Authorization header for the handshake.
// *gateway.Gateway implements it.
type HeaderSource interface {
	AuthHeader() string
}

type Tracker struct {
	url      string
	orderID  sellermodel.ID
	headers  HeaderSource
	attempts int
	delay    time.Duration
	log      zerolog.Logger

	lock      sync.RWMutex
	handlers  map[string]map[string]Handler
	connected atomic.Bool
}

type Option func(*Tracker)

func WithURL(url string) Option {
	return func(t *Tracker) { t.url = url }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tracker) { t.log = logger }
}

// WithReconnect sets how many consecutive reconnects are tried and the wait
// before each.
func WithReconnect(attempts int, delay time.Duration) Option {
	return func(t *Tracker) {
		t.attempts = attempts
		t.delay = delay
	}
}

// NewTracker creates a tracker for orderID. An empty orderID connects without
// joining an order room. headers may be nil.
func NewTracker(cfg config.RealtimeConfig, orderID sellermodel.ID, headers HeaderSource, opts ...Option) *Tracker {
	t := &Tracker{
		url:      cfg.GetSocketURL(),
		orderID:  orderID,
		headers:  headers,
		attempts: cfg.GetReconnectAttempts(),
		delay:    cfg.GetReconnectDelay(),
		log:      log.Logger,
		handlers: make(map[string]map[string]Handler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Subscribe registers h for event and returns a function that removes it.
func (t *Tracker) Subscribe(event string, h Handler) func() {
	id := uuid.New().String()
	t.lock.Lock()
	if t.handlers[event] == nil {
		t.handlers[event] = make(map[string]Handler)
	}
	t.handlers[event][id] = h
	t.lock.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.lock.Lock()
			defer t.lock.Unlock()
			delete(t.handlers[event], id)
		})
	}
}

// OnDeliveryLocation calls fn with each rider position. Frames without both
// coordinates are dropped.
func (t *Tracker) OnDeliveryLocation(fn func(Location)) func() {
	return t.Subscribe(EventDeliveryLocation, func(data json.RawMessage) {
		var loc Location
		if err := json.Unmarshal(data, &loc); err != nil {
			t.log.Debug().Err(err).Msg("Bad delivery location frame")
			return
		}
		if loc.Lat == 0 || loc.Lng == 0 {
			return
		}
		fn(loc)
	})
}

func (t *Tracker) Connected() bool {
	return t.connected.Load()
}

// Run connects and dispatches frames until ctx is done. A dropped connection
// is retried up to the configured number of consecutive attempts; a
// connection that got established resets the count. Run returns nil when ctx
// ends it and an ErrGaveUp error when the attempts run out.
func (t *Tracker) Run(ctx context.Context) error {
	reconnects := 0
	for {
		established, err := t.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if established {
			reconnects = 0
		}
		if reconnects >= t.attempts {
			return fmt.Errorf("%w after %d reconnect attempts: %w", ErrGaveUp, reconnects, err)
		}
		reconnects++
		t.log.Warn().Err(err).Int("attempt", reconnects).Dur("delay", t.delay).Msg("Disconnected from tracking server")

		timer := time.NewTimer(t.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// session runs one connection. established reports whether the handshake
// succeeded.
func (t *Tracker) session(ctx context.Context) (established bool, err error) {
	header := http.Header{}
	if t.headers != nil {
		if auth := t.headers.AuthHeader(); auth != "" {
			header.Set("Authorization", auth)
		}
	}

	conn, resp, err := websocket.Dial(ctx, t.url, &websocket.DialOptions{HTTPHeader: header})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return false, err
	}
	defer func() { _ = conn.CloseNow() }()
	conn.SetReadLimit(maxFrameBytes)

	t.connected.Store(true)
	defer t.connected.Store(false)
	t.log.Info().Str("order", t.orderID.String()).Msg("Connected to live tracking")

	if t.orderID != "" {
		if err := t.join(ctx, conn); err != nil {
			return true, err
		}
	}

	for {
		var f Frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			return true, err
		}
		t.dispatch(f)
	}
}

func (t *Tracker) join(ctx context.Context, conn *websocket.Conn) error {
	var orderID any = t.orderID.String()
	if n, err := strconv.ParseInt(t.orderID.String(), 10, 64); err == nil {
		orderID = n
	}
	data, err := json.Marshal(map[string]any{"orderId": orderID})
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, conn, Frame{Event: EventJoinOrderRoom, Data: data})
}

func (t *Tracker) dispatch(f Frame) {
	t.lock.RLock()
	handlers := make([]Handler, 0, len(t.handlers[f.Event]))
	for _, h := range t.handlers[f.Event] {
		handlers = append(handlers, h)
	}
	t.lock.RUnlock()

	for _, h := range handlers {
		h(f.Data)
	}
}
