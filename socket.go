package pnwkit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// encodeFilters renders a subscription filter Object as a query string.
// Scalar values render directly; nested Objects expand recursively into
// parent[child]=value segments; Arrays comma-join their (recursively
// rendered) elements. Every key and scalar value is percent-encoded.
func encodeFilters(prefix string, o *Object) string {
	if o == nil {
		return ""
	}
	var parts []string
	o.Range(func(k string, v Value) bool {
		name := k
		if prefix != "" {
			name = prefix + "[" + k + "]"
		}
		if seg := encodeFilterValue(name, v); seg != "" {
			parts = append(parts, seg)
		}
		return true
	})
	return strings.Join(parts, "&")
}

func encodeFilterValue(name string, v Value) string {
	switch v.Kind() {
	case KindObject:
		obj, _ := v.AsObject()
		return encodeFilters(name, obj)
	case KindArray:
		arr, _ := v.AsArray()
		items := make([]string, 0, len(arr))
		for _, e := range arr {
			items = append(items, scalarQueryString(e))
		}
		return url.QueryEscape(name) + "=" + url.QueryEscape(strings.Join(items, ","))
	case KindNone, KindVariable:
		return ""
	default:
		return url.QueryEscape(name) + "=" + url.QueryEscape(scalarQueryString(v))
	}
}

func scalarQueryString(v Value) string {
	switch v.Kind() {
	case KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b)
	case KindInt:
		i, _ := v.AsInt()
		return strconv.FormatInt(i, 10)
	case KindFloat:
		f, _ := v.AsFloat()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case KindString:
		s, _ := v.AsString()
		return s
	default:
		return ""
	}
}

// subscribeRequester is the narrow slice of Kit a Socket needs to
// re-drive the subscribe handshake during reconnect, kept as an
// interface so socket.go never imports the facade and the two can be
// wired together after both are constructed.
type subscribeRequester interface {
	subscribeRequest(ctx context.Context, sub *Subscription) error
}

// Socket is the Pusher-compatible WebSocket engine described by §4.8: a
// single logical connection per Kit, a handshake state machine
// (connected/established), a subscription registry, and a self-healing
// ping-pong heartbeat.
type Socket struct {
	config *Config

	kitMu sync.Mutex
	kit   subscribeRequester

	connected   *Event
	established *Event

	socketIDMu sync.RWMutex
	socketID   string

	timeoutMu       sync.RWMutex
	activityTimeout uint64

	registry *SubscriptionRegistry

	connMu sync.Mutex
	conn   *websocket.Conn

	activityMu    sync.Mutex
	lastMessageAt uint64
	hasMessage    bool
	pinged        bool
	ponged        bool

	pingPongOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSocket builds a disconnected Socket wired to cfg's HTTP client,
// clock and sleeper.
func NewSocket(cfg *Config) *Socket {
	ctx, cancel := context.WithCancel(context.Background())
	return &Socket{
		config:          cfg,
		connected:       NewEvent(),
		established:     NewEvent(),
		activityTimeout: 120,
		registry:        NewSubscriptionRegistry(),
		ponged:          true,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// SetKit installs the facade this socket calls back into on reconnect.
// It is idempotent: the first caller wins, matching the once-only wiring
// a Kit performs on its first Subscribe call.
func (s *Socket) SetKit(k subscribeRequester) {
	s.kitMu.Lock()
	defer s.kitMu.Unlock()
	if s.kit == nil {
		s.kit = k
	}
}

// GetConnected returns the connected latch: set once a transport is
// open, cleared on disconnect.
func (s *Socket) GetConnected() *Event { return s.connected }

// GetEstablished returns the established latch: set once
// pusher:connection_established has been received.
func (s *Socket) GetEstablished() *Event { return s.established }

// GetSocketID returns the Pusher socket id assigned on connection
// establishment.
func (s *Socket) GetSocketID() string {
	s.socketIDMu.RLock()
	defer s.socketIDMu.RUnlock()
	return s.socketID
}

// AddSubscription registers sub under its current channel name.
func (s *Socket) AddSubscription(sub *Subscription) { s.registry.Add(sub) }

// RemoveSubscription unregisters sub.
func (s *Socket) RemoveSubscription(sub *Subscription) { s.registry.Remove(sub) }

// GetSubscription looks up the Subscription bound to channel.
func (s *Socket) GetSubscription(channel string) (*Subscription, bool) {
	return s.registry.Get(channel)
}

// Send writes a text frame. Writes are serialized: gorilla/websocket
// connections do not tolerate concurrent writers.
func (s *Socket) Send(data string) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("socket not connected")
	}
	return s.conn.WriteMessage(websocket.TextMessage, []byte(data))
}

// Connect opens the WebSocket transport and spawns the read loop. It
// sets connected before dialing so a concurrent caller observing
// connected does not race a still-in-flight dial; on dial failure it
// clears connected again.
func (s *Socket) Connect(ctx context.Context, url string) error {
	s.connected.Set()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		s.connected.Clear()
		return err
	}

	conn.SetPingHandler(func(string) error {
		s.connMu.Lock()
		defer s.connMu.Unlock()
		return conn.WriteMessage(websocket.PongMessage, nil)
	})

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	go s.readLoop(conn)
	return nil
}

// StartPingPong launches the heartbeat goroutine exactly once per
// Socket lifetime.
func (s *Socket) StartPingPong() {
	s.pingPongOnce.Do(func() {
		go s.pingPongLoop()
	})
}

// Close cancels the socket's background goroutines and closes the
// underlying connection, if any. It is the supplemental teardown path
// Kit.Close exposes for deterministic shutdown.
func (s *Socket) Close() {
	s.cancel()
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()
	s.connected.Clear()
	s.established.Clear()
}

func (s *Socket) touchActivity() {
	s.activityMu.Lock()
	s.lastMessageAt = s.config.Clock.Now()
	s.hasMessage = true
	s.activityMu.Unlock()
}

type pusherFrame struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

func (s *Socket) readLoop(conn *websocket.Conn) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			s.handleDisconnect(err)
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		s.touchActivity()
		s.handleText(data)
	}
}

func (s *Socket) handleText(raw []byte) {
	var frame pusherFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return
	}

	var dataVal Value
	if len(frame.Data) > 0 {
		_ = json.Unmarshal(frame.Data, &dataVal)
		dataVal = dataVal.StringToValue()
	}

	switch frame.Event {
	case "pusher:connection_established":
		obj, ok := dataVal.AsObject()
		if !ok {
			return
		}
		if idVal, ok := obj.Get("socket_id"); ok {
			if id, ok := idVal.AsString(); ok {
				s.socketIDMu.Lock()
				s.socketID = id
				s.socketIDMu.Unlock()
			}
		}
		if tVal, ok := obj.Get("activity_timeout"); ok {
			if t, ok := tVal.AsInt(); ok && t > 0 {
				s.timeoutMu.Lock()
				if uint64(t) < s.activityTimeout {
					s.activityTimeout = uint64(t)
				}
				s.timeoutMu.Unlock()
			}
		}
		s.established.Set()

	case "pusher_internal:subscription_succeeded":
		if sub, ok := s.registry.Get(frame.Channel); ok {
			sub.Succeeded.Set()
		}

	case "pusher:pong":
		s.activityMu.Lock()
		s.ponged = true
		s.pinged = false
		s.activityMu.Unlock()

	case "pusher:ping":
		_ = s.Send(`{"event":"pusher:pong","data":{}}`)

	default:
		sub, ok := s.registry.Get(frame.Channel)
		if !ok {
			return
		}
		if len(frame.Event) >= 5 && frame.Event[:5] == "BULK_" {
			items, _ := dataVal.AsArray()
			objs := make([]*Object, 0, len(items))
			for _, item := range items {
				if o, ok := item.AsObject(); ok {
					objs = append(objs, o)
				}
			}
			sub.Extend(objs)
		} else if o, ok := dataVal.AsObject(); ok {
			sub.Push(o)
		}
	}
}

func (s *Socket) handleDisconnect(err error) {
	s.established.Clear()
	s.connMu.Lock()
	s.conn = nil
	s.connMu.Unlock()
	s.connected.Clear()

	closeErr, ok := err.(*websocket.CloseError)
	if !ok {
		// No close frame at all: treated as fatal per §4.8.
		s.config.Logf("pnwkit: socket closed without a close frame: %s: %s", err, ErrTerminal)
		return
	}
	code := closeErr.Code
	switch {
	case code >= 4000 && code < 4100:
		s.config.Logf("pnwkit: socket closed with fatal code %d: %s", code, ErrTerminal)
		return
	case code >= 4100 && code < 4200:
		_ = s.config.Sleep.Sleep(s.ctx, 1)
		_ = s.Reconnect(s.ctx)
	default:
		_ = s.Reconnect(s.ctx)
	}
}

// Reconnect re-dials the socket URL and re-drives the subscribe
// handshake for every currently registered Subscription.
func (s *Socket) Reconnect(ctx context.Context) error {
	if err := s.Connect(ctx, s.config.SocketURL); err != nil {
		return err
	}
	s.activityMu.Lock()
	s.pinged = false
	s.ponged = true
	s.activityMu.Unlock()

	s.kitMu.Lock()
	kit := s.kit
	s.kitMu.Unlock()
	if kit == nil {
		return nil
	}

	for _, sub := range s.registry.All() {
		sub.Succeeded.Clear()
		if err := kit.subscribeRequest(ctx, sub); err != nil {
			return fmt.Errorf("resubscribe failed: %w", err)
		}
	}
	return nil
}

func (s *Socket) pingPongLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		s.activityMu.Lock()
		hasMessage := s.hasMessage
		lastMessageAt := s.lastMessageAt
		s.activityMu.Unlock()
		s.timeoutMu.RLock()
		timeout := s.activityTimeout
		s.timeoutMu.RUnlock()

		if !hasMessage {
			if s.sleepCtx(timeout) {
				return
			}
			continue
		}

		now := s.config.Clock.Now()
		if now-lastMessageAt >= timeout {
			s.activityMu.Lock()
			pinged := s.pinged
			s.activityMu.Unlock()
			if pinged {
				if s.sleepCtx(2) {
					return
				}
				continue
			}
			if err := s.Send(`{"event":"pusher:ping","data":{}}`); err != nil {
				if s.sleepCtx(2) {
					return
				}
				continue
			}
			s.activityMu.Lock()
			s.pinged = true
			s.ponged = false
			s.activityMu.Unlock()
			go s.callLaterPong()
		}
	}
}

func (s *Socket) callLaterPong() {
	if s.sleepCtx(30) {
		return
	}
	s.activityMu.Lock()
	ponged := s.ponged
	s.activityMu.Unlock()
	if ponged {
		return
	}
	s.established.Clear()
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()
	_ = s.Reconnect(s.ctx)
}

// sleepCtx sleeps for seconds via the configured Sleeper, reporting
// whether the socket's context was cancelled (and the loop should stop)
// rather than the sleep completing normally.
func (s *Socket) sleepCtx(seconds uint64) bool {
	return s.config.Sleep.Sleep(s.ctx, seconds) != nil
}
