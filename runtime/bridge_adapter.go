package runtime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	wrp "github.com/xmidt-org/wrp-go/v3"

	"github.com/stepherg/cellwatch"
	"github.com/stepherg/cellwatch/translate"
)

// BridgeCommander runs device commands remotely over a websocket channel to
// a companion gateway in front of the handset. Each command is framed as a
// WRP SimpleRequestResponse message (msgpack on the wire) carrying the JSON
// command envelope from translate; replies are matched by TransactionUUID.
//
// It does not implement automatic reconnect beyond a single retry in the
// read loop, nor backpressure: the watchdog issues a handful of calls per
// cycle and then exits.
type BridgeCommander struct {
	baseWS   string // websocket base URL (e.g. wss://gateway/bridge)
	auth     cellwatch.AuthStrategy
	deviceID string
	service  string
	source   string
	timeout  time.Duration
	log      logr.Logger

	dialer *websocket.Dialer
	connMu sync.RWMutex
	conn   *websocket.Conn

	pendingMu sync.Mutex
	pending   map[string]chan []byte

	closed chan struct{}
}

func NewBridgeCommander(cfg cellwatch.BridgeConfig, timeout time.Duration, log logr.Logger) *BridgeCommander {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BridgeCommander{
		baseWS:   cfg.URL,
		auth:     cfg.Auth,
		deviceID: cfg.DeviceID,
		service:  cfg.Service,
		source:   "dns:cellwatch",
		timeout:  timeout,
		log:      log,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		pending:  make(map[string]chan []byte),
		closed:   make(chan struct{}),
	}
}

func (b *BridgeCommander) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(b.baseWS)
	if err != nil {
		return nil, err
	}
	u.Path = fmt.Sprintf("%s/%s/%s", u.Path, b.deviceID, b.service)

	header := http.Header{}
	if b.auth != nil {
		if v, e := b.auth.AuthorizationValue(); e == nil && v != "" {
			header.Set("Authorization", v)
		}
	}
	conn, _, err := b.dialer.DialContext(ctx, u.String(), header)
	return conn, err
}

// Connect establishes the websocket and starts the read loop.
func (b *BridgeCommander) Connect(ctx context.Context) error {
	conn, err := b.dial(ctx)
	if err != nil {
		return err
	}
	b.connMu.Lock()
	b.conn = conn
	b.connMu.Unlock()
	go b.readLoop()
	return nil
}

// reconnect attempts a single reconnect using the same parameters.
func (b *BridgeCommander) reconnect(ctx context.Context) error {
	conn, err := b.dial(ctx)
	if err != nil {
		return err
	}
	b.connMu.Lock()
	if b.conn != nil {
		_ = b.conn.Close()
	}
	b.conn = conn
	b.connMu.Unlock()
	return nil
}

// Close terminates the connection and fails all pending calls.
func (b *BridgeCommander) Close() error {
	select {
	case <-b.closed:
		return nil
	default:
		close(b.closed)
	}
	b.connMu.Lock()
	c := b.conn
	b.conn = nil
	b.connMu.Unlock()
	if c != nil {
		_ = c.Close()
	}
	b.pendingMu.Lock()
	for id, ch := range b.pending {
		close(ch)
		delete(b.pending, id)
	}
	b.pendingMu.Unlock()
	return nil
}

// Run implements cellwatch.Commander over the bridge. A non-zero remote exit
// status surfaces as ErrCommandFailed with the captured stdout still
// returned, mirroring the local exec transport.
func (b *BridgeCommander) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	payload, err := translate.BuildCommand(name, args)
	if err != nil {
		return nil, err
	}

	tid := uuid.NewString()
	msg := wrp.Message{
		Type:            wrp.SimpleRequestResponseMessageType,
		Source:          b.source,
		Destination:     fmt.Sprintf("mac:%s/%s", b.deviceID, b.service),
		TransactionUUID: tid,
		ContentType:     "application/json",
		Payload:         payload,
	}
	var frame []byte
	if err := wrp.NewEncoderBytes(&frame, wrp.Msgpack).Encode(&msg); err != nil {
		return nil, err
	}

	ch := make(chan []byte, 1)
	b.pendingMu.Lock()
	b.pending[tid] = ch
	b.pendingMu.Unlock()

	b.connMu.RLock()
	c := b.conn
	b.connMu.RUnlock()
	if c == nil {
		b.dropPending(tid)
		return nil, cellwatch.ErrNotConnected
	}
	if err := c.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		b.dropPending(tid)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	select {
	case <-ctx.Done():
		b.dropPending(tid)
		return nil, fmt.Errorf("%w: %v", cellwatch.ErrTimeout, ctx.Err())
	case reply, ok := <-ch:
		if !ok {
			return nil, cellwatch.ErrClosed
		}
		res, err := translate.ParseCommandResult(reply)
		if err != nil {
			return nil, err
		}
		stdout := []byte(res.Stdout)
		if res.ExitCode != 0 {
			return stdout, fmt.Errorf("%w: %s exited %d (stderr: %s)", cellwatch.ErrCommandFailed, name, res.ExitCode, res.Stderr)
		}
		return stdout, nil
	}
}

func (b *BridgeCommander) dropPending(tid string) {
	b.pendingMu.Lock()
	delete(b.pending, tid)
	b.pendingMu.Unlock()
}

func (b *BridgeCommander) readLoop() {
	b.connMu.RLock()
	c := b.conn
	b.connMu.RUnlock()
	if c == nil {
		return
	}
	retried := false
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			select {
			case <-b.closed:
				return
			default:
			}
			if !retried {
				retried = true
				b.log.Info("bridge read error, retrying once", "error", err.Error())
				time.Sleep(300 * time.Millisecond)
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				recErr := b.reconnect(ctx)
				cancel()
				if recErr == nil {
					b.connMu.RLock()
					c = b.conn
					b.connMu.RUnlock()
					if c == nil {
						_ = b.Close()
						return
					}
					continue
				}
			}
			b.log.Info("bridge connection lost", "error", err.Error())
			_ = b.Close()
			return
		}

		var msg wrp.Message
		if err := wrp.NewDecoderBytes(data, wrp.Msgpack).Decode(&msg); err != nil {
			b.log.Info("bridge frame did not decode, dropping", "error", err.Error())
			continue
		}
		if msg.TransactionUUID == "" {
			continue
		}
		b.pendingMu.Lock()
		ch, found := b.pending[msg.TransactionUUID]
		if found {
			delete(b.pending, msg.TransactionUUID)
		}
		b.pendingMu.Unlock()
		if found {
			ch <- msg.Payload
			close(ch)
		}
	}
}
