package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/swayctl/internal/dispatch"
	"github.com/danmuck/swayctl/internal/logging"
	"github.com/danmuck/swayctl/internal/observability"
	"github.com/danmuck/swayctl/internal/protocol"
	"github.com/danmuck/swayctl/internal/protocol/frame"
)

var (
	ErrClosed  = errors.New("ipc: connection closed")
	ErrNilConn = errors.New("ipc: nil connection")
)

const (
	DefaultCloseTimeout   = 5 * time.Second
	DefaultReadBufferSize = 32 * 1024
)

// Options configures a Conn.
type Options struct {
	// Events are subscribed to before any other message is exchanged.
	// Defaults to the window event.
	Events []protocol.EventType
	// Dispatcher receives decoded frames. A new one is created when nil.
	Dispatcher *dispatch.Dispatcher
	// CloseTimeout bounds how long Close waits for acknowledgements.
	CloseTimeout   time.Duration
	ReadBufferSize int
	Limits         frame.Limits
	Dial           DialConfig
}

func (o Options) withDefaults() Options {
	if len(o.Events) == 0 {
		o.Events = []protocol.EventType{protocol.EventWindow}
	}
	if o.Dispatcher == nil {
		o.Dispatcher = dispatch.New()
	}
	if o.CloseTimeout <= 0 {
		o.CloseTimeout = DefaultCloseTimeout
	}
	if o.ReadBufferSize <= 0 {
		o.ReadBufferSize = DefaultReadBufferSize
	}
	if o.Limits.MaxPayloadBytes == 0 {
		o.Limits = frame.DefaultLimits()
	}
	o.Dial = o.Dial.withDefaults()
	return o
}

// Conn is one live IPC socket. Frames are decoded and dispatched on a single
// reader goroutine in wire order; writes are serialized.
type Conn struct {
	conn net.Conn
	opts Options
	disp *dispatch.Dispatcher
	dec  *frame.Decoder

	writeMu   sync.Mutex
	closing   atomic.Bool
	closeOnce sync.Once
	closeErr  error
	readDone  chan struct{}
	done      chan struct{}

	obsMu       sync.Mutex
	closingFns  []func()
	closingAcks []func(done func())
	closedFns   []func()
	closedFired bool
}

// New takes ownership of conn, subscribes to opts.Events and starts reading.
func New(conn net.Conn, opts Options) (*Conn, error) {
	if conn == nil {
		return nil, ErrNilConn
	}
	opts = opts.withDefaults()
	c := &Conn{
		conn:     conn,
		opts:     opts,
		disp:     opts.Dispatcher,
		dec:      frame.NewDecoder(opts.Limits),
		readDone: make(chan struct{}),
		done:     make(chan struct{}),
	}
	if err := c.Subscribe(opts.Events...); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ipc: subscribe: %w", err)
	}
	go c.readLoop()
	return c, nil
}

// Dispatcher returns the registry this connection delivers events to.
func (c *Conn) Dispatcher() *dispatch.Dispatcher {
	return c.disp
}

// Subscribe asks the window manager to push the given events. The reply is
// logged and dropped by the dispatcher.
func (c *Conn) Subscribe(events ...protocol.EventType) error {
	names := protocol.EventNames(events)
	logging.Infof("ipc.Conn subscribe events=%v", names)
	return c.Send(protocol.Subscribe, names)
}

// Send writes one command frame.
func (c *Conn) Send(typ protocol.CommandType, payload any) error {
	msg, err := frame.Encode(uint16(typ), payload)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closing.Load() {
		return ErrClosed
	}
	if _, err := c.conn.Write(msg); err != nil {
		return fmt.Errorf("ipc: write %s: %w", typ, err)
	}
	return nil
}

func (c *Conn) readLoop() {
	defer close(c.readDone)
	buf := make([]byte, c.opts.ReadBufferSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.feed(buf[:n])
		}
		if err == nil {
			continue
		}
		if c.closing.Load() {
			return
		}
		if errors.Is(err, io.EOF) {
			logging.Infof("ipc.Conn peer closed socket")
		} else {
			logging.Warnf("ipc.Conn read failed err=%v", err)
		}
		// Close waits for this goroutine to exit.
		go func() { _ = c.Close() }()
		return
	}
}

func (c *Conn) feed(p []byte) {
	_, _ = c.dec.Write(p)
	logging.Tracef("ipc.Conn read bytes=%d buffered=%d", len(p), c.dec.Buffered())
	for {
		if c.closing.Load() {
			return
		}
		f, err := c.dec.Next()
		if errors.Is(err, frame.ErrIncomplete) {
			return
		}
		var invalid *frame.InvalidHeaderError
		if errors.As(err, &invalid) {
			logging.Warnf("ipc.Conn could not read header from message err=%v", err)
			observability.RecordHeaderError(invalid.Skipped)
			continue
		}
		if err != nil {
			logging.Errf("ipc.Conn decode failed err=%v", err)
			return
		}

		observability.RecordFrame(f.Header.IsEvent(), typeLabel(f.Header))
		if err := c.disp.Dispatch(f); err != nil {
			logging.Warnf("ipc.Conn dropping frame type=%d err=%v", f.Header.Type, err)
		}
	}
}

func typeLabel(h frame.Header) string {
	if h.IsEvent() {
		return protocol.EventType(h.Type).String()
	}
	return protocol.CommandType(h.Type).String()
}

// OnClosing registers fn to run when Close begins, after the socket is gone.
func (c *Conn) OnClosing(fn func()) {
	c.obsMu.Lock()
	if c.closing.Load() {
		c.obsMu.Unlock()
		fn()
		return
	}
	c.closingFns = append(c.closingFns, fn)
	c.obsMu.Unlock()
}

// OnClosingAck registers fn to run when Close begins; Close waits for fn to
// call done, up to the close timeout.
func (c *Conn) OnClosingAck(fn func(done func())) {
	c.obsMu.Lock()
	if c.closing.Load() {
		c.obsMu.Unlock()
		fn(func() {})
		return
	}
	c.closingAcks = append(c.closingAcks, fn)
	c.obsMu.Unlock()
}

// OnClosed registers fn to run once the connection is fully torn down.
func (c *Conn) OnClosed(fn func()) {
	c.obsMu.Lock()
	if c.closedFired {
		c.obsMu.Unlock()
		fn()
		return
	}
	c.closedFns = append(c.closedFns, fn)
	c.obsMu.Unlock()
}

// Done is closed after the closed observers have run.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the connection is closed or ctx is done.
func (c *Conn) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears the connection down. Only the first call does any work.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.shutdown()
	})
	return c.closeErr
}

func (c *Conn) shutdown() error {
	logging.Infof("ipc.Conn closing socket")

	c.obsMu.Lock()
	c.closing.Store(true)
	closing := c.closingFns
	acks := c.closingAcks
	c.obsMu.Unlock()

	err := c.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}

	for _, fn := range closing {
		fn()
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.CloseTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, fn := range acks {
		wg.Add(1)
		var once sync.Once
		go fn(func() { once.Do(wg.Done) })
	}
	acked := make(chan struct{})
	go func() {
		wg.Wait()
		close(acked)
	}()
	select {
	case <-acked:
	case <-ctx.Done():
		logging.Warnf("ipc.Conn close acknowledgements timed out after %s, forcing shutdown", c.opts.CloseTimeout)
	}

	select {
	case <-c.readDone:
	case <-ctx.Done():
		logging.Warnf("ipc.Conn read loop still busy after %s", c.opts.CloseTimeout)
	}

	c.obsMu.Lock()
	closed := c.closedFns
	c.closedFns = nil
	c.closedFired = true
	c.obsMu.Unlock()

	logging.Infof("ipc.Conn closed")
	for _, fn := range closed {
		fn()
	}
	close(c.done)
	return err
}
