package stream

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/swarmsim/internal/sim"
	"github.com/san-kum/swarmsim/internal/tuning"
)

const (
	DefaultFPS        = 60
	DefaultMaxClients = 16
	sendQueue         = 2
	writeWait         = time.Second
)

var ErrFull = errors.New("stream: max clients reached")

type Option func(*Server)

func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

func WithFPS(fps int) Option { return func(s *Server) { s.fps = fps } }

func WithMaxClients(n int) Option { return func(s *Server) { s.maxClients = n } }

func WithObserver(o sim.Observer) Option {
	return func(s *Server) { s.observers = append(s.observers, o) }
}

// message is one encoded frame shared by every client it was queued to.
// The last client to finish with it returns the buffer to the pool.
type message struct {
	buf  []byte
	refs atomic.Int32
}

type client struct {
	conn *websocket.Conn
	send chan *message
}

// Server owns the frame loop for one engine. Clients only see frames; all
// stepping happens on the loop goroutine.
type Server struct {
	engine *sim.Engine
	tuner  *tuning.Tuner

	// attractor holds x in the high and y in the low 32 bits.
	attractor atomic.Uint64

	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*client]struct{}
	pool     sync.Pool

	fps        int
	maxClients int
	observers  []sim.Observer
	logger     *slog.Logger
	dropped    atomic.Uint64
}

func New(engine *sim.Engine, initial tuning.Tuning, opts ...Option) *Server {
	s := &Server{
		engine:     engine,
		tuner:      tuning.NewTuner(initial),
		clients:    make(map[*client]struct{}),
		fps:        DefaultFPS,
		maxClients: DefaultMaxClients,
		logger:     slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:    1024,
			WriteBufferSize:   1 << 16,
			EnableCompression: true,
			CheckOrigin:       func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	size := MessageSize(engine.Combiner())
	s.pool.New = func() any { return &message{buf: make([]byte, size)} }

	o := engine.Options()
	s.SetAttractor(float32(o.Width)/2, float32(o.Height)/2)
	return s
}

func (s *Server) SetAttractor(x, y float32) {
	s.attractor.Store(uint64(math.Float32bits(x))<<32 | uint64(math.Float32bits(y)))
}

func (s *Server) Attractor() (x, y float32) {
	v := s.attractor.Load()
	return math.Float32frombits(uint32(v >> 32)), math.Float32frombits(uint32(v))
}

func (s *Server) Tuning() tuning.Tuning { return s.tuner.Snapshot() }

func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Dropped counts frames not queued to a client because its queue was full.
func (s *Server) Dropped() uint64 { return s.dropped.Load() }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// ListenAndServe runs the frame loop and the HTTP server until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("stream listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return s.Loop(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		s.closeClients()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Loop steps the engine at the configured rate and broadcasts each frame.
func (s *Server) Loop(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(max(s.fps, 1)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := s.Tick(); err != nil {
			return err
		}
	}
}

// Tick runs one frame and queues it to every client.
func (s *Server) Tick() error {
	x, y := s.Attractor()
	f, stats, err := s.engine.Step(sim.Input{AttractorX: x, AttractorY: y, Tuning: s.tuner.Snapshot()})
	if err != nil {
		return err
	}
	for _, o := range s.observers {
		o.OnFrame(f, stats)
	}
	if stats.Skipped {
		return nil
	}
	if stats.Frame%uint64(max(s.fps, 1)*10) == 0 {
		s.logger.Debug("stream frame", "stats", stats, "clients", s.Clients(), "dropped", s.Dropped())
	}
	s.broadcast(stats.Frame)
	return nil
}

func (s *Server) broadcast(frame uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clients) == 0 {
		return
	}

	m := s.pool.Get().(*message)
	m.buf = Encode(m.buf, s.engine.Combiner(), frame)
	m.refs.Store(int32(len(s.clients)))

	for c := range s.clients {
		select {
		case c.send <- m:
		default:
			s.dropped.Add(1)
			s.release(m)
		}
	}
}

func (s *Server) release(m *message) {
	if m.refs.Add(-1) == 0 {
		s.pool.Put(m)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan *message, sendQueue)}
	if err := s.add(c); err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	s.logger.Info("client connected", "remote", r.RemoteAddr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writePump(c)
	}()
	s.readPump(c)

	s.remove(c)
	<-done
	conn.Close()
	s.logger.Info("client disconnected", "remote", r.RemoteAddr)
}

func (s *Server) add(c *client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clients) >= s.maxClients {
		return ErrFull
	}
	s.clients[c] = struct{}{}
	return nil
}

// remove unregisters c and closes its queue. Safe to call twice.
func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
}

func (s *Server) closeClients() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c.conn)
	}
	s.mu.Unlock()
	for _, conn := range conns {
		conn.Close()
	}
}

func (s *Server) writePump(c *client) {
	broken := false
	for m := range c.send {
		if !broken {
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, m.buf); err != nil {
				s.logger.Debug("write failed", "err", err)
				broken = true
				c.conn.Close()
			}
		}
		s.release(m)
	}
}

func (s *Server) readPump(c *client) {
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		switch mt {
		case websocket.BinaryMessage:
			x, y, err := ParseInput(data)
			if err != nil {
				s.logger.Debug("bad input", "err", err)
				continue
			}
			s.SetAttractor(x, y)
		case websocket.TextMessage:
			ev, err := ParseNudge(data)
			if err != nil {
				s.logger.Debug("bad nudge", "msg", string(data))
				continue
			}
			s.tuner.Apply(ev)
		}
	}
}
