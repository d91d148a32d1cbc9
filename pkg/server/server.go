// Package server wires the protocol decoder, worker pool, connection
// registry, and MySQL store into a running TCP IM server. Grounded on
// pkg/server/server.go's overall wiring order (open store, init loggers,
// construct metrics, construct session/registry), adapted from a
// channel/thread pub-sub domain to friends/groups/direct messaging.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aeolun/im-server/pkg/metrics"
	"github.com/aeolun/im-server/pkg/pool"
	"github.com/aeolun/im-server/pkg/protocol"
	"github.com/aeolun/im-server/pkg/registry"
)

// Server owns the listener, dispatch pool, connection registry, and
// storage facade for one running instance.
type Server struct {
	cfg     Config
	store   Store
	metrics *metrics.Metrics
	pool    *pool.Pool

	registry *registry.Registry

	connsMu sync.Mutex
	conns   map[int]*safeConn

	dispatchMu    sync.Mutex
	dispatchLocks map[int]*sync.Mutex

	nextFd atomic.Int64

	listener net.Listener

	errorLog *log.Logger
	debugLog *log.Logger

	wg       sync.WaitGroup
	closeCh  chan struct{}
	closeOne sync.Once
}

// NewServer constructs a Server around an already-open store. It does not
// start listening; call Start for that. st only needs to satisfy Store, so
// tests can pass a fake in place of a live *store.Store.
func NewServer(cfg Config, st Store) *Server {
	s := &Server{
		cfg:           cfg,
		store:         st,
		metrics:       metrics.New(),
		pool:          pool.New(cfg.WorkerPoolSize),
		registry:      registry.New(),
		conns:         make(map[int]*safeConn),
		dispatchLocks: make(map[int]*sync.Mutex),
		closeCh:       make(chan struct{}),
	}
	s.initLoggers()
	return s
}

// dataDir returns ~/.local/share/im-server (or $XDG_DATA_HOME/im-server),
// creating it if necessary, matching pkg/server/server.go's getServerDataDir.
func dataDir() (string, error) {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("server: home directory: %w", err)
		}
		dir = filepath.Join(home, ".local", "share")
	}
	dir = filepath.Join(dir, "im-server")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("server: create data directory: %w", err)
	}
	return dir, nil
}

// initLoggers sets up a two-logger split: an always-on error log
// duplicated to stderr and a persistent errors.log (with a startup
// marker line to separate runs), and a debug log that discards output
// until EnableDebugLogging is called. If the data directory can't be
// created or opened, errors fall back to stderr-only rather than
// failing startup.
func (s *Server) initLoggers() {
	dir, err := dataDir()
	if err != nil {
		s.errorLog = log.New(os.Stderr, "[ERROR] ", log.LstdFlags)
		s.debugLog = log.New(io.Discard, "[DEBUG] ", log.LstdFlags)
		s.errorLog.Printf("falling back to stderr-only logging: %v", err)
		return
	}

	errorFile, err := os.OpenFile(filepath.Join(dir, "errors.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		s.errorLog = log.New(os.Stderr, "[ERROR] ", log.LstdFlags)
		s.debugLog = log.New(io.Discard, "[DEBUG] ", log.LstdFlags)
		s.errorLog.Printf("falling back to stderr-only logging: %v", err)
		return
	}
	fmt.Fprintf(errorFile, "=== server started at %s ===\n", time.Now().Format(time.RFC3339))

	s.errorLog = log.New(io.MultiWriter(os.Stderr, errorFile), "[ERROR] ", log.LstdFlags)
	s.debugLog = log.New(io.Discard, "[DEBUG] ", log.LstdFlags)

	// Redirect the standard log package (used by pkg/store's reconnect
	// logging) to stdout plus a truncated-on-startup server.log.
	if serverFile, err := os.OpenFile(filepath.Join(dir, "server.log"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666); err == nil {
		log.SetOutput(io.MultiWriter(os.Stdout, serverFile))
	}
}

// EnableDebugLogging redirects the debug logger to a debug.log file in the
// server's data directory, falling back to stderr if that file can't be
// opened.
func (s *Server) EnableDebugLogging() {
	dir, err := dataDir()
	if err != nil {
		s.debugLog.SetOutput(os.Stderr)
		return
	}
	debugFile, err := os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		s.debugLog.SetOutput(os.Stderr)
		return
	}
	s.debugLog.SetOutput(debugFile)
}

// Start opens the listener and blocks, accepting connections until the
// provided context is cancelled. Grounded on server.go's Start using a
// net.ListenConfig with SO_REUSEADDR, minus the SSH-specific listener
// branch which has no analog in this spec.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", ":"+strconv.Itoa(s.cfg.Port))
	if err != nil {
		return err
	}
	s.listener = ln

	s.wg.Add(1)
	go s.acceptLoop(ctx)

	<-ctx.Done()
	return s.Stop()
}

// Stop closes the listener, stops accepting new connections, drains the
// worker pool, and closes every open connection. Idempotent.
func (s *Server) Stop() error {
	var err error
	s.closeOne.Do(func() {
		close(s.closeCh)
		if s.listener != nil {
			err = s.listener.Close()
		}
		s.connsMu.Lock()
		fds := make([]int, 0, len(s.conns))
		for fd := range s.conns {
			fds = append(fds, fd)
		}
		s.connsMu.Unlock()
		for _, fd := range fds {
			s.closeConnection(fd)
		}
		s.pool.Stop()
		s.wg.Wait()
	})
	return err
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.errorLog.Printf("accept: %v", err)
			continue
		}
		fd := int(s.nextFd.Add(1))
		s.handleNewConnection(fd, conn)
	}
}

func (s *Server) handleNewConnection(fd int, conn net.Conn) {
	s.registry.Add(fd, conn)

	s.connsMu.Lock()
	s.conns[fd] = newSafeConn(conn)
	s.connsMu.Unlock()

	s.dispatchMu.Lock()
	s.dispatchLocks[fd] = &sync.Mutex{}
	s.dispatchMu.Unlock()

	s.metrics.RecordConnect()

	s.wg.Add(1)
	go s.readLoop(fd, conn)
}

// dispatchLockFor returns the per-connection mutex used to keep packets
// from the same fd from being dispatched concurrently by two different
// pool workers, even though they were submitted in wire order.
func (s *Server) dispatchLockFor(fd int) *sync.Mutex {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	return s.dispatchLocks[fd]
}

// readLoop performs blocking reads on one connection and submits each
// decoded packet to the worker pool for dispatch. Reads for a single fd
// happen serially on this one goroutine, so packets from the same
// connection are always submitted to the pool in the order they arrived
// on the wire.
func (s *Server) readLoop(fd int, conn net.Conn) {
	defer s.wg.Done()
	defer s.closeConnection(fd)

	dec := protocol.NewDecoderWithResyncLimit(s.cfg.ResyncMaxMismatches)
	buf := make([]byte, 64*1024)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			dec.Write(buf[:n])
			packets, decErr := dec.Decode()
			for _, pkt := range packets {
				pkt := pkt
				s.pool.Submit(func() {
					if lock := s.dispatchLockFor(fd); lock != nil {
						lock.Lock()
						defer lock.Unlock()
					}
					s.dispatch(fd, pkt)
				})
			}
			if decErr != nil {
				s.errorLog.Printf("fd=%d decode error: %v", fd, decErr)
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.debugLog.Printf("fd=%d read error: %v", fd, err)
			}
			return
		}
	}
}

func (s *Server) closeConnection(fd int) {
	s.connsMu.Lock()
	sc, ok := s.conns[fd]
	delete(s.conns, fd)
	s.connsMu.Unlock()

	s.dispatchMu.Lock()
	delete(s.dispatchLocks, fd)
	s.dispatchMu.Unlock()

	if !ok {
		return
	}
	sc.Close()
	s.registry.Remove(fd)
	s.metrics.RecordDisconnect()
}

// MetricsHandler exposes the /metrics endpoint for wiring into an
// http.ServeMux by the caller (e.g. cmd/im-server/main.go).
func (s *Server) MetricsHandler() http.Handler {
	return s.metrics.Handler()
}
