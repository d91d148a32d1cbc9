package server

import (
	"fmt"
	"net"
	"sync"
)

// safeConn serializes writes to a single net.Conn so that frames from
// concurrent senders (e.g. a direct message and a broadcast landing on the
// same fd at once) never interleave their bytes. Grounded on
// pkg/server/safe_conn.go's SafeConn.
type safeConn struct {
	conn net.Conn
	mu   sync.Mutex
}

func newSafeConn(conn net.Conn) *safeConn {
	return &safeConn{conn: conn}
}

// Write sends data in full, retrying exactly once on a short write before
// giving up.
func (sc *safeConn) Write(data []byte) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	n, err := sc.conn.Write(data)
	if err != nil {
		return err
	}
	if n == len(data) {
		return nil
	}

	// Short write: retry once with the remainder.
	remaining := data[n:]
	n2, err := sc.conn.Write(remaining)
	if err != nil {
		return err
	}
	if n2 != len(remaining) {
		return fmt.Errorf("server: short write persisted after retry: wrote %d of %d bytes", n+n2, len(data))
	}
	return nil
}

func (sc *safeConn) Close() error {
	return sc.conn.Close()
}
