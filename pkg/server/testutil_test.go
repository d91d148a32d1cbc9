package server

import (
	"errors"
	"net"
	"testing"
)

// assertErr is a generic sentinel used by tests that only care that a
// store call failed, not why.
var assertErr = errors.New("store: test failure")

// pipeServerWithStore wires a Server backed by st into one end of a
// net.Pipe, unauthenticated, and hands the caller the other end to act as
// a test client.
func pipeServerWithStore(t *testing.T, st Store) (*Server, net.Conn, int) {
	t.Helper()
	s := NewServer(DefaultConfig(), st)
	client, serverSide := net.Pipe()
	fd := int(s.nextFd.Add(1))
	s.handleNewConnection(fd, serverSide)
	t.Cleanup(func() { s.Stop() })
	return s, client, fd
}

// authenticatedPipeServer is pipeServerWithStore plus an immediate
// MarkAuthenticated, for handlers that sit behind dispatch's auth gate.
func authenticatedPipeServer(t *testing.T, fs *fakeStore, userID, username string) (*Server, net.Conn, int) {
	t.Helper()
	s, client, fd := pipeServerWithStore(t, fs)
	s.registry.MarkAuthenticated(fd, userID, username)
	return s, client, fd
}
