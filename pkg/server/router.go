package server

import (
	"github.com/aeolun/im-server/pkg/protocol"
)

// Router is the routing surface of *Server: send to one fd, send to one
// user, broadcast, and presence lookup. *Server implements it; the handlers
// in this package are *Server methods and reach the registry, the store and
// the error helpers directly rather than through this interface.
type Router interface {
	SendToFd(fd int, msgType protocol.MessageType, payload []byte)
	SendToUser(userID string, msgType protocol.MessageType, payload []byte) bool
	Broadcast(msgType protocol.MessageType, payload []byte, excludeFd int)
	IsOnline(userID string) bool
}

// SendToFd writes one frame to fd, closing and removing the connection on
// unrecoverable write failure. Callers never need to know whether the
// underlying write succeeded; failures are handled entirely at this layer,
// matching sendMessage's fire-and-forget usage throughout the original
// handlers.
func (s *Server) SendToFd(fd int, msgType protocol.MessageType, payload []byte) {
	s.connsMu.Lock()
	sc, ok := s.conns[fd]
	s.connsMu.Unlock()
	if !ok {
		return
	}

	frame := protocol.Encode(msgType, payload)
	if err := sc.Write(frame); err != nil {
		s.closeConnection(fd)
	}
}

// SendToUser resolves userID to its current fd and sends, returning
// whether a target was found online.
func (s *Server) SendToUser(userID string, msgType protocol.MessageType, payload []byte) bool {
	fd, ok := s.registry.FindFdByUser(userID)
	if !ok {
		return false
	}
	s.SendToFd(fd, msgType, payload)
	return true
}

// Broadcast sends payload to every authenticated connection except
// excludeFd (pass -1 to exclude none).
func (s *Server) Broadcast(msgType protocol.MessageType, payload []byte, excludeFd int) {
	for _, fd := range s.registry.SnapshotAuthenticatedFds(excludeFd) {
		s.SendToFd(fd, msgType, payload)
	}
}

// IsOnline reports whether userID currently has an authenticated
// connection.
func (s *Server) IsOnline(userID string) bool {
	return s.registry.IsOnline(userID)
}
