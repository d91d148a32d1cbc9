// Package registry tracks live connections and their authentication state,
// grounded on pkg/server/session.go's SessionManager (adapted here from
// session-ID keys to socket fd/connection-ID keys) and on the C++
// original's EpollServer::clients_ map.
package registry

import (
	"net"
	"sync"
)

// Info is a point-in-time snapshot of a connection's state. It is returned
// by value so callers never hold a reference into the registry's internals.
type Info struct {
	Fd            int
	UserID        string
	Username      string
	Authenticated bool
}

// UserRef identifies an online user for USER_LIST_RESPONSE and similar
// snapshots.
type UserRef struct {
	UserID   string
	Username string
}

type connection struct {
	conn          net.Conn
	userID        string
	username      string
	authenticated bool
}

// Registry is a single mutex-guarded fd-to-connection table. Its own lock
// is never held while writing to a net.Conn: every snapshot-returning
// method collects the data it needs under the lock, releases it, and lets
// the caller perform I/O afterward.
type Registry struct {
	mu    sync.Mutex
	byFd  map[int]*connection
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{byFd: make(map[int]*connection)}
}

// Add registers a new, not-yet-authenticated connection under fd.
func (r *Registry) Add(fd int, conn net.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byFd[fd] = &connection{conn: conn}
}

// Remove deletes fd from the registry, returning whether it was present.
func (r *Registry) Remove(fd int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byFd[fd]; !ok {
		return false
	}
	delete(r.byFd, fd)
	return true
}

// Conn returns the underlying net.Conn for fd, if still registered.
func (r *Registry) Conn(fd int) (net.Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byFd[fd]
	if !ok {
		return nil, false
	}
	return c.conn, true
}

// MarkAuthenticated transitions fd into the authenticated state. If
// username is empty, it defaults to userID, matching
// EpollServer::setClientAuthenticated.
func (r *Registry) MarkAuthenticated(fd int, userID, username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byFd[fd]
	if !ok {
		return false
	}
	if username == "" {
		username = userID
	}
	c.authenticated = true
	c.userID = userID
	c.username = username
	return true
}

// GetInfo returns a snapshot of fd's state regardless of authentication
// status. Gating on Authenticated is the dispatcher's job, not the
// registry's.
func (r *Registry) GetInfo(fd int) (Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byFd[fd]
	if !ok {
		return Info{}, false
	}
	return Info{
		Fd:            fd,
		UserID:        c.userID,
		Username:      c.username,
		Authenticated: c.authenticated,
	}, true
}

// FindFdByUser linear-scans authenticated connections for userID, mirroring
// sendMessageToUser's inline lookup in the C++ original.
func (r *Registry) FindFdByUser(userID string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for fd, c := range r.byFd {
		if c.authenticated && c.userID == userID {
			return fd, true
		}
	}
	return 0, false
}

// SnapshotAuthenticatedFds returns every authenticated fd except exclude
// (pass -1 to exclude none). The result is a copy safe to iterate after the
// registry's lock has been released.
func (r *Registry) SnapshotAuthenticatedFds(exclude int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	fds := make([]int, 0, len(r.byFd))
	for fd, c := range r.byFd {
		if c.authenticated && fd != exclude {
			fds = append(fds, fd)
		}
	}
	return fds
}

// SnapshotOnlineUserIds returns the user IDs of every authenticated
// connection.
func (r *Registry) SnapshotOnlineUserIds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.byFd))
	for _, c := range r.byFd {
		if c.authenticated {
			ids = append(ids, c.userID)
		}
	}
	return ids
}

// SnapshotOnlineUsers returns user ID/username pairs for every
// authenticated connection.
func (r *Registry) SnapshotOnlineUsers() []UserRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]UserRef, 0, len(r.byFd))
	for _, c := range r.byFd {
		if c.authenticated {
			users = append(users, UserRef{UserID: c.userID, Username: c.username})
		}
	}
	return users
}

// IsOnline reports whether userID currently has an authenticated
// connection.
func (r *Registry) IsOnline(userID string) bool {
	_, ok := r.FindFdByUser(userID)
	return ok
}
