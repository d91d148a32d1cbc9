package server

import (
	"encoding/json"

	"github.com/aeolun/im-server/pkg/protocol"
)

type onlineUser struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Online   bool   `json:"online"`
}

type userListResponse struct {
	Users []onlineUser `json:"users"`
}

// handleUserList responds with every currently authenticated connection,
// enriched with a nickname looked up from the store, matching
// UserHandler::handleUserList's nickname-map fallback (fall back to the
// username itself if no nickname is on file).
func (s *Server) handleUserList(fd int, _ []byte) {
	refs := s.registry.SnapshotOnlineUsers()
	users := make([]onlineUser, 0, len(refs))
	for _, r := range refs {
		nickname := r.Username
		if err := s.store.EnsureConnected(); err == nil {
			if n, err := s.store.UserByID(r.UserID); err == nil && n != "" {
				nickname = n
			}
		}
		users = append(users, onlineUser{
			UserID:   r.UserID,
			Username: r.Username,
			Nickname: nickname,
			Online:   true,
		})
	}
	body, _ := json.Marshal(userListResponse{Users: users})
	s.SendToFd(fd, protocol.UserListResponse, body)
}
