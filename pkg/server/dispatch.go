package server

import (
	"encoding/json"
	"time"

	"github.com/aeolun/im-server/pkg/protocol"
)

// errorPayload is the wire shape of an ERROR response.
type errorPayload struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func (s *Server) sendError(fd int, code int, message string) {
	body, _ := json.Marshal(errorPayload{ErrorCode: code, ErrorMessage: message})
	s.SendToFd(fd, protocol.Error, body)
}

// failureResponse is the {"success":false,"error_code":...,"error_message":...}
// shape every friend/group handler sends on its own *_RESPONSE type, matching
// friend_handler.cpp/group_handler.cpp's sendMessage calls for every business
// failure (as opposed to MessageType::ERROR, which those handlers never use).
type failureResponse struct {
	Success      bool   `json:"success"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// sendFailure sends a business-logic failure on t, the same *_RESPONSE type
// the matching success path uses, instead of the generic protocol.Error
// packet. message_handler.cpp is the one handler that genuinely replies with
// MessageType::ERROR for its failures; everything else replies on its own
// response type.
func (s *Server) sendFailure(fd int, t protocol.MessageType, code int, message string) {
	body, _ := json.Marshal(failureResponse{ErrorCode: code, ErrorMessage: message})
	s.SendToFd(fd, t, body)
}

// requiresAuth reports whether t needs an authenticated connection. Only
// LOGIN_REQUEST, REGISTER_REQUEST and HEARTBEAT are reachable before login,
// mirroring the original dispatcher's whitelist.
func requiresAuth(t protocol.MessageType) bool {
	switch t {
	case protocol.LoginRequest, protocol.RegisterRequest, protocol.Heartbeat:
		return false
	default:
		return true
	}
}

// dispatch runs on a worker-pool goroutine for exactly one decoded packet.
// It gates on authentication state, then routes to the handler for the
// packet's message type. Grounded on the original's EpollServer::handleMessage
// switch, generalized from channel/thread types to the friends/groups/direct
// message domain this spec covers.
func (s *Server) dispatch(fd int, pkt protocol.Packet) {
	if requiresAuth(pkt.Type) {
		info, ok := s.registry.GetInfo(fd)
		if !ok || !info.Authenticated {
			s.sendError(fd, 1001, "请先登录")
			return
		}
	}

	switch pkt.Type {
	case protocol.LoginRequest:
		s.handleLogin(fd, pkt.Payload)
	case protocol.RegisterRequest:
		s.handleRegister(fd, pkt.Payload)
	case protocol.Logout:
		s.handleLogout(fd, pkt.Payload)
	case protocol.Heartbeat:
		s.handleHeartbeat(fd, pkt.Payload)

	case protocol.UserListRequest:
		s.handleUserList(fd, pkt.Payload)

	case protocol.SendMessage:
		s.handleSendMessage(fd, pkt.Payload)

	case protocol.FriendApplyRequest:
		s.handleFriendApply(fd, pkt.Payload)
	case protocol.FriendHandleRequest:
		s.handleFriendHandle(fd, pkt.Payload)
	case protocol.FriendListRequest:
		s.handleFriendList(fd, pkt.Payload)
	case protocol.FriendDeleteRequest:
		s.handleFriendDelete(fd, pkt.Payload)
	case protocol.FriendBlockRequest:
		s.handleFriendBlock(fd, pkt.Payload)

	case protocol.GroupCreateRequest:
		s.handleGroupCreate(fd, pkt.Payload)
	case protocol.GroupListRequest:
		s.handleGroupList(fd, pkt.Payload)
	case protocol.GroupMemberListRequest:
		s.handleGroupMemberList(fd, pkt.Payload)
	case protocol.GroupInviteRequest:
		s.handleGroupInvite(fd, pkt.Payload)
	case protocol.GroupKickRequest:
		s.handleGroupKick(fd, pkt.Payload)
	case protocol.GroupQuitRequest:
		s.handleGroupQuit(fd, pkt.Payload)
	case protocol.GroupDismissRequest:
		s.handleGroupDismiss(fd, pkt.Payload)
	case protocol.GroupUpdateInfoRequest:
		s.handleGroupUpdateInfo(fd, pkt.Payload)

	default:
		s.debugLog.Printf("fd=%d unknown message type 0x%04X", fd, uint16(pkt.Type))
	}
}

type heartbeatResponse struct {
	Timestamp int64 `json:"timestamp"`
}

func (s *Server) handleHeartbeat(fd int, _ []byte) {
	body, _ := json.Marshal(heartbeatResponse{Timestamp: time.Now().Unix()})
	s.SendToFd(fd, protocol.HeartbeatResponse, body)
}

func (s *Server) handleLogout(fd int, _ []byte) {
	s.closeConnection(fd)
}
