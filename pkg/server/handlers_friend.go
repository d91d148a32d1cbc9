package server

import (
	"encoding/json"
	"time"

	"github.com/aeolun/im-server/pkg/protocol"
	"github.com/aeolun/im-server/pkg/store"
)

type friendApplyRequest struct {
	TargetUsername string `json:"target_username"`
	Greeting       string `json:"greeting"`
}

type friendApplyResponse struct {
	Success bool   `json:"success"`
	ApplyID string `json:"apply_id,omitempty"`
	Message string `json:"message,omitempty"`
}

type friendRef struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type friendApplyNotify struct {
	ApplyID   string    `json:"apply_id"`
	FromUser  friendRef `json:"from_user"`
	Greeting  string    `json:"greeting"`
	CreatedAt int64     `json:"created_at"`
}

// handleFriendApply mirrors friend_handler.cpp's FriendHandler::handleApply:
// resolves target_username to a user_id, rejects self/already-friend
// targets, inserts a pending friend_applies row, and — if the target is
// online — pushes a FRIEND_APPLY_NOTIFY carrying the applicant as a nested
// from_user object.
func (s *Server) handleFriendApply(fd int, payload []byte) {
	var req friendApplyRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendFailure(fd, protocol.FriendApplyResponse, 1010, "请求格式错误")
		return
	}
	if req.TargetUsername == "" {
		s.sendFailure(fd, protocol.FriendApplyResponse, 2001, "target_username 不能为空")
		return
	}
	info, ok := s.registry.GetInfo(fd)
	if !ok {
		return
	}

	if err := s.store.EnsureConnected(); err != nil {
		s.sendFailure(fd, protocol.FriendApplyResponse, 5000, "服务器数据库未连接")
		return
	}

	result, err := s.store.FriendApply(info.UserID, req.TargetUsername, req.Greeting)
	if err != nil {
		switch err {
		case store.ErrUserNotFound:
			s.sendFailure(fd, protocol.FriendApplyResponse, 2001, "目标用户名不存在")
		case store.ErrSelfTarget:
			s.sendFailure(fd, protocol.FriendApplyResponse, 2002, "不能添加自己为好友")
		case store.ErrAlreadyFriends:
			s.sendFailure(fd, protocol.FriendApplyResponse, 2003, "已经是好友")
		default:
			s.sendFailure(fd, protocol.FriendApplyResponse, 5002, "发送好友申请失败")
		}
		return
	}

	body, _ := json.Marshal(friendApplyResponse{Success: true, ApplyID: result.ApplyID, Message: "好友申请已发送"})
	s.SendToFd(fd, protocol.FriendApplyResponse, body)

	notify, _ := json.Marshal(friendApplyNotify{
		ApplyID:   result.ApplyID,
		FromUser:  friendRef{UserID: info.UserID, Username: info.Username},
		Greeting:  req.Greeting,
		CreatedAt: time.Now().Unix(),
	})
	s.SendToUser(result.TargetUserID, protocol.FriendApplyNotify, notify)
}

type friendHandleRequest struct {
	ApplyID string `json:"apply_id"`
	Action  string `json:"action"` // "accept" or "reject"
}

type friendHandleResponse struct {
	Success bool   `json:"success"`
	Action  string `json:"action"`
}

type friendHandleNotify struct {
	ApplyID string `json:"apply_id"`
	Result  string `json:"result"`
}

// handleFriendHandle mirrors FriendHandler::handleApplyAction: an
// "action" of anything other than "accept"/"ACCEPT" is treated as a
// rejection, matching the original's regex-and-string-compare parsing.
func (s *Server) handleFriendHandle(fd int, payload []byte) {
	var req friendHandleRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendFailure(fd, protocol.FriendHandleResponse, 1010, "请求格式错误")
		return
	}
	if req.ApplyID == "" || req.Action == "" {
		s.sendFailure(fd, protocol.FriendHandleResponse, 2003, "参数不完整")
		return
	}
	accept := req.Action == "accept" || req.Action == "ACCEPT"

	info, ok := s.registry.GetInfo(fd)
	if !ok {
		return
	}

	if err := s.store.EnsureConnected(); err != nil {
		s.sendFailure(fd, protocol.FriendHandleResponse, 5000, "服务器数据库未连接")
		return
	}

	fromUserID, err := s.store.FriendApplyAction(info.UserID, req.ApplyID, accept)
	if err != nil {
		switch err {
		case store.ErrApplyNotFound:
			s.sendFailure(fd, protocol.FriendHandleResponse, 2004, "好友申请不存在或无权限处理")
		case store.ErrApplyAlreadyHandled:
			s.sendFailure(fd, protocol.FriendHandleResponse, 2005, "该申请已处理")
		default:
			s.sendFailure(fd, protocol.FriendHandleResponse, 5004, "更新好友申请失败")
		}
		return
	}

	action := "reject"
	if accept {
		action = "accept"
	}

	body, _ := json.Marshal(friendHandleResponse{Success: true, Action: action})
	s.SendToFd(fd, protocol.FriendHandleResponse, body)

	notify, _ := json.Marshal(friendHandleNotify{ApplyID: req.ApplyID, Result: action})
	s.SendToUser(fromUserID, protocol.FriendHandleNotify, notify)
}

type friendListResponse struct {
	Success bool                `json:"success"`
	Friends []store.FriendEntry `json:"friends"`
}

func (s *Server) handleFriendList(fd int, _ []byte) {
	info, ok := s.registry.GetInfo(fd)
	if !ok {
		return
	}
	if err := s.store.EnsureConnected(); err != nil {
		s.sendFailure(fd, protocol.FriendListResponse, 5000, "服务器数据库未连接")
		return
	}
	friends, err := s.store.FriendList(info.UserID)
	if err != nil {
		s.sendFailure(fd, protocol.FriendListResponse, 5005, "查询好友列表失败")
		return
	}
	for i := range friends {
		friends[i].Online = s.registry.IsOnline(friends[i].UserID)
	}
	body, _ := json.Marshal(friendListResponse{Success: true, Friends: friends})
	s.SendToFd(fd, protocol.FriendListResponse, body)
}

type friendDeleteRequest struct {
	FriendUserID string `json:"friend_user_id"`
}

type friendDeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleFriendDelete(fd int, payload []byte) {
	var req friendDeleteRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendFailure(fd, protocol.FriendDeleteResponse, 1010, "请求格式错误")
		return
	}
	if req.FriendUserID == "" {
		s.sendFailure(fd, protocol.FriendDeleteResponse, 2006, "friend_user_id 不能为空")
		return
	}
	info, ok := s.registry.GetInfo(fd)
	if !ok {
		return
	}
	if err := s.store.EnsureConnected(); err != nil {
		s.sendFailure(fd, protocol.FriendDeleteResponse, 5000, "服务器数据库未连接")
		return
	}
	if err := s.store.FriendDelete(info.UserID, req.FriendUserID); err != nil {
		s.sendFailure(fd, protocol.FriendDeleteResponse, 5006, "删除好友失败")
		return
	}
	body, _ := json.Marshal(friendDeleteResponse{Success: true, Message: "已删除好友"})
	s.SendToFd(fd, protocol.FriendDeleteResponse, body)
}

type friendBlockRequest struct {
	TargetUserID string `json:"target_user_id"`
	Block        bool   `json:"block"`
}

type friendBlockResponse struct {
	Success bool `json:"success"`
	Block   bool `json:"block"`
}

func (s *Server) handleFriendBlock(fd int, payload []byte) {
	var req friendBlockRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendFailure(fd, protocol.FriendBlockResponse, 1010, "请求格式错误")
		return
	}
	if req.TargetUserID == "" {
		s.sendFailure(fd, protocol.FriendBlockResponse, 2007, "target_user_id 不能为空")
		return
	}
	info, ok := s.registry.GetInfo(fd)
	if !ok {
		return
	}
	if err := s.store.EnsureConnected(); err != nil {
		s.sendFailure(fd, protocol.FriendBlockResponse, 5000, "服务器数据库未连接")
		return
	}
	if err := s.store.FriendSetBlocked(info.UserID, req.TargetUserID, req.Block); err != nil {
		s.sendFailure(fd, protocol.FriendBlockResponse, 5007, "更新拉黑状态失败")
		return
	}
	body, _ := json.Marshal(friendBlockResponse{Success: true, Block: req.Block})
	s.SendToFd(fd, protocol.FriendBlockResponse, body)
}
