package server

import (
	"encoding/json"
	"time"

	"github.com/aeolun/im-server/pkg/protocol"
)

type sendMessageRequest struct {
	ConversationType string `json:"conversation_type"` // "single" or "group"
	ToUserID         string `json:"to_user_id"`
	GroupID          string `json:"group_id"`
	Content          string `json:"content"`
	MessageType      string `json:"message_type"`
}

type receiveMessagePayload struct {
	ConversationType string `json:"conversation_type"`
	FromUserID       string `json:"from_user_id"`
	FromUsername     string `json:"from_username"`
	Content          string `json:"content"`
	MessageType      string `json:"message_type"`
	Timestamp        int64  `json:"timestamp"`
	GroupID          string `json:"group_id,omitempty"`
	ToUserID         string `json:"to_user_id,omitempty"`
}

type targetErrorPayload struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	ToUserID     string `json:"to_user_id,omitempty"`
}

// handleSendMessage routes a SEND_MESSAGE either to one user, to "all"
// (broadcast excluding the sender), or to every member of a group —
// including the sender for group targets ("group echo") — matching
// message_handler.cpp's MessageHandler::handle and §7's error taxonomy
// (1002 empty content, 1003 empty target, 1004 target offline, 3002 empty
// group_id, 3100 not a group member).
func (s *Server) handleSendMessage(fd int, payload []byte) {
	var req sendMessageRequest
	if err := json.Unmarshal(payload, &req); err != nil || req.Content == "" {
		s.sendError(fd, 1002, "消息内容不能为空")
		return
	}

	info, ok := s.registry.GetInfo(fd)
	if !ok {
		s.sendError(fd, 1001, "请先登录")
		return
	}

	isGroup := req.ConversationType == "group"
	if isGroup && req.GroupID == "" {
		s.sendError(fd, 3002, "group_id 不能为空")
		return
	}

	messageType := req.MessageType
	if messageType == "" {
		messageType = "text"
	}

	notify := receiveMessagePayload{
		ConversationType: "single",
		FromUserID:       info.UserID,
		FromUsername:     info.Username,
		Content:          req.Content,
		MessageType:      messageType,
		Timestamp:        time.Now().Unix(),
	}

	if isGroup {
		notify.ConversationType = "group"
		notify.GroupID = req.GroupID

		if err := s.store.EnsureConnected(); err != nil {
			s.sendError(fd, 5000, "服务器数据库未连接")
			return
		}
		role, err := s.store.GroupMemberRole(req.GroupID, info.UserID)
		if err != nil {
			s.sendError(fd, 5001, "查询群成员失败")
			return
		}
		if role == "" {
			s.sendError(fd, 3100, "您不是该群成员，无法发送群消息")
			return
		}
		memberIDs, err := s.store.GroupMemberIDs(req.GroupID)
		if err != nil {
			s.sendError(fd, 5002, "查询群成员列表失败")
			return
		}

		body, _ := json.Marshal(notify)
		for _, memberID := range memberIDs {
			s.SendToUser(memberID, protocol.ReceiveMessage, body)
		}
		return
	}

	if req.ToUserID == "all" {
		body, _ := json.Marshal(notify)
		s.Broadcast(protocol.ReceiveMessage, body, fd)
		return
	}

	if req.ToUserID == "" {
		s.sendError(fd, 1003, "目标用户ID不能为空")
		return
	}

	notify.ToUserID = req.ToUserID
	body, _ := json.Marshal(notify)
	if !s.SendToUser(req.ToUserID, protocol.ReceiveMessage, body) {
		errBody, _ := json.Marshal(targetErrorPayload{
			ErrorCode:    1004,
			ErrorMessage: "目标用户不在线",
			ToUserID:     req.ToUserID,
		})
		s.SendToFd(fd, protocol.Error, errBody)
	}
}
