package server

import (
	"encoding/json"

	"github.com/aeolun/im-server/pkg/protocol"
	"github.com/aeolun/im-server/pkg/store"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success  bool    `json:"success"`
	Message  string  `json:"message"`
	UserID   *string `json:"user_id"`
	Username *string `json:"username"`
}

// handleLogin verifies credentials against the store and, on success,
// marks the connection authenticated in the registry. A login failure
// sends a LOGIN_RESPONSE with success=false but leaves the connection
// open, matching login_handler.cpp's LoginHandler::handle (bad credentials
// never close the socket). Response bodies and literal Chinese messages
// are carried over unchanged from the original for wire compatibility.
func (s *Server) handleLogin(fd int, payload []byte) {
	var req loginRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(fd, 1010, "请求格式错误")
		return
	}
	if req.Username == "" || req.Password == "" {
		body, _ := json.Marshal(loginResponse{Success: false, Message: "用户名或密码不能为空"})
		s.SendToFd(fd, protocol.LoginResponse, body)
		return
	}

	if err := s.store.EnsureConnected(); err != nil {
		body, _ := json.Marshal(loginResponse{Success: false, Message: "服务器内部错误，请稍后重试"})
		s.SendToFd(fd, protocol.LoginResponse, body)
		return
	}

	userID, _, err := s.store.VerifyUser(req.Username, req.Password)
	if err != nil {
		body, _ := json.Marshal(loginResponse{Success: false, Message: "用户名或密码错误"})
		s.SendToFd(fd, protocol.LoginResponse, body)
		return
	}

	s.registry.MarkAuthenticated(fd, userID, req.Username)

	body, _ := json.Marshal(loginResponse{
		Success:  true,
		Message:  "登录成功",
		UserID:   &userID,
		Username: &req.Username,
	})
	s.SendToFd(fd, protocol.LoginResponse, body)
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type registerResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	UserID  *string `json:"user_id"`
}

// handleRegister creates a new account and, on success, immediately marks
// the connection authenticated under the new account — login_handler.cpp's
// LoginHandler::handleRegister calls setClientAuthenticated right after a
// successful insert ("自动登录"), so the client never needs a separate
// LOGIN_REQUEST after registering.
func (s *Server) handleRegister(fd int, payload []byte) {
	var req registerRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(fd, 1010, "请求格式错误")
		return
	}
	if req.Username == "" || req.Password == "" {
		body, _ := json.Marshal(registerResponse{Success: false, Message: "用户名或密码不能为空"})
		s.SendToFd(fd, protocol.RegisterResponse, body)
		return
	}
	nickname := req.Nickname
	if nickname == "" {
		nickname = req.Username
	}

	if err := s.store.EnsureConnected(); err != nil {
		body, _ := json.Marshal(registerResponse{Success: false, Message: "注册失败，请稍后重试"})
		s.SendToFd(fd, protocol.RegisterResponse, body)
		return
	}

	userID, err := s.store.RegisterUser(req.Username, req.Password, nickname)
	if err != nil {
		message := "注册失败，请稍后重试"
		if err == store.ErrUsernameTaken {
			message = "用户名已存在"
		}
		body, _ := json.Marshal(registerResponse{Success: false, Message: message})
		s.SendToFd(fd, protocol.RegisterResponse, body)
		return
	}

	s.registry.MarkAuthenticated(fd, userID, req.Username)

	body, _ := json.Marshal(registerResponse{Success: true, Message: "注册成功", UserID: &userID})
	s.SendToFd(fd, protocol.RegisterResponse, body)
}
