package server

import (
	"encoding/json"

	"github.com/aeolun/im-server/pkg/protocol"
	"github.com/aeolun/im-server/pkg/store"
)

type groupCreateRequest struct {
	GroupName string   `json:"group_name"`
	AvatarURL string   `json:"avatar_url"`
	MemberIDs []string `json:"member_ids"`
}

type groupCreateResponse struct {
	Success bool        `json:"success"`
	Group   store.Group `json:"group"`
}

func (s *Server) handleGroupCreate(fd int, payload []byte) {
	var req groupCreateRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendFailure(fd, protocol.GroupCreateResponse, 1010, "请求格式错误")
		return
	}
	if req.GroupName == "" {
		s.sendFailure(fd, protocol.GroupCreateResponse, 3001, "群名称不能为空")
		return
	}
	info, ok := s.registry.GetInfo(fd)
	if !ok {
		return
	}
	if err := s.store.EnsureConnected(); err != nil {
		s.sendFailure(fd, protocol.GroupCreateResponse, 5000, "数据库连接失败")
		return
	}
	group, err := s.store.GroupCreate(info.UserID, req.GroupName, req.AvatarURL, req.MemberIDs)
	if err != nil {
		s.sendFailure(fd, protocol.GroupCreateResponse, 5020, "创建群失败")
		return
	}
	body, _ := json.Marshal(groupCreateResponse{Success: true, Group: group})
	s.SendToFd(fd, protocol.GroupCreateResponse, body)
}

type groupListResponse struct {
	Success bool                  `json:"success"`
	Groups  []store.GroupWithRole `json:"groups"`
}

func (s *Server) handleGroupList(fd int, _ []byte) {
	info, ok := s.registry.GetInfo(fd)
	if !ok {
		return
	}
	if err := s.store.EnsureConnected(); err != nil {
		s.sendFailure(fd, protocol.GroupListResponse, 5000, "数据库连接失败")
		return
	}
	groups, err := s.store.GroupList(info.UserID)
	if err != nil {
		s.sendFailure(fd, protocol.GroupListResponse, 5021, "获取群列表失败")
		return
	}
	body, _ := json.Marshal(groupListResponse{Success: true, Groups: groups})
	s.SendToFd(fd, protocol.GroupListResponse, body)
}

type groupMemberListRequest struct {
	GroupID string `json:"group_id"`
}

type memberInfo struct {
	store.GroupMember
	Online bool `json:"online"`
}

type groupMemberListResponse struct {
	Success bool         `json:"success"`
	Group   store.Group  `json:"group"`
	Members []memberInfo `json:"members"`
}

func (s *Server) handleGroupMemberList(fd int, payload []byte) {
	var req groupMemberListRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendFailure(fd, protocol.GroupMemberListResponse, 1010, "请求格式错误")
		return
	}
	if req.GroupID == "" {
		s.sendFailure(fd, protocol.GroupMemberListResponse, 3002, "群ID不能为空")
		return
	}
	info, ok := s.registry.GetInfo(fd)
	if !ok {
		return
	}
	if err := s.store.EnsureConnected(); err != nil {
		s.sendFailure(fd, protocol.GroupMemberListResponse, 5000, "数据库连接失败")
		return
	}
	role, err := s.store.GroupMemberRole(req.GroupID, info.UserID)
	if err != nil {
		s.sendFailure(fd, protocol.GroupMemberListResponse, 5022, "查询失败")
		return
	}
	if role == "" {
		s.sendFailure(fd, protocol.GroupMemberListResponse, 3003, "不是群成员")
		return
	}
	group, err := s.store.GroupInfo(req.GroupID)
	if err != nil {
		s.sendFailure(fd, protocol.GroupMemberListResponse, 5023, "群不存在")
		return
	}
	members, err := s.store.GroupMemberList(req.GroupID)
	if err != nil {
		s.sendFailure(fd, protocol.GroupMemberListResponse, 5024, "获取成员列表失败")
		return
	}
	out := make([]memberInfo, 0, len(members))
	for _, m := range members {
		out = append(out, memberInfo{GroupMember: m, Online: s.registry.IsOnline(m.UserID)})
	}
	body, _ := json.Marshal(groupMemberListResponse{Success: true, Group: group, Members: out})
	s.SendToFd(fd, protocol.GroupMemberListResponse, body)
}

type groupInviteRequest struct {
	GroupID   string   `json:"group_id"`
	MemberIDs []string `json:"member_ids"`
}

type groupInviteResponse struct {
	Success      bool `json:"success"`
	InvitedCount int  `json:"invited_count"`
}

type groupInviteNotify struct {
	GroupID         string `json:"group_id"`
	InviterID       string `json:"inviter_id"`
	InviterUsername string `json:"inviter_username"`
}

func (s *Server) handleGroupInvite(fd int, payload []byte) {
	var req groupInviteRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendFailure(fd, protocol.GroupInviteResponse, 1010, "请求格式错误")
		return
	}
	if req.GroupID == "" || len(req.MemberIDs) == 0 {
		s.sendFailure(fd, protocol.GroupInviteResponse, 3004, "参数不能为空")
		return
	}
	info, ok := s.registry.GetInfo(fd)
	if !ok {
		return
	}
	if err := s.store.EnsureConnected(); err != nil {
		s.sendFailure(fd, protocol.GroupInviteResponse, 5000, "数据库连接失败")
		return
	}
	added, err := s.store.GroupInviteMembers(info.UserID, req.GroupID, req.MemberIDs)
	if err != nil {
		if err == store.ErrNotGroupMember {
			s.sendFailure(fd, protocol.GroupInviteResponse, 3005, "不是群成员，无法邀请")
			return
		}
		s.sendFailure(fd, protocol.GroupInviteResponse, 5024, "邀请失败")
		return
	}

	body, _ := json.Marshal(groupInviteResponse{Success: true, InvitedCount: len(added)})
	s.SendToFd(fd, protocol.GroupInviteResponse, body)

	notify, _ := json.Marshal(groupInviteNotify{GroupID: req.GroupID, InviterID: info.UserID, InviterUsername: info.Username})
	for _, memberID := range added {
		s.SendToUser(memberID, protocol.GroupInviteNotify, notify)
	}
}

type groupKickRequest struct {
	GroupID   string   `json:"group_id"`
	MemberIDs []string `json:"member_ids"`
}

type groupKickResponse struct {
	Success     bool `json:"success"`
	KickedCount int  `json:"kicked_count"`
}

type groupKickNotify struct {
	GroupID  string `json:"group_id"`
	KickerID string `json:"kicker_id"`
}

func (s *Server) handleGroupKick(fd int, payload []byte) {
	var req groupKickRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendFailure(fd, protocol.GroupKickResponse, 1010, "请求格式错误")
		return
	}
	if req.GroupID == "" || len(req.MemberIDs) == 0 {
		s.sendFailure(fd, protocol.GroupKickResponse, 3006, "参数不能为空")
		return
	}
	info, ok := s.registry.GetInfo(fd)
	if !ok {
		return
	}
	if err := s.store.EnsureConnected(); err != nil {
		s.sendFailure(fd, protocol.GroupKickResponse, 5000, "数据库连接失败")
		return
	}
	kicked, err := s.store.GroupKickMembers(info.UserID, req.GroupID, req.MemberIDs)
	if err != nil {
		if err == store.ErrPermissionDenied {
			s.sendFailure(fd, protocol.GroupKickResponse, 3007, "权限不足")
			return
		}
		s.sendFailure(fd, protocol.GroupKickResponse, 5025, "踢出失败")
		return
	}

	body, _ := json.Marshal(groupKickResponse{Success: true, KickedCount: len(kicked)})
	s.SendToFd(fd, protocol.GroupKickResponse, body)

	notify, _ := json.Marshal(groupKickNotify{GroupID: req.GroupID, KickerID: info.UserID})
	for _, memberID := range kicked {
		s.SendToUser(memberID, protocol.GroupKickNotify, notify)
	}
}

type groupQuitRequest struct {
	GroupID string `json:"group_id"`
}

type groupQuitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type groupQuitNotify struct {
	GroupID      string `json:"group_id"`
	QuitUserID   string `json:"quit_user_id"`
	QuitUsername string `json:"quit_username"`
}

func (s *Server) handleGroupQuit(fd int, payload []byte) {
	var req groupQuitRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendFailure(fd, protocol.GroupQuitResponse, 1010, "请求格式错误")
		return
	}
	if req.GroupID == "" {
		s.sendFailure(fd, protocol.GroupQuitResponse, 3008, "群ID不能为空")
		return
	}
	info, ok := s.registry.GetInfo(fd)
	if !ok {
		return
	}
	if err := s.store.EnsureConnected(); err != nil {
		s.sendFailure(fd, protocol.GroupQuitResponse, 5000, "数据库连接失败")
		return
	}

	memberIDs, _ := s.store.GroupMemberIDs(req.GroupID)

	if err := s.store.GroupQuit(info.UserID, req.GroupID); err != nil {
		switch err {
		case store.ErrNotGroupMember:
			s.sendFailure(fd, protocol.GroupQuitResponse, 3009, "不是群成员")
		case store.ErrOwnerCannotQuit:
			s.sendFailure(fd, protocol.GroupQuitResponse, 3010, "群主不能退群，请先解散群聊")
		default:
			s.sendFailure(fd, protocol.GroupQuitResponse, 5026, "退群失败")
		}
		return
	}

	body, _ := json.Marshal(groupQuitResponse{Success: true, Message: "已退出群聊"})
	s.SendToFd(fd, protocol.GroupQuitResponse, body)

	notify, _ := json.Marshal(groupQuitNotify{GroupID: req.GroupID, QuitUserID: info.UserID, QuitUsername: info.Username})
	for _, memberID := range memberIDs {
		if memberID == info.UserID {
			continue
		}
		s.SendToUser(memberID, protocol.GroupQuitNotify, notify)
	}
}

type groupDismissRequest struct {
	GroupID string `json:"group_id"`
}

type groupDismissResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type groupDismissNotify struct {
	GroupID string `json:"group_id"`
}

func (s *Server) handleGroupDismiss(fd int, payload []byte) {
	var req groupDismissRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendFailure(fd, protocol.GroupDismissResponse, 1010, "请求格式错误")
		return
	}
	if req.GroupID == "" {
		s.sendFailure(fd, protocol.GroupDismissResponse, 3011, "群ID不能为空")
		return
	}
	info, ok := s.registry.GetInfo(fd)
	if !ok {
		return
	}
	if err := s.store.EnsureConnected(); err != nil {
		s.sendFailure(fd, protocol.GroupDismissResponse, 5000, "数据库连接失败")
		return
	}

	memberIDs, _ := s.store.GroupMemberIDs(req.GroupID)

	if err := s.store.GroupDismiss(info.UserID, req.GroupID); err != nil {
		switch err {
		case store.ErrGroupNotFound:
			s.sendFailure(fd, protocol.GroupDismissResponse, 3012, "群不存在")
		case store.ErrPermissionDenied:
			s.sendFailure(fd, protocol.GroupDismissResponse, 3013, "只有群主才能解散群聊")
		default:
			s.sendFailure(fd, protocol.GroupDismissResponse, 5027, "解散失败")
		}
		return
	}

	body, _ := json.Marshal(groupDismissResponse{Success: true, Message: "群已解散"})
	s.SendToFd(fd, protocol.GroupDismissResponse, body)

	notify, _ := json.Marshal(groupDismissNotify{GroupID: req.GroupID})
	for _, memberID := range memberIDs {
		if memberID == info.UserID {
			continue
		}
		s.SendToUser(memberID, protocol.GroupDismissNotify, notify)
	}
}

type groupUpdateInfoRequest struct {
	GroupID      string `json:"group_id"`
	GroupName    string `json:"group_name"`
	Announcement string `json:"announcement"`
}

type groupUpdateInfoResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type groupUpdateInfoNotify struct {
	GroupID      string `json:"group_id"`
	GroupName    string `json:"group_name"`
	Announcement string `json:"announcement"`
}

func (s *Server) handleGroupUpdateInfo(fd int, payload []byte) {
	var req groupUpdateInfoRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendFailure(fd, protocol.GroupUpdateInfoResponse, 1010, "请求格式错误")
		return
	}
	if req.GroupID == "" {
		s.sendFailure(fd, protocol.GroupUpdateInfoResponse, 3014, "群ID不能为空")
		return
	}
	if req.GroupName == "" && req.Announcement == "" {
		s.sendFailure(fd, protocol.GroupUpdateInfoResponse, 3016, "至少提供一个字段")
		return
	}
	info, ok := s.registry.GetInfo(fd)
	if !ok {
		return
	}
	if err := s.store.EnsureConnected(); err != nil {
		s.sendFailure(fd, protocol.GroupUpdateInfoResponse, 5000, "数据库连接失败")
		return
	}

	if err := s.store.GroupUpdateInfo(info.UserID, req.GroupID, req.GroupName, req.Announcement); err != nil {
		if err == store.ErrPermissionDenied {
			s.sendFailure(fd, protocol.GroupUpdateInfoResponse, 3015, "权限不足")
			return
		}
		s.sendFailure(fd, protocol.GroupUpdateInfoResponse, 5028, "更新失败")
		return
	}

	body, _ := json.Marshal(groupUpdateInfoResponse{Success: true, Message: "群信息已更新"})
	s.SendToFd(fd, protocol.GroupUpdateInfoResponse, body)

	memberIDs, _ := s.store.GroupMemberIDs(req.GroupID)
	group, err := s.store.GroupInfo(req.GroupID)
	if err != nil {
		return
	}
	notify, _ := json.Marshal(groupUpdateInfoNotify{GroupID: req.GroupID, GroupName: group.GroupName, Announcement: group.Announcement})
	for _, memberID := range memberIDs {
		if memberID == info.UserID {
			continue
		}
		s.SendToUser(memberID, protocol.GroupUpdateInfoNotify, notify)
	}
}
