package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Group is a groups row.
type Group struct {
	GroupID      string `json:"group_id"`
	GroupName    string `json:"group_name"`
	OwnerID      string `json:"owner_id"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	Announcement string `json:"announcement,omitempty"`
	CreatedAtSec int64  `json:"created_at"`
}

// GroupCreate creates a group owned by ownerID and adds any memberIDs that
// resolve to real accounts as regular members, matching
// GroupHandler::handleCreate.
func (s *Store) GroupCreate(ownerID, groupName, avatarURL string, memberIDs []string) (Group, error) {
	res, err := s.db.Exec(`INSERT INTO groups (group_name, owner_id, avatar_url) VALUES (?, ?, NULLIF(?, ''))`,
		groupName, ownerID, avatarURL)
	if err != nil {
		return Group{}, fmt.Errorf("store: group create: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Group{}, fmt.Errorf("store: group create: %w", err)
	}
	groupID := fmt.Sprintf("%d", id)

	if _, err := s.db.Exec(`INSERT INTO group_members (group_id, user_id, role) VALUES (?, ?, 'owner')`,
		groupID, ownerID); err != nil {
		return Group{}, fmt.Errorf("store: group create owner: %w", err)
	}

	for _, memberID := range memberIDs {
		if memberID == ownerID {
			continue
		}
		exists, err := s.UserIDExists(memberID)
		if err != nil || !exists {
			continue
		}
		s.db.Exec(`INSERT IGNORE INTO group_members (group_id, user_id, role) VALUES (?, ?, 'member')`,
			groupID, memberID)
	}

	var createdAt int64
	s.db.QueryRow(`SELECT UNIX_TIMESTAMP(created_at) FROM groups WHERE group_id = ?`, groupID).Scan(&createdAt)

	return Group{
		GroupID:      groupID,
		GroupName:    groupName,
		OwnerID:      ownerID,
		AvatarURL:    avatarURL,
		Announcement: "",
		CreatedAtSec: createdAt,
	}, nil
}

// GroupWithRole pairs a group with the caller's role in it, for
// GROUP_LIST_RESPONSE.
type GroupWithRole struct {
	Group
	Role string `json:"role"`
}

// GroupList returns every group userID belongs to.
func (s *Store) GroupList(userID string) ([]GroupWithRole, error) {
	rows, err := s.db.Query(`
		SELECT g.group_id, g.group_name, g.avatar_url, g.announcement, gm.role
		FROM groups g JOIN group_members gm ON g.group_id = gm.group_id
		WHERE gm.user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: group list: %w", err)
	}
	defer rows.Close()

	var out []GroupWithRole
	for rows.Next() {
		var g GroupWithRole
		var avatar, announcement sql.NullString
		if err := rows.Scan(&g.GroupID, &g.GroupName, &avatar, &announcement, &g.Role); err != nil {
			return nil, fmt.Errorf("store: group list: %w", err)
		}
		g.AvatarURL = avatar.String
		g.Announcement = announcement.String
		out = append(out, g)
	}
	return out, rows.Err()
}

// GroupMemberRole returns the caller's role in groupID, or "" if not a
// member, matching the original's getMemberRole helper.
func (s *Store) GroupMemberRole(groupID, userID string) (string, error) {
	var role string
	err := s.db.QueryRow(`SELECT role FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: group member role: %w", err)
	}
	return role, nil
}

// GroupMember is one row of a member-list response.
type GroupMember struct {
	UserID          string `json:"user_id"`
	NicknameInGroup string `json:"nickname_in_group"`
	Role            string `json:"role"`
}

// GroupInfo returns the group's metadata, matching the group lookup in
// handleMemberList.
func (s *Store) GroupInfo(groupID string) (Group, error) {
	var g Group
	var avatar, announcement sql.NullString
	err := s.db.QueryRow(`
		SELECT group_id, group_name, owner_id, avatar_url, announcement, UNIX_TIMESTAMP(created_at)
		FROM groups WHERE group_id = ?`, groupID).
		Scan(&g.GroupID, &g.GroupName, &g.OwnerID, &avatar, &announcement, &g.CreatedAtSec)
	if errors.Is(err, sql.ErrNoRows) {
		return Group{}, ErrGroupNotFound
	}
	if err != nil {
		return Group{}, fmt.Errorf("store: group info: %w", err)
	}
	g.AvatarURL = avatar.String
	g.Announcement = announcement.String
	return g, nil
}

// GroupMemberList returns every member of groupID, matching
// GroupHandler::handleMemberList's join.
func (s *Store) GroupMemberList(groupID string) ([]GroupMember, error) {
	rows, err := s.db.Query(`
		SELECT gm.user_id, gm.nickname_in_group, gm.role, u.nickname
		FROM group_members gm JOIN users u ON gm.user_id = u.user_id
		WHERE gm.group_id = ?`, groupID)
	if err != nil {
		return nil, fmt.Errorf("store: group member list: %w", err)
	}
	defer rows.Close()

	var out []GroupMember
	for rows.Next() {
		var m GroupMember
		var nickname string
		if err := rows.Scan(&m.UserID, &m.NicknameInGroup, &m.Role, &nickname); err != nil {
			return nil, fmt.Errorf("store: group member list: %w", err)
		}
		if m.NicknameInGroup == "" {
			m.NicknameInGroup = nickname
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GroupMemberIDs returns just the user IDs of a group's members, used for
// fan-out notifications.
func (s *Store) GroupMemberIDs(groupID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT user_id FROM group_members WHERE group_id = ?`, groupID)
	if err != nil {
		return nil, fmt.Errorf("store: group member ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: group member ids: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GroupInviteMembers adds any of memberIDs that exist and are not already
// members, returning the IDs that were actually added, matching
// GroupHandler::handleInvite. Any member (not just owner/admin) may invite.
func (s *Store) GroupInviteMembers(inviterID, groupID string, memberIDs []string) (added []string, err error) {
	role, err := s.GroupMemberRole(groupID, inviterID)
	if err != nil {
		return nil, err
	}
	if role == "" {
		return nil, ErrNotGroupMember
	}

	for _, memberID := range memberIDs {
		if memberID == inviterID {
			continue
		}
		existingRole, err := s.GroupMemberRole(groupID, memberID)
		if err != nil {
			return nil, err
		}
		if existingRole != "" {
			continue
		}
		exists, err := s.UserIDExists(memberID)
		if err != nil || !exists {
			continue
		}
		if _, err := s.db.Exec(`INSERT INTO group_members (group_id, user_id, role) VALUES (?, ?, 'member')`,
			groupID, memberID); err == nil {
			added = append(added, memberID)
		}
	}
	return added, nil
}

// GroupKickMembers removes memberIDs from groupID if kickerID has
// sufficient privilege, matching GroupHandler::handleKick's rules: owners
// and admins may kick; nobody may kick an owner; only an owner may kick an
// admin.
func (s *Store) GroupKickMembers(kickerID, groupID string, memberIDs []string) (kicked []string, err error) {
	kickerRole, err := s.GroupMemberRole(groupID, kickerID)
	if err != nil {
		return nil, err
	}
	if kickerRole != "owner" && kickerRole != "admin" {
		return nil, ErrPermissionDenied
	}

	for _, memberID := range memberIDs {
		if memberID == kickerID {
			continue
		}
		role, err := s.GroupMemberRole(groupID, memberID)
		if err != nil {
			return nil, err
		}
		if role == "" || role == "owner" {
			continue
		}
		if role == "admin" && kickerRole != "owner" {
			continue
		}
		if _, err := s.db.Exec(`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, memberID); err == nil {
			kicked = append(kicked, memberID)
		}
	}
	return kicked, nil
}

// GroupQuit removes userID from groupID, refusing if userID is the owner.
func (s *Store) GroupQuit(userID, groupID string) error {
	role, err := s.GroupMemberRole(groupID, userID)
	if err != nil {
		return err
	}
	if role == "" {
		return ErrNotGroupMember
	}
	if role == "owner" {
		return ErrOwnerCannotQuit
	}

	_, err = s.db.Exec(`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID)
	if err != nil {
		return fmt.Errorf("store: group quit: %w", err)
	}
	return nil
}

// GroupDismiss deletes groupID and all its members, only allowed for the
// owner.
func (s *Store) GroupDismiss(userID, groupID string) error {
	g, err := s.GroupInfo(groupID)
	if err != nil {
		return err
	}
	if g.OwnerID != userID {
		return ErrPermissionDenied
	}

	if _, err := s.db.Exec(`DELETE FROM group_members WHERE group_id = ?`, groupID); err != nil {
		return fmt.Errorf("store: group dismiss members: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM groups WHERE group_id = ?`, groupID); err != nil {
		return fmt.Errorf("store: group dismiss: %w", err)
	}
	return nil
}

// GroupUpdateInfo updates group_name and/or announcement, restricted to
// owner/admin, requiring at least one non-empty field.
func (s *Store) GroupUpdateInfo(userID, groupID, groupName, announcement string) error {
	role, err := s.GroupMemberRole(groupID, userID)
	if err != nil {
		return err
	}
	if role != "owner" && role != "admin" {
		return ErrPermissionDenied
	}

	switch {
	case groupName != "" && announcement != "":
		_, err = s.db.Exec(`UPDATE groups SET group_name = ?, announcement = ? WHERE group_id = ?`,
			groupName, announcement, groupID)
	case groupName != "":
		_, err = s.db.Exec(`UPDATE groups SET group_name = ? WHERE group_id = ?`, groupName, groupID)
	case announcement != "":
		_, err = s.db.Exec(`UPDATE groups SET announcement = ? WHERE group_id = ?`, announcement, groupID)
	default:
		return errors.New("store: at least one field required")
	}
	if err != nil {
		return fmt.Errorf("store: group update info: %w", err)
	}
	return nil
}
