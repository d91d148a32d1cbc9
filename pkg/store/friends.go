package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// FriendApplyResult is the outcome of a successful friend application.
type FriendApplyResult struct {
	ApplyID      string
	TargetUserID string
}

// FriendApply inserts a new pending friend application from fromUserID to
// the account named targetUsername, grounded on FriendHandler::handleApply.
func (s *Store) FriendApply(fromUserID, targetUsername, greeting string) (FriendApplyResult, error) {
	targetID, _, err := s.UserByUsername(targetUsername)
	if err != nil {
		return FriendApplyResult{}, err
	}

	if targetID == fromUserID {
		return FriendApplyResult{}, ErrSelfTarget
	}

	already, err := s.areFriends(fromUserID, targetID)
	if err != nil {
		return FriendApplyResult{}, err
	}
	if already {
		return FriendApplyResult{}, ErrAlreadyFriends
	}

	res, err := s.db.Exec(`INSERT INTO friend_applies (from_user_id, to_user_id, greeting) VALUES (?, ?, ?)`,
		fromUserID, targetID, greeting)
	if err != nil {
		return FriendApplyResult{}, fmt.Errorf("store: friend apply: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return FriendApplyResult{}, fmt.Errorf("store: friend apply: %w", err)
	}

	return FriendApplyResult{ApplyID: fmt.Sprintf("%d", id), TargetUserID: targetID}, nil
}

func (s *Store) areFriends(userID, otherID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM friends WHERE user_id = ? AND friend_user_id = ?)`,
		userID, otherID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: check friendship: %w", err)
	}
	return exists, nil
}

// FriendApplication is a row of friend_applies; FriendApplyAction scans
// the applicant and status into it.
type FriendApplication struct {
	ApplyID      string
	FromUserID   string
	ToUserID     string
	Greeting     string
	Status       int
	CreatedAtSec int64
}

// FriendApplyAction accepts or rejects a pending application addressed to
// handlerUserID, matching FriendHandler::handleApplyAction.
func (s *Store) FriendApplyAction(handlerUserID, applyID string, accept bool) (fromUserID string, err error) {
	var app FriendApplication
	var toUserID string
	err = s.db.QueryRow(`SELECT from_user_id, to_user_id, status FROM friend_applies WHERE apply_id = ?`, applyID).
		Scan(&app.FromUserID, &toUserID, &app.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrApplyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store: friend apply action: %w", err)
	}
	if toUserID != handlerUserID {
		return "", ErrApplyNotFound
	}
	if app.Status != 0 {
		return "", ErrApplyAlreadyHandled
	}

	newStatus := 2
	if accept {
		newStatus = 1
	}

	if _, err := s.db.Exec(`UPDATE friend_applies SET status = ?, handled_at = ? WHERE apply_id = ?`,
		newStatus, time.Now(), applyID); err != nil {
		return "", fmt.Errorf("store: friend apply action: %w", err)
	}

	if accept {
		if _, err := s.db.Exec(`INSERT IGNORE INTO friends (user_id, friend_user_id) VALUES (?, ?), (?, ?)`,
			handlerUserID, app.FromUserID, app.FromUserID, handlerUserID); err != nil {
			return "", fmt.Errorf("store: friend apply action: %w", err)
		}
	}

	return app.FromUserID, nil
}

// FriendEntry is one row of a friend list response. Online is populated
// by the caller from the connection registry; the store has no notion of
// live connections.
type FriendEntry struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Nickname  string `json:"nickname"`
	Remark    string `json:"remark"`
	GroupName string `json:"group_name"`
	IsBlocked bool   `json:"is_blocked"`
	Online    bool   `json:"online"`
}

// FriendList returns every friend of userID, matching
// FriendHandler::handleFriendList's join.
func (s *Store) FriendList(userID string) ([]FriendEntry, error) {
	rows, err := s.db.Query(`
		SELECT u.user_id, u.username, u.nickname, f.remark, f.group_name, f.is_blocked
		FROM friends f JOIN users u ON f.friend_user_id = u.user_id
		WHERE f.user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: friend list: %w", err)
	}
	defer rows.Close()

	var entries []FriendEntry
	for rows.Next() {
		var e FriendEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Nickname, &e.Remark, &e.GroupName, &e.IsBlocked); err != nil {
			return nil, fmt.Errorf("store: friend list: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// FriendDelete removes the bidirectional friendship between userID and
// friendUserID.
func (s *Store) FriendDelete(userID, friendUserID string) error {
	_, err := s.db.Exec(`DELETE FROM friends WHERE (user_id = ? AND friend_user_id = ?) OR (user_id = ? AND friend_user_id = ?)`,
		userID, friendUserID, friendUserID, userID)
	if err != nil {
		return fmt.Errorf("store: friend delete: %w", err)
	}
	return nil
}

// FriendSetBlocked updates the is_blocked flag on a single direction of a
// friendship, matching FriendHandler::handleBlock.
func (s *Store) FriendSetBlocked(userID, targetUserID string, blocked bool) error {
	_, err := s.db.Exec(`UPDATE friends SET is_blocked = ? WHERE user_id = ? AND friend_user_id = ?`,
		blocked, userID, targetUserID)
	if err != nil {
		return fmt.Errorf("store: friend set blocked: %w", err)
	}
	return nil
}
