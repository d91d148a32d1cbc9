package store

import (
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// UserExists reports whether username has a registered account, matching
// Database::userExists.
func (s *Store) UserExists(username string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: user exists: %w", err)
	}
	return exists, nil
}

// VerifyUser checks username/password against the stored bcrypt hash.
// Unlike the C++ original's plaintext comparison, this hashes and compares
// securely, while preserving the wire contract: callers still get back a
// plain userID/nickname pair or ErrInvalidCredentials.
func (s *Store) VerifyUser(username, password string) (userID, nickname string, err error) {
	var id int64
	var hash string
	err = s.db.QueryRow(`SELECT user_id, password_hash, nickname FROM users WHERE username = ?`, username).
		Scan(&id, &hash, &nickname)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		return "", "", fmt.Errorf("store: verify user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", "", ErrInvalidCredentials
	}

	return fmt.Sprintf("%d", id), nickname, nil
}

// RegisterUser creates a new account, hashing password with bcrypt before
// storing it.
func (s *Store) RegisterUser(username, password, nickname string) (userID string, err error) {
	if nickname == "" {
		nickname = username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("store: hash password: %w", err)
	}

	res, err := s.db.Exec(`INSERT INTO users (username, password_hash, nickname) VALUES (?, ?, ?)`,
		username, string(hash), nickname)
	if err != nil {
		if exists, checkErr := s.UserExists(username); checkErr == nil && exists {
			return "", ErrUsernameTaken
		}
		return "", fmt.Errorf("store: register user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("store: register user: %w", err)
	}
	return fmt.Sprintf("%d", id), nil
}

// UserByUsername looks up a user's ID and nickname by username, used by
// friend-apply target resolution.
func (s *Store) UserByUsername(username string) (userID, nickname string, err error) {
	var id int64
	err = s.db.QueryRow(`SELECT user_id, nickname FROM users WHERE username = ?`, username).Scan(&id, &nickname)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrUserNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("store: user by username: %w", err)
	}
	return fmt.Sprintf("%d", id), nickname, nil
}

// UserByID looks up a user's nickname by numeric ID, used to enrich
// USER_LIST_RESPONSE entries beyond what the registry tracks.
func (s *Store) UserByID(userID string) (nickname string, err error) {
	err = s.db.QueryRow(`SELECT nickname FROM users WHERE user_id = ?`, userID).Scan(&nickname)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store: user by id: %w", err)
	}
	return nickname, nil
}

// UserIDExists reports whether a numeric user ID (as used in group/friend
// member lists) corresponds to a real account.
func (s *Store) UserIDExists(userID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE user_id = ?)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: user id exists: %w", err)
	}
	return exists, nil
}
