package store

import "errors"

var (
	// ErrUserNotFound indicates no user row matched the given username/ID.
	ErrUserNotFound = errors.New("store: user not found")
	// ErrUsernameTaken indicates a UNIQUE constraint violation on username.
	ErrUsernameTaken = errors.New("store: username already exists")
	// ErrInvalidCredentials indicates a login attempt with a wrong password.
	ErrInvalidCredentials = errors.New("store: invalid credentials")
	// ErrAlreadyFriends indicates a friend-apply target is already a friend.
	ErrAlreadyFriends = errors.New("store: already friends")
	// ErrSelfTarget indicates an operation targeting the acting user itself.
	ErrSelfTarget = errors.New("store: cannot target self")
	// ErrApplyNotFound indicates no matching friend_applies row.
	ErrApplyNotFound = errors.New("store: friend application not found")
	// ErrApplyAlreadyHandled indicates a friend_applies row has already been
	// accepted or rejected.
	ErrApplyAlreadyHandled = errors.New("store: friend application already handled")
	// ErrGroupNotFound indicates no matching groups row.
	ErrGroupNotFound = errors.New("store: group not found")
	// ErrNotGroupMember indicates the acting user is not a member of the
	// group in question.
	ErrNotGroupMember = errors.New("store: not a group member")
	// ErrPermissionDenied indicates the acting user's role does not permit
	// the requested group operation.
	ErrPermissionDenied = errors.New("store: permission denied")
	// ErrOwnerCannotQuit indicates a group owner attempted to quit instead
	// of dismissing the group.
	ErrOwnerCannotQuit = errors.New("store: owner cannot quit, dismiss the group instead")
)
