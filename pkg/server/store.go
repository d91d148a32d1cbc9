package server

import "github.com/aeolun/im-server/pkg/store"

// Store is the persistence surface the handlers depend on, narrowed from
// *store.Store to the methods they call. Any type satisfying it — the real *store.Store or a test
// fake — can back a Server, which is what lets handlers_*_test.go exercise
// the friend/group business logic and its wire responses without a live
// MySQL connection.
type Store interface {
	EnsureConnected() error

	VerifyUser(username, password string) (userID, nickname string, err error)
	RegisterUser(username, password, nickname string) (userID string, err error)
	UserByID(userID string) (nickname string, err error)

	FriendApply(fromUserID, targetUsername, greeting string) (store.FriendApplyResult, error)
	FriendApplyAction(handlerUserID, applyID string, accept bool) (fromUserID string, err error)
	FriendList(userID string) ([]store.FriendEntry, error)
	FriendDelete(userID, friendUserID string) error
	FriendSetBlocked(userID, targetUserID string, blocked bool) error

	GroupCreate(ownerID, groupName, avatarURL string, memberIDs []string) (store.Group, error)
	GroupList(userID string) ([]store.GroupWithRole, error)
	GroupMemberRole(groupID, userID string) (string, error)
	GroupInfo(groupID string) (store.Group, error)
	GroupMemberList(groupID string) ([]store.GroupMember, error)
	GroupMemberIDs(groupID string) ([]string, error)
	GroupInviteMembers(inviterID, groupID string, memberIDs []string) (added []string, err error)
	GroupKickMembers(kickerID, groupID string, memberIDs []string) (kicked []string, err error)
	GroupQuit(userID, groupID string) error
	GroupDismiss(userID, groupID string) error
	GroupUpdateInfo(userID, groupID, groupName, announcement string) error
}

var _ Store = (*store.Store)(nil)
