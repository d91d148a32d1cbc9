package server

import "github.com/aeolun/im-server/pkg/store"

// fakeStore is a test double for Store, following the same style as
// pkg/client/mock_connection.go's MockConnection: plain state fields the
// test sets directly, one canned error/result per method. It lets
// handlers_*_test.go drive the friend/group/auth business logic and its
// wire responses without a live MySQL connection.
type fakeStore struct {
	connectedErr error

	verifyUserID, verifyNickname string
	verifyUserErr                error

	registerUserID string
	registerErr    error

	userByIDNickname string
	userByIDErr      error

	friendApplyResult store.FriendApplyResult
	friendApplyErr    error

	friendApplyActionFromUserID string
	friendApplyActionErr        error

	friendListResult []store.FriendEntry
	friendListErr    error

	friendDeleteErr error

	friendBlockErr error

	groupCreateResult store.Group
	groupCreateErr    error

	groupListResult []store.GroupWithRole
	groupListErr    error

	groupMemberRoleResult string
	groupMemberRoleErr    error

	groupInfoResult store.Group
	groupInfoErr    error

	groupMemberListResult []store.GroupMember
	groupMemberListErr    error

	groupMemberIDsResult []string
	groupMemberIDsErr    error

	groupInviteResult []string
	groupInviteErr    error

	groupKickResult []string
	groupKickErr    error

	groupQuitErr error

	groupDismissErr error

	groupUpdateInfoErr error
}

func (f *fakeStore) EnsureConnected() error { return f.connectedErr }

func (f *fakeStore) VerifyUser(username, password string) (string, string, error) {
	return f.verifyUserID, f.verifyNickname, f.verifyUserErr
}

func (f *fakeStore) RegisterUser(username, password, nickname string) (string, error) {
	return f.registerUserID, f.registerErr
}

func (f *fakeStore) UserByID(userID string) (string, error) {
	return f.userByIDNickname, f.userByIDErr
}

func (f *fakeStore) FriendApply(fromUserID, targetUsername, greeting string) (store.FriendApplyResult, error) {
	return f.friendApplyResult, f.friendApplyErr
}

func (f *fakeStore) FriendApplyAction(handlerUserID, applyID string, accept bool) (string, error) {
	return f.friendApplyActionFromUserID, f.friendApplyActionErr
}

func (f *fakeStore) FriendList(userID string) ([]store.FriendEntry, error) {
	return f.friendListResult, f.friendListErr
}

func (f *fakeStore) FriendDelete(userID, friendUserID string) error {
	return f.friendDeleteErr
}

func (f *fakeStore) FriendSetBlocked(userID, targetUserID string, blocked bool) error {
	return f.friendBlockErr
}

func (f *fakeStore) GroupCreate(ownerID, groupName, avatarURL string, memberIDs []string) (store.Group, error) {
	return f.groupCreateResult, f.groupCreateErr
}

func (f *fakeStore) GroupList(userID string) ([]store.GroupWithRole, error) {
	return f.groupListResult, f.groupListErr
}

func (f *fakeStore) GroupMemberRole(groupID, userID string) (string, error) {
	return f.groupMemberRoleResult, f.groupMemberRoleErr
}

func (f *fakeStore) GroupInfo(groupID string) (store.Group, error) {
	return f.groupInfoResult, f.groupInfoErr
}

func (f *fakeStore) GroupMemberList(groupID string) ([]store.GroupMember, error) {
	return f.groupMemberListResult, f.groupMemberListErr
}

func (f *fakeStore) GroupMemberIDs(groupID string) ([]string, error) {
	return f.groupMemberIDsResult, f.groupMemberIDsErr
}

func (f *fakeStore) GroupInviteMembers(inviterID, groupID string, memberIDs []string) ([]string, error) {
	return f.groupInviteResult, f.groupInviteErr
}

func (f *fakeStore) GroupKickMembers(kickerID, groupID string, memberIDs []string) ([]string, error) {
	return f.groupKickResult, f.groupKickErr
}

func (f *fakeStore) GroupQuit(userID, groupID string) error {
	return f.groupQuitErr
}

func (f *fakeStore) GroupDismiss(userID, groupID string) error {
	return f.groupDismissErr
}

func (f *fakeStore) GroupUpdateInfo(userID, groupID, groupName, announcement string) error {
	return f.groupUpdateInfoErr
}

var _ Store = (*fakeStore)(nil)
