package server

import (
	"encoding/json"
	"testing"

	"github.com/aeolun/im-server/pkg/protocol"
	"github.com/aeolun/im-server/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleFriendApplySuccess(t *testing.T) {
	fs := &fakeStore{friendApplyResult: store.FriendApplyResult{ApplyID: "9", TargetUserID: "2"}}
	_, client, _ := authenticatedPipeServer(t, fs, "1", "alice")
	defer client.Close()

	sendFrame(t, client, protocol.FriendApplyRequest, map[string]string{"target_username": "bob", "greeting": "hi"})
	pkt := readFrame(t, client)
	require.Equal(t, protocol.FriendApplyResponse, pkt.Type)

	var resp friendApplyResponse
	require.NoError(t, json.Unmarshal(pkt.Payload, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "9", resp.ApplyID)
}

func TestHandleFriendApplyMissingTarget(t *testing.T) {
	_, client, _ := authenticatedPipeServer(t, &fakeStore{}, "1", "alice")
	defer client.Close()

	sendFrame(t, client, protocol.FriendApplyRequest, map[string]string{"target_username": ""})
	pkt := readFrame(t, client)
	require.Equal(t, protocol.FriendApplyResponse, pkt.Type)

	var resp failureResponse
	require.NoError(t, json.Unmarshal(pkt.Payload, &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, 2001, resp.ErrorCode)
}

func TestHandleFriendApplySelfTarget(t *testing.T) {
	fs := &fakeStore{friendApplyErr: store.ErrSelfTarget}
	_, client, _ := authenticatedPipeServer(t, fs, "1", "alice")
	defer client.Close()

	sendFrame(t, client, protocol.FriendApplyRequest, map[string]string{"target_username": "alice"})
	pkt := readFrame(t, client)
	require.Equal(t, protocol.FriendApplyResponse, pkt.Type)

	var resp failureResponse
	require.NoError(t, json.Unmarshal(pkt.Payload, &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, 2002, resp.ErrorCode)
}

func TestHandleFriendApplyAlreadyFriends(t *testing.T) {
	fs := &fakeStore{friendApplyErr: store.ErrAlreadyFriends}
	_, client, _ := authenticatedPipeServer(t, fs, "1", "alice")
	defer client.Close()

	sendFrame(t, client, protocol.FriendApplyRequest, map[string]string{"target_username": "bob"})
	pkt := readFrame(t, client)
	require.Equal(t, protocol.FriendApplyResponse, pkt.Type)

	var resp failureResponse
	require.NoError(t, json.Unmarshal(pkt.Payload, &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, 2003, resp.ErrorCode)
}

func TestHandleFriendApplyDBDown(t *testing.T) {
	fs := &fakeStore{connectedErr: assertErr}
	_, client, _ := authenticatedPipeServer(t, fs, "1", "alice")
	defer client.Close()

	sendFrame(t, client, protocol.FriendApplyRequest, map[string]string{"target_username": "bob"})
	pkt := readFrame(t, client)
	require.Equal(t, protocol.FriendApplyResponse, pkt.Type)

	var resp failureResponse
	require.NoError(t, json.Unmarshal(pkt.Payload, &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, 5000, resp.ErrorCode)
}

func TestHandleFriendHandleAccept(t *testing.T) {
	fs := &fakeStore{friendApplyActionFromUserID: "2"}
	_, client, _ := authenticatedPipeServer(t, fs, "1", "alice")
	defer client.Close()

	sendFrame(t, client, protocol.FriendHandleRequest, map[string]string{"apply_id": "9", "action": "accept"})
	pkt := readFrame(t, client)
	require.Equal(t, protocol.FriendHandleResponse, pkt.Type)

	var resp friendHandleResponse
	require.NoError(t, json.Unmarshal(pkt.Payload, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "accept", resp.Action)
}

func TestHandleFriendHandleApplyNotFound(t *testing.T) {
	fs := &fakeStore{friendApplyActionErr: store.ErrApplyNotFound}
	_, client, _ := authenticatedPipeServer(t, fs, "1", "alice")
	defer client.Close()

	sendFrame(t, client, protocol.FriendHandleRequest, map[string]string{"apply_id": "9", "action": "accept"})
	pkt := readFrame(t, client)
	require.Equal(t, protocol.FriendHandleResponse, pkt.Type)

	var resp failureResponse
	require.NoError(t, json.Unmarshal(pkt.Payload, &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, 2004, resp.ErrorCode)
}

func TestHandleFriendHandleAlreadyHandled(t *testing.T) {
	fs := &fakeStore{friendApplyActionErr: store.ErrApplyAlreadyHandled}
	_, client, _ := authenticatedPipeServer(t, fs, "1", "alice")
	defer client.Close()

	sendFrame(t, client, protocol.FriendHandleRequest, map[string]string{"apply_id": "9", "action": "reject"})
	pkt := readFrame(t, client)
	require.Equal(t, protocol.FriendHandleResponse, pkt.Type)

	var resp failureResponse
	require.NoError(t, json.Unmarshal(pkt.Payload, &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, 2005, resp.ErrorCode)
}

func TestHandleFriendListSuccess(t *testing.T) {
	fs := &fakeStore{friendListResult: []store.FriendEntry{{UserID: "2", Username: "bob", Nickname: "Bob"}}}
	_, client, _ := authenticatedPipeServer(t, fs, "1", "alice")
	defer client.Close()

	sendFrame(t, client, protocol.FriendListRequest, map[string]string{})
	pkt := readFrame(t, client)
	require.Equal(t, protocol.FriendListResponse, pkt.Type)

	var resp friendListResponse
	require.NoError(t, json.Unmarshal(pkt.Payload, &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Friends, 1)
	assert.Equal(t, "bob", resp.Friends[0].Username)
}

func TestHandleFriendListFailure(t *testing.T) {
	fs := &fakeStore{friendListErr: assertErr}
	_, client, _ := authenticatedPipeServer(t, fs, "1", "alice")
	defer client.Close()

	sendFrame(t, client, protocol.FriendListRequest, map[string]string{})
	pkt := readFrame(t, client)
	require.Equal(t, protocol.FriendListResponse, pkt.Type)

	var resp failureResponse
	require.NoError(t, json.Unmarshal(pkt.Payload, &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, 5005, resp.ErrorCode)
}

func TestHandleFriendDeleteSuccess(t *testing.T) {
	_, client, _ := authenticatedPipeServer(t, &fakeStore{}, "1", "alice")
	defer client.Close()

	sendFrame(t, client, protocol.FriendDeleteRequest, map[string]string{"friend_user_id": "2"})
	pkt := readFrame(t, client)
	require.Equal(t, protocol.FriendDeleteResponse, pkt.Type)

	var resp friendDeleteResponse
	require.NoError(t, json.Unmarshal(pkt.Payload, &resp))
	assert.True(t, resp.Success)
}

func TestHandleFriendDeleteMissingID(t *testing.T) {
	_, client, _ := authenticatedPipeServer(t, &fakeStore{}, "1", "alice")
	defer client.Close()

	sendFrame(t, client, protocol.FriendDeleteRequest, map[string]string{"friend_user_id": ""})
	pkt := readFrame(t, client)
	require.Equal(t, protocol.FriendDeleteResponse, pkt.Type)

	var resp failureResponse
	require.NoError(t, json.Unmarshal(pkt.Payload, &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, 2006, resp.ErrorCode)
}

func TestHandleFriendBlockSuccess(t *testing.T) {
	_, client, _ := authenticatedPipeServer(t, &fakeStore{}, "1", "alice")
	defer client.Close()

	sendFrame(t, client, protocol.FriendBlockRequest, map[string]interface{}{"target_user_id": "2", "block": true})
	pkt := readFrame(t, client)
	require.Equal(t, protocol.FriendBlockResponse, pkt.Type)

	var resp friendBlockResponse
	require.NoError(t, json.Unmarshal(pkt.Payload, &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.Block)
}

func TestHandleFriendBlockFailure(t *testing.T) {
	fs := &fakeStore{friendBlockErr: assertErr}
	_, client, _ := authenticatedPipeServer(t, fs, "1", "alice")
	defer client.Close()

	sendFrame(t, client, protocol.FriendBlockRequest, map[string]interface{}{"target_user_id": "2", "block": true})
	pkt := readFrame(t, client)
	require.Equal(t, protocol.FriendBlockResponse, pkt.Type)

	var resp failureResponse
	require.NoError(t, json.Unmarshal(pkt.Payload, &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, 5007, resp.ErrorCode)
}
