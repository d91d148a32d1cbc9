package server

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/aeolun/im-server/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeServer wires one net.Pipe end into the server as a live connection
// and hands the caller the other end to act as a test client. No listener
// or store access is involved, matching how the store-free code paths
// (auth gating, heartbeat, logout, routing) can be exercised without a
// database.
func pipeServer(t *testing.T) (*Server, net.Conn, int) {
	t.Helper()
	s := NewServer(DefaultConfig(), nil)
	client, serverSide := net.Pipe()
	fd := int(s.nextFd.Add(1))
	s.handleNewConnection(fd, serverSide)
	t.Cleanup(func() { s.Stop() })
	return s, client, fd
}

func sendFrame(t *testing.T, conn net.Conn, msgType protocol.MessageType, payload interface{}) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	_, err = conn.Write(protocol.Encode(msgType, body))
	require.NoError(t, err)
}

func readFrame(t *testing.T, conn net.Conn) protocol.Packet {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	dec := protocol.NewDecoder()
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		require.NoError(t, err)
		dec.Write(buf[:n])
		packets, err := dec.Decode()
		require.NoError(t, err)
		if len(packets) > 0 {
			return packets[0]
		}
	}
}

func TestRequiresAuth(t *testing.T) {
	assert.False(t, requiresAuth(protocol.LoginRequest))
	assert.False(t, requiresAuth(protocol.RegisterRequest))
	assert.False(t, requiresAuth(protocol.Heartbeat))
	assert.True(t, requiresAuth(protocol.SendMessage))
	assert.True(t, requiresAuth(protocol.FriendApplyRequest))
	assert.True(t, requiresAuth(protocol.GroupCreateRequest))
	assert.True(t, requiresAuth(protocol.UserListRequest))
}

func TestUnauthenticatedSendMessageIsGated(t *testing.T) {
	s, client, fd := pipeServer(t)
	defer client.Close()

	sendFrame(t, client, protocol.SendMessage, map[string]string{
		"conversation_type": "single",
		"to_user_id":        "2",
		"content":           "hi",
	})

	pkt := readFrame(t, client)
	require.Equal(t, protocol.Error, pkt.Type)

	var errPayload errorPayload
	require.NoError(t, json.Unmarshal(pkt.Payload, &errPayload))
	assert.Equal(t, 1001, errPayload.ErrorCode)

	info, ok := s.registry.GetInfo(fd)
	require.True(t, ok)
	assert.False(t, info.Authenticated)
}

func TestHeartbeatRoundTrip(t *testing.T) {
	_, client, _ := pipeServer(t)
	defer client.Close()

	sendFrame(t, client, protocol.Heartbeat, map[string]string{})

	pkt := readFrame(t, client)
	require.Equal(t, protocol.HeartbeatResponse, pkt.Type)

	var resp heartbeatResponse
	require.NoError(t, json.Unmarshal(pkt.Payload, &resp))
	assert.Greater(t, resp.Timestamp, int64(0))
}

func TestLogoutClosesConnection(t *testing.T) {
	s, client, fd := pipeServer(t)
	defer client.Close()

	s.registry.MarkAuthenticated(fd, "1", "alice")
	sendFrame(t, client, protocol.Logout, map[string]string{})

	require.Eventually(t, func() bool {
		_, ok := s.registry.GetInfo(fd)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastExcludesSender(t *testing.T) {
	s := NewServer(DefaultConfig(), nil)
	defer s.Stop()

	aliceClient, aliceServer := net.Pipe()
	bobClient, bobServer := net.Pipe()
	defer aliceClient.Close()
	defer bobClient.Close()

	aliceFd := int(s.nextFd.Add(1))
	bobFd := int(s.nextFd.Add(1))
	s.handleNewConnection(aliceFd, aliceServer)
	s.handleNewConnection(bobFd, bobServer)
	s.registry.MarkAuthenticated(aliceFd, "1", "alice")
	s.registry.MarkAuthenticated(bobFd, "2", "bob")

	body, err := json.Marshal(map[string]string{"content": "hi all"})
	require.NoError(t, err)

	done := make(chan protocol.Packet, 1)
	go func() {
		done <- readFrame(t, bobClient)
	}()

	s.Broadcast(protocol.ReceiveMessage, body, aliceFd)

	select {
	case pkt := <-done:
		assert.Equal(t, protocol.ReceiveMessage, pkt.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("bob did not receive the broadcast")
	}

	aliceClient.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	buf := make([]byte, 16)
	_, err = aliceClient.Read(buf)
	assert.Error(t, err, "sender should not receive its own broadcast")
}

func TestSendToUserReturnsFalseWhenOffline(t *testing.T) {
	s := NewServer(DefaultConfig(), nil)
	defer s.Stop()

	sent := s.SendToUser("nonexistent", protocol.ReceiveMessage, []byte(`{}`))
	assert.False(t, sent)
}
