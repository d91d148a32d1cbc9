// Package protocol implements the binary frame format spoken between IM
// clients and the server, and the catalogue of message types that ride
// inside it.
package protocol

// MessageType identifies the payload carried by a Packet.
type MessageType uint16

// Auth
const (
	LoginRequest     MessageType = 0x0001
	LoginResponse    MessageType = 0x0002
	RegisterRequest  MessageType = 0x0003
	RegisterResponse MessageType = 0x0004
)

// Messaging
const (
	SendMessage    MessageType = 0x0005
	ReceiveMessage MessageType = 0x0006
)

// Control
const (
	Heartbeat         MessageType = 0x0007
	HeartbeatResponse MessageType = 0x0008
	UserListRequest   MessageType = 0x0009
	UserListResponse  MessageType = 0x000A
	Logout            MessageType = 0x000B
	Error             MessageType = 0x000C
)

// Friends
const (
	FriendApplyRequest  MessageType = 0x0100
	FriendApplyResponse MessageType = 0x0101
	FriendApplyNotify   MessageType = 0x0102

	FriendHandleRequest  MessageType = 0x0103
	FriendHandleResponse MessageType = 0x0104
	FriendHandleNotify   MessageType = 0x0105

	FriendListRequest  MessageType = 0x0106
	FriendListResponse MessageType = 0x0107

	FriendDeleteRequest  MessageType = 0x0108
	FriendDeleteResponse MessageType = 0x0109

	FriendBlockRequest  MessageType = 0x010A
	FriendBlockResponse MessageType = 0x010B
)

// Groups
const (
	GroupCreateRequest  MessageType = 0x0200
	GroupCreateResponse MessageType = 0x0201

	GroupListRequest  MessageType = 0x0202
	GroupListResponse MessageType = 0x0203

	GroupMemberListRequest  MessageType = 0x0204
	GroupMemberListResponse MessageType = 0x0205

	GroupInviteRequest  MessageType = 0x0206
	GroupInviteResponse MessageType = 0x0207
	GroupInviteNotify   MessageType = 0x0208

	GroupKickRequest  MessageType = 0x0209
	GroupKickResponse MessageType = 0x020A
	GroupKickNotify   MessageType = 0x020B

	GroupQuitRequest  MessageType = 0x020C
	GroupQuitResponse MessageType = 0x020D
	GroupQuitNotify   MessageType = 0x020E

	GroupDismissRequest  MessageType = 0x020F
	GroupDismissResponse MessageType = 0x0210
	GroupDismissNotify   MessageType = 0x0211

	GroupUpdateInfoRequest  MessageType = 0x0212
	GroupUpdateInfoResponse MessageType = 0x0213
	GroupUpdateInfoNotify   MessageType = 0x0214
)
