package types

// Event kinds understood by the relay.
const (
	JoinRequest      = "join-request"
	JoinAccepted     = "join-accepted"
	UsernameExists   = "username-exists"
	UserJoined       = "user-joined"
	UserDisconnected = "user-disconnected"
	LeaveRoom        = "leave-room"

	SyncFileStructure = "sync-file-structure"
	DirectoryCreated  = "directory-created"
	DirectoryUpdated  = "directory-updated"
	DirectoryRenamed  = "directory-renamed"
	DirectoryDeleted  = "directory-deleted"
	FileCreated       = "file-created"
	FileUpdated       = "file-updated"
	FileRenamed       = "file-renamed"
	FileDeleted       = "file-deleted"

	UserOffline = "offline"
	UserOnline  = "online"

	SendMessage    = "send-message"
	ReceiveMessage = "receive-message"
	TypingStart    = "typing-start"
	TypingPause    = "typing-pause"

	RequestDrawing = "request-drawing"
	SyncDrawing    = "sync-drawing"
	DrawingUpdate  = "drawing-update"
)

// RoomEvents are broadcast to the sender's room, excluding the sender.
var RoomEvents = []string{
	DirectoryCreated,
	DirectoryUpdated,
	DirectoryRenamed,
	DirectoryDeleted,
	FileCreated,
	FileUpdated,
	FileRenamed,
	FileDeleted,
	UserOffline,
	UserOnline,
	SendMessage,
	TypingStart,
	TypingPause,
	RequestDrawing,
	DrawingUpdate,
}

// TargetedEvents are delivered to the single socket named in the payload.
var TargetedEvents = []string{
	SyncFileStructure,
	SyncDrawing,
}

// Outbound returns the name under which an inbound event is relayed.
func Outbound(kind string) string {
	if kind == SendMessage {
		return ReceiveMessage
	}
	return kind
}

// JoinRequestPayload is the body of a join-request event.
type JoinRequestPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

// UserPayload wraps a single user record (user-joined, user-disconnected).
type UserPayload struct {
	User User `json:"user"`
}

// JoinAcceptedPayload is the snapshot sent back to a joiner.
type JoinAcceptedPayload struct {
	User  User   `json:"user"`
	Users []User `json:"users"`
}
