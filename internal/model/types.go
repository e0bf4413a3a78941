package model

import "time"

// MessageType classifies a message payload.
type MessageType string

const (
	TypeText  MessageType = "TEXT"
	TypeImage MessageType = "IMAGE"
	TypeVideo MessageType = "VIDEO"
	TypeAudio MessageType = "AUDIO"
)

// User is an account record owned by the marketplace backend.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"fullName,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// Partner is a user the signed-in account has (or is about to have) a
// conversation with. Identity is the user ID; UnreadCount is local cache
// state reconciled against the server on every partner-list poll.
type Partner struct {
	User
	UnreadCount int `json:"unreadCount"`
}

// Message is a single direct message between two users.
// Invariant: Content or MediaURL is non-empty, never both empty.
type Message struct {
	ID               int64       `json:"id"`
	SenderID         int64       `json:"senderId"`
	SenderUsername   string      `json:"senderUsername,omitempty"`
	ReceiverID       int64       `json:"receiverId"`
	ReceiverUsername string      `json:"receiverUsername,omitempty"`
	Content          string      `json:"content"`
	MessageType      MessageType `json:"messageType,omitempty"`
	MediaURL         string      `json:"mediaUrl,omitempty"`
	MediaFileName    string      `json:"mediaFileName,omitempty"`
	MediaMimeType    string      `json:"mediaMimeType,omitempty"`
	MediaSize        int64       `json:"mediaSize,omitempty"`
	IsRead           bool        `json:"isRead"`
	CreatedAt        time.Time   `json:"createdAt"`
}

// Attachment is a transient, unsent media candidate. It exists only between
// selection in the composer and send or cancel; it is never partially sent.
type Attachment struct {
	Kind     MessageType
	FileName string
	MimeType string
	Size     int64
	DataURI  string // inline base64 payload, travels in the send body
}

// Valid reports whether a server partner record carries the fields the
// client requires. Records failing this are dropped at the API boundary.
func (p *Partner) Valid() bool {
	return p.ID != 0 && p.Username != ""
}

// Valid reports whether a server message record carries the fields the
// client requires.
func (m *Message) Valid() bool {
	return m.ID != 0 && m.Content != "" && m.SenderID != 0 && m.ReceiverID != 0
}
