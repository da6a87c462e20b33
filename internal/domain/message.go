package domain

import (
	"time"
)

// MessageType is a closed tag set. Both the permission gate and the recipient
// resolver switch exhaustively over it, so adding a type means touching those
// switches too.
type MessageType string

const (
	Announcement      MessageType = "ANNOUNCEMENT"       // school-wide, admin only
	ClassAnnouncement MessageType = "CLASS_ANNOUNCEMENT" // class-wide, staff
	StudentMessage    MessageType = "STUDENT_MESSAGE"    // about one student
	Reply             MessageType = "REPLY"              // reply inside a thread
	ClassPhoto        MessageType = "CLASS_PHOTO"
	StudentPhoto      MessageType = "STUDENT_PHOTO"
	ClassDocument     MessageType = "CLASS_DOCUMENT"
	StudentDocument   MessageType = "STUDENT_DOCUMENT"
	SchoolDocument    MessageType = "SCHOOL_DOCUMENT" // school-wide, admin only
)

// MessageTypes lists every valid type, used for input validation.
var MessageTypes = []MessageType{
	Announcement, ClassAnnouncement, StudentMessage, Reply,
	ClassPhoto, StudentPhoto, ClassDocument, StudentDocument, SchoolDocument,
}

func (t MessageType) Valid() bool {
	for _, known := range MessageTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ClassScoped reports whether the type addresses the parents of one class.
func (t MessageType) ClassScoped() bool {
	return t == ClassAnnouncement || t == ClassPhoto || t == ClassDocument
}

// StudentScoped reports whether the type addresses the parents of one student.
func (t MessageType) StudentScoped() bool {
	return t == StudentMessage || t == StudentPhoto || t == StudentDocument
}

// SchoolScoped reports whether the type addresses every parent in the tenant.
func (t MessageType) SchoolScoped() bool {
	return t == Announcement || t == SchoolDocument
}

// MessageStatus is the legacy top-level delivery marker. It is written once at
// creation and never consulted again; per-recipient read flags are authoritative.
type MessageStatus string

const (
	StatusSent      MessageStatus = "SENT"
	StatusDelivered MessageStatus = "DELIVERED"
	StatusRead      MessageStatus = "READ"
)

type Message struct {
	Id              MessageId
	TenantId        TenantId
	SenderId        UserId
	Type            MessageType
	Subject         *string
	Body            string
	ClassId         *ClassId
	StudentId       *StudentId
	ParentMessageId *MessageId
	Status          MessageStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Recipients  []Recipient
	Attachments []Attachment
}

// Recipient is the per-(message, user) delivery record. is_read transitions
// false -> true exactly once; read_at is stamped on that transition.
type Recipient struct {
	MessageId MessageId
	UserId    UserId
	IsRead    bool
	ReadAt    *time.Time
}

// Attachment links a message to an externally stored file entity.
// DisplayOrder defines presentation order; ties break by insertion order.
type Attachment struct {
	MessageId    MessageId
	FileId       FileId
	DisplayOrder int
}

// MessageCreationData carries a create request from handler to service.
type MessageCreationData struct {
	Type          MessageType
	Subject       *string
	Body          string
	ClassId       *ClassId
	StudentId     *StudentId
	AttachmentIds []FileId
}

// ReplyData carries a reply request from handler to service.
type ReplyData struct {
	Body          string
	AttachmentIds []FileId
}

// UnreadCounts are recomputed per call, never maintained as running totals.
type UnreadCounts struct {
	Total         int `json:"messages"`
	Announcements int `json:"announcements"`
}

type InboxFilter struct {
	Type   *MessageType
	IsRead *bool
}
