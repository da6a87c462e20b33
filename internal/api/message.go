package api

import (
	"github.com/schoolink-dev/schoolink/internal/domain"
)

// Request DTOs

type CreateMessageRequest struct {
	Type          string             `json:"type" validate:"required"`
	Subject       *string            `json:"subject,omitempty"`
	Body          string             `json:"body" validate:"required"`
	ClassId       *domain.ClassId    `json:"class_id,omitempty"`
	StudentId     *domain.StudentId  `json:"student_id,omitempty"`
	AttachmentIds []domain.FileId    `json:"attachment_ids,omitempty"`
}

type ReplyRequest struct {
	Body          string          `json:"body" validate:"required"`
	AttachmentIds []domain.FileId `json:"attachment_ids,omitempty"`
}

type MarkManyReadRequest struct {
	MessageIds []domain.MessageId `json:"message_ids" validate:"required,min=1"`
}

// Response DTOs

// MessageResponse wraps a full message
type MessageResponse struct {
	domain.Message
	// Add extra API-specific fields here if needed in the future
}

// ThreadResponse wraps a root message with its replies oldest first
type ThreadResponse struct {
	domain.Thread
}

// MessageListResponse is a paginated message listing
type MessageListResponse struct {
	Messages []MessageResponse `json:"messages"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

type MarkReadResponse struct {
	Transitioned bool `json:"transitioned"`
}

type MarkManyReadResponse struct {
	MarkedRead int `json:"marked_read"`
}

type UnreadCountsResponse struct {
	domain.UnreadCounts
}
