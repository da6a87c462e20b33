package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/schoolink-dev/schoolink/internal/domain"
	internal_errors "github.com/schoolink-dev/schoolink/internal/errors"
)

// selectMessage is the shared projection for message queries. Every reader
// goes through it (or through messageListQuery) so the deleted_at filter
// lives in one place and can't be forgotten on a new call site.
const selectMessage = `
	SELECT m.id, m.tenant_id, m.sender_id, m.message_type, m.subject, m.body,
	       m.class_id, m.student_id, m.parent_message_id, m.status,
	       m.created_at, m.updated_at
	FROM messages m`

const messageNotDeleted = "m.deleted_at IS NULL"

// CreateMessage persists the message, its recipient rows and attachment links
// in one transaction. Readers never observe a message with a subset of its
// recipients.
func (s *Storage) CreateMessage(ctx context.Context, msg *domain.Message, recipients []domain.UserId) (*domain.Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // The rollback will be ignored if the tx has been committed later in the function.

	createdTs := msg.CreatedAt.UTC().Round(time.Microsecond) // database anyway round to microsecond
	_, err = tx.ExecContext(ctx, `
	INSERT INTO messages(id, tenant_id, sender_id, message_type, subject, body, class_id, student_id, parent_message_id, status, created_at, updated_at)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		msg.Id, msg.TenantId, msg.SenderId, string(msg.Type), msg.Subject, msg.Body,
		msg.ClassId, msg.StudentId, msg.ParentMessageId, string(msg.Status), createdTs)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	msg.Recipients = msg.Recipients[:0]
	for _, userId := range recipients {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO message_recipients(message_id, user_id, is_read)
		VALUES($1, $2, FALSE)`, msg.Id, userId)
		if err != nil {
			return nil, fmt.Errorf("failed to insert recipient: %w", err)
		}
		msg.Recipients = append(msg.Recipients, domain.Recipient{MessageId: msg.Id, UserId: userId})
	}

	for _, att := range msg.Attachments {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO message_attachments(message_id, file_entity_id, display_order)
		VALUES($1, $2, $3)`, msg.Id, att.FileId, att.DisplayOrder)
		if err != nil {
			return nil, fmt.Errorf("failed to insert attachment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	msg.CreatedAt = createdTs
	msg.UpdatedAt = createdTs
	return msg, nil
}

// GetMessage fetches one non-deleted message with its recipient rows and
// attachments.
func (s *Storage) GetMessage(ctx context.Context, tenantId domain.TenantId, id domain.MessageId) (*domain.Message, error) {
	row := s.db.QueryRowContext(ctx,
		selectMessage+` WHERE m.id = $1 AND m.tenant_id = $2 AND `+messageNotDeleted,
		id, tenantId)

	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal_errors.NotFound("Message not found")
		}
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}

	if err := s.loadRecipients(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.loadAttachments(ctx, []*domain.Message{msg}); err != nil {
		return nil, err
	}
	return msg, nil
}

// GetReplies returns the non-deleted replies to a message ordered by creation
// time ascending. Chat-style display depends on that ordering.
func (s *Storage) GetReplies(ctx context.Context, tenantId domain.TenantId, parentId domain.MessageId) ([]*domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		selectMessage+` WHERE m.tenant_id = $1 AND m.parent_message_id = $2 AND `+messageNotDeleted+`
		ORDER BY m.created_at ASC`,
		tenantId, parentId)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch replies: %w", err)
	}
	defer rows.Close()

	replies, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	if err := s.loadAttachments(ctx, replies); err != nil {
		return nil, err
	}
	return replies, nil
}

// GetInbox returns top-level messages addressed to the user, newest first.
// Replies never appear here; they are reachable only through the thread view.
func (s *Storage) GetInbox(ctx context.Context, tenantId domain.TenantId, userId domain.UserId, filter domain.InboxFilter, page, pageSize int) ([]*domain.Message, int, error) {
	where := `m.tenant_id = $1 AND r.user_id = $2 AND m.parent_message_id IS NULL AND ` + messageNotDeleted
	args := []any{tenantId, userId}

	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		where += fmt.Sprintf(" AND m.message_type = $%d", len(args))
	}
	if filter.IsRead != nil {
		args = append(args, *filter.IsRead)
		where += fmt.Sprintf(" AND r.is_read = $%d", len(args))
	}

	return s.recipientMessageList(ctx, where, args, page, pageSize)
}

// GetAnnouncements is the inbox restricted to announcement types, read or not.
func (s *Storage) GetAnnouncements(ctx context.Context, tenantId domain.TenantId, userId domain.UserId, page, pageSize int) ([]*domain.Message, int, error) {
	where := `m.tenant_id = $1 AND r.user_id = $2 AND ` + messageNotDeleted + `
		AND m.message_type = ANY($3)`
	args := []any{tenantId, userId, pq.Array([]string{string(domain.Announcement), string(domain.ClassAnnouncement)})}
	return s.recipientMessageList(ctx, where, args, page, pageSize)
}

// GetSent returns top-level messages authored by the user, newest first.
func (s *Storage) GetSent(ctx context.Context, tenantId domain.TenantId, userId domain.UserId, page, pageSize int) ([]*domain.Message, int, error) {
	where := `m.tenant_id = $1 AND m.sender_id = $2 AND m.parent_message_id IS NULL AND ` + messageNotDeleted
	args := []any{tenantId, userId}

	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages m WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count sent messages: %w", err)
	}

	query := selectMessage + ` WHERE ` + where + `
		ORDER BY m.created_at DESC
		LIMIT $3 OFFSET $4`
	rows, err := s.db.QueryContext(ctx, query, append(args, pageSize, (page-1)*pageSize)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch sent messages: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := s.loadAttachments(ctx, messages); err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// SoftDeleteMessage stamps deleted_at; the row stays for audit and thread
// integrity but disappears from every query.
func (s *Storage) SoftDeleteMessage(ctx context.Context, tenantId domain.TenantId, id domain.MessageId) error {
	result, err := s.db.ExecContext(ctx, `
	UPDATE messages m SET deleted_at = $3, updated_at = $3
	WHERE m.id = $1 AND m.tenant_id = $2 AND `+messageNotDeleted,
		id, tenantId, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return internal_errors.NotFound("Message not found")
	}
	return nil
}

// recipientMessageList runs a paginated message listing joined through the
// requesting user's recipient row, attaching that row so callers see the
// user's own read state.
func (s *Storage) recipientMessageList(ctx context.Context, where string, args []any, page, pageSize int) ([]*domain.Message, int, error) {
	var total int
	countQuery := `
	SELECT COUNT(*)
	FROM messages m
	JOIN message_recipients r ON r.message_id = m.id
	WHERE ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	query := fmt.Sprintf(`
	SELECT m.id, m.tenant_id, m.sender_id, m.message_type, m.subject, m.body,
	       m.class_id, m.student_id, m.parent_message_id, m.status,
	       m.created_at, m.updated_at,
	       r.user_id, r.is_read, r.read_at
	FROM messages m
	JOIN message_recipients r ON r.message_id = m.id
	WHERE %s
	ORDER BY m.created_at DESC
	LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

	rows, err := s.db.QueryContext(ctx, query, append(args, pageSize, (page-1)*pageSize)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		var rcpt domain.Recipient
		if err := rows.Scan(
			&msg.Id, &msg.TenantId, &msg.SenderId, &msg.Type, &msg.Subject, &msg.Body,
			&msg.ClassId, &msg.StudentId, &msg.ParentMessageId, &msg.Status,
			&msg.CreatedAt, &msg.UpdatedAt,
			&rcpt.UserId, &rcpt.IsRead, &rcpt.ReadAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan message: %w", err)
		}
		rcpt.MessageId = msg.Id
		msg.Recipients = []domain.Recipient{rcpt}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	if err := s.loadAttachments(ctx, messages); err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (s *Storage) loadRecipients(ctx context.Context, msg *domain.Message) error {
	rows, err := s.db.QueryContext(ctx, `
	SELECT message_id, user_id, is_read, read_at
	FROM message_recipients
	WHERE message_id = $1`, msg.Id)
	if err != nil {
		return fmt.Errorf("failed to fetch recipients: %w", err)
	}
	defer rows.Close()

	msg.Recipients = nil
	for rows.Next() {
		var r domain.Recipient
		if err := rows.Scan(&r.MessageId, &r.UserId, &r.IsRead, &r.ReadAt); err != nil {
			return fmt.Errorf("failed to scan recipient: %w", err)
		}
		msg.Recipients = append(msg.Recipients, r)
	}
	return rows.Err()
}

func (s *Storage) loadAttachments(ctx context.Context, messages []*domain.Message) error {
	if len(messages) == 0 {
		return nil
	}
	byId := make(map[domain.MessageId]*domain.Message, len(messages))
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		m.Attachments = nil
		byId[m.Id] = m
		ids = append(ids, m.Id.String())
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT message_id, file_entity_id, display_order
	FROM message_attachments
	WHERE message_id = ANY($1::uuid[])
	ORDER BY display_order, id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to fetch attachments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var att domain.Attachment
		if err := rows.Scan(&att.MessageId, &att.FileId, &att.DisplayOrder); err != nil {
			return fmt.Errorf("failed to scan attachment: %w", err)
		}
		if msg, ok := byId[att.MessageId]; ok {
			msg.Attachments = append(msg.Attachments, att)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	var msg domain.Message
	err := row.Scan(
		&msg.Id, &msg.TenantId, &msg.SenderId, &msg.Type, &msg.Subject, &msg.Body,
		&msg.ClassId, &msg.StudentId, &msg.ParentMessageId, &msg.Status,
		&msg.CreatedAt, &msg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func scanMessages(rows *sql.Rows) ([]*domain.Message, error) {
	var messages []*domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return messages, nil
}
