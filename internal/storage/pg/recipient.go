package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/schoolink-dev/schoolink/internal/domain"
)

// MarkRead flips the user's recipient row to read. Returns true only when the
// row actually transitioned; already-read rows and rows of deleted messages
// are left untouched so read_at never moves once set.
func (s *Storage) MarkRead(ctx context.Context, id domain.MessageId, userId domain.UserId) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
	UPDATE message_recipients r SET is_read = TRUE, read_at = $3
	FROM messages m
	WHERE r.message_id = m.id
	  AND r.message_id = $1 AND r.user_id = $2
	  AND r.is_read = FALSE AND `+messageNotDeleted,
		id, userId, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to mark message read: %w", err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return updated > 0, nil
}

// UnreadCounts tallies the user's unread recipient rows over non-deleted
// messages, with a separate figure for the announcement types.
func (s *Storage) UnreadCounts(ctx context.Context, tenantId domain.TenantId, userId domain.UserId) (domain.UnreadCounts, error) {
	var counts domain.UnreadCounts
	err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(*),
	       COUNT(*) FILTER (WHERE m.message_type = ANY($3))
	FROM message_recipients r
	JOIN messages m ON m.id = r.message_id
	WHERE m.tenant_id = $1 AND r.user_id = $2
	  AND r.is_read = FALSE AND `+messageNotDeleted,
		tenantId, userId,
		pq.Array([]string{string(domain.Announcement), string(domain.ClassAnnouncement)}),
	).Scan(&counts.Total, &counts.Announcements)
	if err != nil {
		return domain.UnreadCounts{}, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return counts, nil
}
