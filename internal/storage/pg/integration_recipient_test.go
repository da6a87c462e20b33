package pg

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/schoolink-dev/schoolink/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	tenantId := uuid.New()
	sender := seedUser(t, tenantId, domain.RoleTeacher, true)
	parent := seedUser(t, tenantId, domain.RoleParent, true)

	msg := createTestMessage(t, newTestMessage(tenantId, sender, domain.StudentMessage), []domain.UserId{parent})

	transitioned, err := storage.MarkRead(ctx, msg.Id, parent)
	require.NoError(t, err, "MarkRead should not return an error")
	assert.True(t, transitioned, "First MarkRead should transition the row")

	fetched, err := storage.GetMessage(ctx, tenantId, msg.Id)
	require.NoError(t, err)
	require.Len(t, fetched.Recipients, 1)
	assert.True(t, fetched.Recipients[0].IsRead)
	require.NotNil(t, fetched.Recipients[0].ReadAt)
	firstReadAt := *fetched.Recipients[0].ReadAt

	// Marking again is a no-op and read_at must not move.
	transitioned, err = storage.MarkRead(ctx, msg.Id, parent)
	require.NoError(t, err)
	assert.False(t, transitioned, "Repeated MarkRead should not transition")

	fetched, err = storage.GetMessage(ctx, tenantId, msg.Id)
	require.NoError(t, err)
	assert.Equal(t, firstReadAt, *fetched.Recipients[0].ReadAt)
}

func TestMarkReadNonRecipient(t *testing.T) {
	ctx := context.Background()
	tenantId := uuid.New()
	sender := seedUser(t, tenantId, domain.RoleTeacher, true)
	parent := seedUser(t, tenantId, domain.RoleParent, true)
	stranger := seedUser(t, tenantId, domain.RoleParent, true)

	msg := createTestMessage(t, newTestMessage(tenantId, sender, domain.StudentMessage), []domain.UserId{parent})

	transitioned, err := storage.MarkRead(ctx, msg.Id, stranger)
	require.NoError(t, err, "Marking without a recipient row is not an error")
	assert.False(t, transitioned)

	transitioned, err = storage.MarkRead(ctx, uuid.New(), parent)
	require.NoError(t, err)
	assert.False(t, transitioned)
}

func TestMarkReadDeletedMessage(t *testing.T) {
	ctx := context.Background()
	tenantId := uuid.New()
	sender := seedUser(t, tenantId, domain.RoleTeacher, true)
	parent := seedUser(t, tenantId, domain.RoleParent, true)

	msg := createTestMessage(t, newTestMessage(tenantId, sender, domain.StudentMessage), []domain.UserId{parent})
	require.NoError(t, storage.SoftDeleteMessage(ctx, tenantId, msg.Id))

	transitioned, err := storage.MarkRead(ctx, msg.Id, parent)
	require.NoError(t, err)
	assert.False(t, transitioned, "Deleted messages must not accept read marks")
}

func TestUnreadCounts(t *testing.T) {
	ctx := context.Background()
	tenantId := uuid.New()
	admin := seedUser(t, tenantId, domain.RoleTenantAdmin, true)
	teacher := seedUser(t, tenantId, domain.RoleTeacher, true)
	parent := seedUser(t, tenantId, domain.RoleParent, true)

	announcement := createTestMessage(t, newTestMessage(tenantId, admin, domain.Announcement), []domain.UserId{parent})
	createTestMessage(t, newTestMessage(tenantId, teacher, domain.ClassAnnouncement), []domain.UserId{parent})
	createTestMessage(t, newTestMessage(tenantId, teacher, domain.StudentMessage), []domain.UserId{parent})

	counts, err := storage.UnreadCounts(ctx, tenantId, parent)
	require.NoError(t, err, "UnreadCounts should not return an error")
	assert.Equal(t, 3, counts.Total)
	assert.Equal(t, 2, counts.Announcements)

	_, err = storage.MarkRead(ctx, announcement.Id, parent)
	require.NoError(t, err)

	counts, err = storage.UnreadCounts(ctx, tenantId, parent)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Total)
	assert.Equal(t, 1, counts.Announcements)
}

func TestUnreadCountsEmpty(t *testing.T) {
	ctx := context.Background()
	tenantId := uuid.New()
	parent := seedUser(t, tenantId, domain.RoleParent, true)

	counts, err := storage.UnreadCounts(ctx, tenantId, parent)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Total)
	assert.Equal(t, 0, counts.Announcements)
}

func TestUnreadCountsTenantIsolation(t *testing.T) {
	ctx := context.Background()
	tenantA := uuid.New()
	tenantB := uuid.New()
	sender := seedUser(t, tenantA, domain.RoleTeacher, true)
	parent := seedUser(t, tenantA, domain.RoleParent, true)

	createTestMessage(t, newTestMessage(tenantA, sender, domain.StudentMessage), []domain.UserId{parent})

	counts, err := storage.UnreadCounts(ctx, tenantB, parent)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Total, "Counts must never cross tenants")
}
