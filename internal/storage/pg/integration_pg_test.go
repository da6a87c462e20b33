package pg

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/schoolink-dev/schoolink/internal/config"
	"github.com/schoolink-dev/schoolink/internal/domain"
	internal_errors "github.com/schoolink-dev/schoolink/internal/errors"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var storage *Storage

func TestMain(m *testing.M) {
	ctx := context.Background()
	var container *postgres.PostgresContainer
	storage, container = mustSetup(ctx)
	defer teardown(ctx, storage, container)

	exitCode := m.Run()
	os.Exit(exitCode)
}

func mustSetup(ctx context.Context) (*Storage, *postgres.PostgresContainer) {
	dbName := "schoolink"
	dbUser := "user"
	dbPassword := "password"
	container, err := postgres.Run(ctx,
		"postgres:15.3-alpine",
		postgres.WithInitScripts(filepath.Join("migrations", "init.sql")),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			// First, we wait for the container to log readiness twice.
			// This is because it will restart itself after the first startup.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("failed to start container: %s", err)
	}
	containerPort, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("failed to obtain container port: %s", err)
	}
	port, err := strconv.Atoi(containerPort.Port())
	if err != nil {
		log.Fatalf("failed to obtain int container port: %s", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("failed to obtain container host: %s", err)
	}

	storage, err := New(&config.Config{
		Public:  config.Public{PageSize: 20, MaxPageSize: 100},
		Private: config.Private{Pg: config.Pg{Host: host, Port: port, User: dbUser, Password: dbPassword, Dbname: dbName}},
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres container: %s", err)
	}
	return storage, container
}

func teardown(ctx context.Context, storage *Storage, container *postgres.PostgresContainer) {
	if err := storage.Cleanup(); err != nil {
		log.Printf("failed to close storage connection: %s", err)
	}
	if err := container.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %s", err)
	}
}

func requireNotFoundError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, 404, internal_errors.StatusCode(err))
}

// Every test seeds its own tenant, so tests are isolated by tenant id and
// nothing needs cleaning between them.

func seedUser(t *testing.T, tenantId domain.TenantId, role domain.Role, active bool) domain.UserId {
	t.Helper()
	id := uuid.New()
	_, err := storage.db.Exec(`
	INSERT INTO users(id, tenant_id, role, is_active)
	VALUES($1, $2, $3, $4)`, id, tenantId, string(role), active)
	require.NoError(t, err)
	return id
}

func seedClass(t *testing.T, tenantId domain.TenantId) domain.ClassId {
	t.Helper()
	id := uuid.New()
	_, err := storage.db.Exec(`
	INSERT INTO school_classes(id, tenant_id, name)
	VALUES($1, $2, $3)`, id, tenantId, "1A")
	require.NoError(t, err)
	return id
}

func seedStudent(t *testing.T, tenantId domain.TenantId, classId *domain.ClassId) domain.StudentId {
	t.Helper()
	id := uuid.New()
	_, err := storage.db.Exec(`
	INSERT INTO students(id, tenant_id, class_id)
	VALUES($1, $2, $3)`, id, tenantId, classId)
	require.NoError(t, err)
	return id
}

func linkParent(t *testing.T, tenantId domain.TenantId, parentId domain.UserId, studentId domain.StudentId, active bool) {
	t.Helper()
	_, err := storage.db.Exec(`
	INSERT INTO parent_students(tenant_id, parent_id, student_id, is_active)
	VALUES($1, $2, $3, $4)`, tenantId, parentId, studentId, active)
	require.NoError(t, err)
}

func seedFile(t *testing.T, tenantId domain.TenantId) domain.FileId {
	t.Helper()
	id := uuid.New()
	_, err := storage.db.Exec(`
	INSERT INTO file_entities(id, tenant_id, file_name)
	VALUES($1, $2, $3)`, id, tenantId, "photo.jpg")
	require.NoError(t, err)
	return id
}

func newTestMessage(tenantId domain.TenantId, senderId domain.UserId, msgType domain.MessageType) *domain.Message {
	subject := "Subject"
	return &domain.Message{
		Id:        uuid.New(),
		TenantId:  tenantId,
		SenderId:  senderId,
		Type:      msgType,
		Subject:   &subject,
		Body:      "Body text",
		Status:    domain.StatusSent,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func createTestMessage(t *testing.T, msg *domain.Message, recipients []domain.UserId) *domain.Message {
	t.Helper()
	created, err := storage.CreateMessage(context.Background(), msg, recipients)
	require.NoError(t, err)
	return created
}
