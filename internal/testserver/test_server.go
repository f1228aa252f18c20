package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carebridge/carebridge/internal/domain/note"
	"github.com/carebridge/carebridge/internal/domain/schedule"
	"github.com/carebridge/carebridge/internal/domain/steps"
	"github.com/carebridge/carebridge/internal/domain/user"
	"github.com/carebridge/carebridge/internal/rabbit"
	"github.com/carebridge/carebridge/internal/sqlite"
	"github.com/carebridge/carebridge/internal/transport"
)

// TestServer runs the full HTTP API against an in-memory SQLite user
// store and in-memory stand-ins for the document store, due cache, and
// message queue.
type TestServer struct {
	Server    *httptest.Server
	DB        *sqlite.DB
	Users     *user.Service
	Notes     *note.Service
	Steps     *steps.Processor
	Schedules *schedule.Service
	NoteStore *NoteStore
	StepStore *StepStore
	Cache     *DueCache
	Publisher *QueuePublisher
}

func New(t *testing.T) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	issuer := user.NewTokenIssuer("test-secret")
	usersSvc := user.NewService(sqlite.NewUserRepository(db), issuer, nil)

	noteStore := NewNoteStore()
	publisher := NewQueuePublisher()
	notesSvc := note.NewService(noteStore, usersSvc, publisher, rabbit.NotesQueue, nil)

	cache := NewDueCache()
	schedulesSvc := schedule.NewService(NewStateStore(), cache, nil)

	stepStore := NewStepStore()
	processor := steps.NewProcessor(stepStore, schedulesSvc, nil)

	server := httptest.NewServer(transport.NewServer(usersSvc, notesSvc, processor, schedulesSvc, issuer, nil))

	ts := &TestServer{
		Server:    server,
		DB:        db,
		Users:     usersSvc,
		Notes:     notesSvc,
		Steps:     processor,
		Schedules: schedulesSvc,
		NoteStore: noteStore,
		StepStore: stepStore,
		Cache:     cache,
		Publisher: publisher,
	}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// RegisterUser creates an account directly through the user service.
func (ts *TestServer) RegisterUser(t *testing.T, email, password string, role user.Role) *user.User {
	t.Helper()

	u, err := ts.Users.Register(context.Background(), user.RegisterRequest{
		Email:     email,
		Password:  password,
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
	})
	require.NoError(t, err)
	return u
}

// AccessToken logs the account in and returns its access token.
func (ts *TestServer) AccessToken(t *testing.T, email, password string) string {
	t.Helper()

	result, err := ts.Users.Login(context.Background(), email, password)
	require.NoError(t, err)
	return result.Access
}
