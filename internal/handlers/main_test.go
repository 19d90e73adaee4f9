package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/qubzes/baiyit/internal/auth"
	"github.com/qubzes/baiyit/internal/database"
	"github.com/qubzes/baiyit/internal/handlers"
	"github.com/qubzes/baiyit/internal/models"
	"github.com/qubzes/baiyit/internal/routes"
)

const testSecret = "test-secret-key-for-handler-tests"

// stubChecker is a canned policy decision point.
type stubChecker struct {
	allow bool
	err   error
}

func (s stubChecker) Check(ctx context.Context, userKey, action, resource string) (bool, error) {
	return s.allow, s.err
}

// stubDirectory swallows user/role sync calls.
type stubDirectory struct {
	synced []string
}

func (d *stubDirectory) SyncUser(ctx context.Context, user *models.User) error {
	d.synced = append(d.synced, user.Email)
	return nil
}

func (d *stubDirectory) AssignRole(ctx context.Context, userKey, role string) error {
	return nil
}

type capturedMail struct {
	Email      string
	Code       string
	NewAccount bool
}

// captureMailer records queued OTP emails instead of pushing to Redis.
type captureMailer struct {
	jobs []capturedMail
}

func (m *captureMailer) EnqueueOTP(ctx context.Context, user *models.User, code string, isNew bool) error {
	m.jobs = append(m.jobs, capturedMail{Email: user.Email, Code: code, NewAccount: isNew})
	return nil
}

func (m *captureMailer) last(t *testing.T) capturedMail {
	t.Helper()
	require.NotEmpty(t, m.jobs, "expected a queued email")
	return m.jobs[len(m.jobs)-1]
}

type testServer struct {
	app      *fiber.App
	db       *gorm.DB
	sessions *auth.Manager
	mailer   *captureMailer
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithChecker(t, stubChecker{allow: true})
}

func newTestServerWithChecker(t *testing.T, checker stubChecker) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sessions := auth.NewManager(db, auth.Config{
		Secret:     testSecret,
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	mailer := &captureMailer{}

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	routes.Register(app, routes.Deps{
		DB:        db,
		Sessions:  sessions,
		Checker:   checker,
		Directory: &stubDirectory{},
		Mailer:    mailer,
	})

	return &testServer{app: app, db: db, sessions: sessions, mailer: mailer}
}

// signedInUser creates a user directly and mints a token pair for it.
func (s *testServer) signedInUser(t *testing.T, email string, role models.UserRole) (*models.User, *auth.TokenPair) {
	t.Helper()

	user := models.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Role:      role,
	}
	require.NoError(t, s.db.Create(&user).Error)

	pair, err := s.sessions.Issue(context.Background(), user.ID)
	require.NoError(t, err)
	return &user, pair
}

func (s *testServer) request(t *testing.T, method, path string, body any, token string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}
