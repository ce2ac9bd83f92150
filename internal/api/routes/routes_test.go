package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christi903/fraudwatch-service/internal/api/handlers"
	"github.com/christi903/fraudwatch-service/internal/domain/entities"
	"github.com/christi903/fraudwatch-service/internal/domain/services/identity"
	"github.com/christi903/fraudwatch-service/internal/domain/services/records"
	"github.com/christi903/fraudwatch-service/internal/domain/services/review"
	"github.com/christi903/fraudwatch-service/internal/domain/services/stats"
	"github.com/christi903/fraudwatch-service/internal/infrastructure/adapters"
	"github.com/christi903/fraudwatch-service/internal/infrastructure/config"
	"github.com/christi903/fraudwatch-service/internal/infrastructure/repositories"
	"github.com/christi903/fraudwatch-service/pkg/auth"
	"github.com/christi903/fraudwatch-service/pkg/logger"
)

const testSecret = "test-secret"

var transactionRowColumns = []string{
	"id", "initiator", "recipient", "amount", "transaction_type", "status",
	"fraud_probability", "description", "location", "transaction_time", "created_at",
}

// testSubscriber hands the registered callback to the test so it can
// inject change events.
type testSubscriber struct {
	mu sync.Mutex
	fn func(entities.ChangeEvent)
}

func (s *testSubscriber) Subscribe(_ context.Context, _ string, fn func(entities.ChangeEvent)) (func(), error) {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
	return func() {}, nil
}

func (s *testSubscriber) registered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fn != nil
}

func (s *testSubscriber) emit(event entities.ChangeEvent) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	if fn != nil {
		fn(event)
	}
}

func setupRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	return setupRouterWithSubscriber(t, nil)
}

func setupRouterWithSubscriber(t *testing.T, subscriber records.Subscriber) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	cfg := &config.Config{
		Environment: "development",
		LogLevel:    "error",
		Server: config.ServerConfig{
			RateLimitRequests:  1000,
			RateLimitWindowMin: 15,
			AllowedOrigins:     []string{"*"},
		},
		JWT: config.JWTConfig{Secret: testSecret, Issuer: "fraudwatch"},
	}
	log := logger.New(cfg.LogLevel, cfg.Environment)

	transactionRepo := repositories.NewTransactionRepository(sqlxDB, log.Zap())
	reviewRepo := repositories.NewReviewRepository(sqlxDB, log.Zap())
	userRepo := repositories.NewUserRepository(sqlxDB, log.Zap())
	statsRepo := repositories.NewStatsRepository(sqlxDB, log.Zap())

	resolver := identity.NewResolver(userRepo, log.Zap())
	statsService := stats.NewService(statsRepo, nil, log.Zap(), time.Minute)
	sessions := records.NewRegistry(context.Background(), transactionRepo, subscriber,
		func() *review.Service {
			return review.NewService(transactionRepo, reviewRepo, resolver, nil, log.Zap())
		}, log.Zap(), 25)
	t.Cleanup(sessions.CloseAll)

	emailService := adapters.NewEmailService(log.Zap(), adapters.EmailServiceConfig{
		Environment: "development",
		FromEmail:   "no-reply@fraudwatch.io",
		BaseURL:     "http://localhost:3000",
	})

	router := SetupRoutes(cfg, log, Handlers{
		Auth:         handlers.NewAuthHandler(userRepo, emailService, cfg, log),
		Users:        handlers.NewUserHandler(userRepo, log),
		Transactions: handlers.NewTransactionHandler(transactionRepo, reviewRepo, sessions, statsService, log),
		Health:       handlers.NewHealthHandler(sqlxDB, nil, log),
	})
	return router, mock
}

func bearerToken(t *testing.T, email string) string {
	t.Helper()
	token, err := auth.GenerateToken(uuid.New(), email, "analyst", testSecret, "fraudwatch", time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestListTransactionsRequiresAuth(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListTransactionsInvalidToken(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListTransactions(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transactions WHERE status = \$1`).
		WithArgs("FLAGGED").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`ORDER BY transaction_time DESC LIMIT 25 OFFSET 0`).
		WithArgs("FLAGGED").
		WillReturnRows(sqlmock.NewRows(transactionRowColumns).
			AddRow(id, "alice", "bob", "120.50", "TRANSFER", "FLAGGED", 0.82, nil, nil, now, now))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/transactions?status=FLAGGED", nil)
	req.Header.Set("Authorization", bearerToken(t, "analyst@fraudwatch.io"))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp entities.TransactionListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalCount)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, id, resp.Rows[0].ID)
	assert.Equal(t, entities.SeverityHigh, resp.Rows[0].Severity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTransactionsIgnoresBadAmount(t *testing.T) {
	router, mock := setupRouter(t)

	// No amount predicate lands in the SQL when the bound is unreadable.
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transactions$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`FROM transactions ORDER BY transaction_time DESC LIMIT 25 OFFSET 0`).
		WillReturnRows(sqlmock.NewRows(transactionRowColumns))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/transactions?min_amount=abc", nil)
	req.Header.Set("Authorization", bearerToken(t, "analyst@fraudwatch.io"))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp entities.TransactionListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.TotalCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveReviewWithoutStagedEdit(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	url := fmt.Sprintf("/api/transactions/%s/review", uuid.New())
	req := httptest.NewRequest(http.MethodPost, url, nil)
	req.Header.Set("Authorization", bearerToken(t, "analyst@fraudwatch.io"))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp entities.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NO_CHANGES", resp.Code)
	assert.NotEmpty(t, resp.RequestID)
}

func TestStagedEditInvisibleToOtherReviewer(t *testing.T) {
	router, mock := setupRouter(t)

	txID := uuid.New()
	now := time.Now()

	// Only Alice's staging touches the database; Bob's save must not.
	mock.ExpectQuery(`FROM transactions WHERE id = \$1`).
		WithArgs(txID).
		WillReturnRows(sqlmock.NewRows(transactionRowColumns).
			AddRow(txID, "alice", "bob", "120.50", "TRANSFER", "LEGITIMATE", 0.82, nil, nil, now, now))

	alice := bearerToken(t, "alice@fraudwatch.io")
	bob := bearerToken(t, "bob@fraudwatch.io")

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"new_status":"BLOCKED"}`)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/transactions/%s/edit", txID), body)
	req.Header.Set("Authorization", alice)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/transactions/%s/review", txID), nil)
	req.Header.Set("Authorization", bob)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp entities.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NO_CHANGES", resp.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStageEditThenSaveReview(t *testing.T) {
	router, mock := setupRouter(t)

	txID := uuid.New()
	userID := uuid.New()
	now := time.Now()

	// Staging loads the row to capture its current status.
	mock.ExpectQuery(`FROM transactions WHERE id = \$1`).
		WithArgs(txID).
		WillReturnRows(sqlmock.NewRows(transactionRowColumns).
			AddRow(txID, "alice", "bob", "120.50", "TRANSFER", "LEGITIMATE", 0.82, nil, nil, now, now))

	// Saving resolves the reviewer, updates the status, appends the audit row.
	mock.ExpectQuery(`FROM users WHERE email = \$1 AND is_active = true`).
		WithArgs("analyst@fraudwatch.io").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "auth_provider_id", "email", "first_name", "last_name", "role",
			"email_verified", "is_active", "created_at", "updated_at",
		}).AddRow(userID, uuid.NewString(), "analyst@fraudwatch.io", "Grace", "Mushi", "analyst", true, true, now, now))
	mock.ExpectExec(`UPDATE transactions SET status = \$2 WHERE id = \$1`).
		WithArgs(txID, entities.StatusFlagged).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO transaction_reviews`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	token := bearerToken(t, "analyst@fraudwatch.io")

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"new_status":"FLAGGED","notes":"mule pattern"}`)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/transactions/%s/edit", txID), body)
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/transactions/%s/review", txID), nil)
	req.Header.Set("Authorization", token)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyEmailMissingToken(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify-email", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetPasswordRejectsInvalidEmail(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/reset-password", strings.NewReader(`{"email":"not-an-email"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportCSVZeroRows(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transactions`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`ORDER BY transaction_time DESC`).
		WillReturnRows(sqlmock.NewRows(transactionRowColumns))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/transactions/export/csv", nil)
	req.Header.Set("Authorization", bearerToken(t, "analyst@fraudwatch.io"))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "Transaction ID")
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(w.Body.String()), "\n")+1)
}

func TestLiveEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterRequiresNames(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"firstName":"","lastName":""}`))
	req.Header.Set("Authorization", bearerToken(t, "new@fraudwatch.io"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterAlreadyRegistered(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("existing@fraudwatch.io").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"firstName":"Grace","lastName":"Mushi"}`))
	req.Header.Set("Authorization", bearerToken(t, "existing@fraudwatch.io"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// syncRecorder makes the recorder body readable while the stream
// handler is still writing to it.
type syncRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(p)
}

func (r *syncRecorder) WriteString(s string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.WriteString(s)
}

func (r *syncRecorder) CloseNotify() <-chan bool {
	return make(chan bool)
}

func (r *syncRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Body.String()
}

func TestStreamDeliversInsertEvents(t *testing.T) {
	sub := &testSubscriber{}
	router, mock := setupRouterWithSubscriber(t, sub)

	// The event also triggers a background refetch.
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transactions`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`ORDER BY transaction_time DESC`).
		WillReturnRows(sqlmock.NewRows(transactionRowColumns))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/transactions/stream", nil).WithContext(ctx)
	req.Header.Set("Authorization", bearerToken(t, "analyst@fraudwatch.io"))

	w := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}
	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()

	require.Eventually(t, sub.registered, 2*time.Second, 5*time.Millisecond)

	rowID := uuid.NewString()
	sub.emit(entities.ChangeEvent{Table: "transactions", Kind: entities.ChangeInsert, RowID: rowID})

	require.Eventually(t, func() bool {
		return strings.Contains(w.body(), rowID)
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done

	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
	assert.Contains(t, w.body(), "event:change")
}

func TestGetUserNotFound(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectQuery(`FROM users WHERE auth_provider_id = \$1 AND is_active = true`).
		WithArgs("ext-404").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users/ext-404", nil)
	req.Header.Set("Authorization", bearerToken(t, "analyst@fraudwatch.io"))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
