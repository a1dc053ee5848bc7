package notification

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/pantryledger/internal/database"
)

type memoryStore struct {
	mu     sync.Mutex
	events []Event
}

func (m *memoryStore) Save(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memoryStore) saved() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewEvent(t *testing.T) {
	e := NewEvent("home", EventPaymentRecorded, WithExpense("exp-1"), WithPayment("pay-1"), WithActor("y"))

	assert.NotEqual(t, [16]byte{}, [16]byte(e.ID))
	assert.Equal(t, "home", e.HouseholdID)
	assert.Equal(t, EventPaymentRecorded, e.Type)
	require.NotNil(t, e.ExpenseID)
	assert.Equal(t, "exp-1", *e.ExpenseID)
	require.NotNil(t, e.PaymentID)
	assert.Equal(t, "pay-1", *e.PaymentID)
	assert.Equal(t, "y", e.ActorID)
	assert.Equal(t, time.UTC, e.CreatedAt.Location())
}

func TestWorker_DrainsOnShutdown(t *testing.T) {
	store := &memoryStore{}
	w := NewWorker(store, 10, quietLogger())
	w.Start()

	for range 5 {
		w.Publish(NewEvent("home", EventExpenseCreated))
	}
	w.Shutdown()

	assert.Len(t, store.saved(), 5)
}

func TestWorker_DropsWhenBufferFull(t *testing.T) {
	store := &memoryStore{}
	w := NewWorker(store, 1, quietLogger())

	w.Publish(NewEvent("home", EventExpenseCreated))
	w.Publish(NewEvent("home", EventExpenseDeleted))

	w.Start()
	w.Shutdown()

	saved := store.saved()
	require.Len(t, saved, 1)
	assert.Equal(t, EventExpenseCreated, saved[0].Type)
}

func TestDiscard(t *testing.T) {
	var p Publisher = Discard{}
	assert.NotPanics(t, func() { p.Publish(NewEvent("home", EventExpenseCreated)) })
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewSQLiteConnection(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.MigrateSQLite(context.Background(), db))
	return NewRepository(db)
}

func TestRepository_ListSince(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, typ := range []EventType{EventExpenseCreated, EventPaymentRecorded, EventExpenseSettled} {
		e := NewEvent("home", typ, WithExpense("exp-1"))
		e.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Save(ctx, e))
	}
	require.NoError(t, repo.Save(ctx, NewEvent("elsewhere", EventExpenseCreated)))

	all, err := repo.ListSince(ctx, "home", time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, EventExpenseCreated, all[0].Type)
	assert.Equal(t, "exp-1", *all[0].ExpenseID)
	assert.Nil(t, all[0].PaymentID)

	newer, err := repo.ListSince(ctx, "home", base, 10)
	require.NoError(t, err)
	require.Len(t, newer, 2)
	assert.Equal(t, EventPaymentRecorded, newer[0].Type)

	limited, err := repo.ListSince(ctx, "home", time.Time{}, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestService_RejectsFutureCursor(t *testing.T) {
	svc := NewService(newTestRepository(t))

	_, err := svc.Poll(context.Background(), "home", time.Now().Add(time.Hour), 10)

	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestHandler_Poll(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	e := NewEvent("home", EventExpenseCreated, WithExpense("exp-1"))
	require.NoError(t, repo.Save(ctx, e))

	r := chi.NewRouter()
	r.Mount("/households/{householdId}/events", NewHandler(NewService(repo)).Routes())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/households/home/events", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"event_type":"expense.created"`)
	assert.Contains(t, rec.Body.String(), e.ID.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/households/home/events?since=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
