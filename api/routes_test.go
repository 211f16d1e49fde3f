package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/finance-tracker/internal/budget"
	"github.com/carson-networks/finance-tracker/internal/feed"
	"github.com/carson-networks/finance-tracker/internal/models"
	"github.com/carson-networks/finance-tracker/internal/notify"
	"github.com/carson-networks/finance-tracker/internal/operator/actions"
	"github.com/carson-networks/finance-tracker/internal/service"
	"github.com/carson-networks/finance-tracker/internal/session"
	"github.com/carson-networks/finance-tracker/internal/tracker"
)

type recordingProcessor struct {
	mu      sync.Mutex
	actions []actions.IAction
}

func (p *recordingProcessor) Process(_ context.Context, action actions.IAction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, action)
	return nil
}

func (p *recordingProcessor) recorded() []actions.IAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]actions.IAction(nil), p.actions...)
}

type emptyLoader struct{}

func (emptyLoader) ListByOwner(context.Context, string) ([]models.Transaction, error) {
	return nil, nil
}

type existingBudgets struct{}

func (existingBudgets) Load(context.Context, string) (models.BudgetMap, bool, error) {
	return models.BudgetMap{}, true, nil
}

type memoryStore struct{}

func (memoryStore) LoadBudgets(context.Context, string) (models.BudgetMap, error) {
	return models.BudgetMap{}, nil
}

func (memoryStore) SetBudget(context.Context, string, string, decimal.Decimal) error {
	return nil
}

func newTestRest(t *testing.T, rps float64) (*Rest, *recordingProcessor) {
	t.Helper()
	logger := logrus.New()
	logger.Out = io.Discard

	processor := &recordingProcessor{}
	sessions := session.NewManager("routes-test-secret", "finance-tracker", time.Hour)
	sink := notify.NewMemorySink(10)
	registry := tracker.NewRegistry(
		feed.New(emptyLoader{}, feed.NewLocalNotifier(), logger),
		memoryStore{},
		budget.NewEvaluator("₦"),
		sink,
		logger,
	)
	registry.Follow(sessions, time.Second)
	t.Cleanup(func() {
		sessions.Close()
		registry.Close()
	})

	return &Rest{
		Logger:              logger,
		Port:                "0",
		Service:             service.NewService(processor, existingBudgets{}),
		Sessions:            sessions,
		Trackers:            registry,
		Notifications:       sink,
		TrustClientIdentity: true,
		RequestsPerSecond:   rps,
	}, processor
}

func do(handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRoutes_Status(t *testing.T) {
	rest, _ := newTestRest(t, 0)

	w := do(rest.Handler(), http.MethodGet, "/status", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_SignInThenUseTheAPI(t *testing.T) {
	rest, processor := newTestRest(t, 0)
	handler := rest.Handler()

	w := do(handler, http.MethodPost, "/v1/session", "", `{"userID":"u1","displayName":"Ada"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var signedIn struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&signedIn))

	w = do(handler, http.MethodGet, "/v1/transaction/list", signedIn.Token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list struct {
		Transactions []json.RawMessage `json:"transactions"`
		Loading      bool              `json:"loading"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Empty(t, list.Transactions)

	w = do(handler, http.MethodPost, "/v1/transaction", signedIn.Token,
		`{"description":"Groceries","amount":"4000","type":"expense","category":"food"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	recorded := processor.recorded()
	require.Len(t, recorded, 1)
	assert.Equal(t, "u1", recorded[0].Owner())

	w = do(handler, http.MethodPut, "/v1/budget/food", signedIn.Token, `{"amount":"5000"}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(handler, http.MethodDelete, "/v1/session", signedIn.Token, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(handler, http.MethodGet, "/v1/transaction/list", signedIn.Token, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, rest.Trackers.Len())
}

func TestRoutes_RateLimit(t *testing.T) {
	rest, _ := newTestRest(t, 1)
	handler := rest.Handler()

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, do(handler, http.MethodGet, "/v1/session", "", "").Code)
	}

	assert.Equal(t, http.StatusTooManyRequests, codes[2])
}
