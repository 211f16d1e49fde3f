package budget

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/finance-tracker/internal/budget"
	"github.com/carson-networks/finance-tracker/internal/models"
	"github.com/carson-networks/finance-tracker/internal/session"
)

const authHeader = "Authorization: Bearer good-token"

type fakeSessions struct{}

func (fakeSessions) Resolve(token string) (*session.Session, error) {
	if token != "Bearer good-token" {
		return nil, models.ErrUnauthenticated
	}
	return &session.Session{Identity: session.Identity{UserID: "u1"}}, nil
}

type mockBudgetTracker struct {
	mock.Mock
}

func (m *mockBudgetTracker) Budgets(ctx context.Context, userID string) (models.BudgetMap, error) {
	args := m.Called(ctx, userID)
	budgets, _ := args.Get(0).(models.BudgetMap)
	return budgets, args.Error(1)
}

func (m *mockBudgetTracker) SetBudget(ctx context.Context, userID, category string, amount decimal.Decimal) error {
	return m.Called(ctx, userID, category, amount).Error(0)
}

func (m *mockBudgetTracker) Usage(ctx context.Context, userID string) ([]budget.CategoryUsage, error) {
	args := m.Called(ctx, userID)
	usage, _ := args.Get(0).([]budget.CategoryUsage)
	return usage, args.Error(1)
}

func newTestAPI(t *testing.T, tracker budgetTracker) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	NewHandler(fakeSessions{}, tracker).Register(api)
	return api
}

func TestHTTP_GetBudgets(t *testing.T) {
	tracker := new(mockBudgetTracker)
	tracker.On("Budgets", mock.Anything, "u1").Return(models.BudgetMap{
		"food":           decimal.NewFromInt(5000),
		"transportation": decimal.NewFromInt(3000),
	}, nil)

	resp := newTestAPI(t, tracker).Get("/v1/budget", authHeader)

	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Budgets map[string]string `json:"budgets"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]string{"food": "5000.00", "transportation": "3000.00"}, body.Budgets)
}

func TestHTTP_GetBudgets_Unauthorized(t *testing.T) {
	tracker := new(mockBudgetTracker)

	resp := newTestAPI(t, tracker).Get("/v1/budget", "Authorization: Bearer expired")

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	tracker.AssertNotCalled(t, "Budgets", mock.Anything, mock.Anything)
}

func TestHTTP_SetBudget(t *testing.T) {
	tracker := new(mockBudgetTracker)
	tracker.On("SetBudget", mock.Anything, "u1", "transportation", mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(3000))
	})).Return(nil)

	resp := newTestAPI(t, tracker).Put("/v1/budget/transportation", authHeader, SetBudgetBody{Amount: "3000"})

	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Category string `json:"category"`
		Amount   string `json:"amount"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "transportation", body.Category)
	assert.Equal(t, "3000.00", body.Amount)
	tracker.AssertExpectations(t)
}

func TestHTTP_SetBudget_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		category string
		amount   string
		err      error
		status   int
	}{
		{name: "income category", category: "salary", amount: "100", err: models.ErrInvalidCategory, status: http.StatusBadRequest},
		{name: "negative", category: "food", amount: "-1", err: models.ErrInvalidBudget, status: http.StatusBadRequest},
		{name: "store down", category: "food", amount: "10", err: models.ErrUnavailable, status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := new(mockBudgetTracker)
			tracker.On("SetBudget", mock.Anything, "u1", tt.category, mock.Anything).Return(tt.err)

			resp := newTestAPI(t, tracker).Put("/v1/budget/"+tt.category, authHeader, SetBudgetBody{Amount: tt.amount})

			assert.Equal(t, tt.status, resp.Code)
		})
	}
}

func TestHTTP_SetBudget_InvalidAmount(t *testing.T) {
	tracker := new(mockBudgetTracker)

	for _, amount := range []string{"abc", "99.995", "10000000000000000"} {
		resp := newTestAPI(t, tracker).Put("/v1/budget/food", authHeader, SetBudgetBody{Amount: amount})

		assert.Equal(t, http.StatusBadRequest, resp.Code, amount)
	}
	tracker.AssertNotCalled(t, "SetBudget", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHTTP_GetUsage(t *testing.T) {
	tracker := new(mockBudgetTracker)
	tracker.On("Usage", mock.Anything, "u1").Return([]budget.CategoryUsage{
		{
			Category: "food",
			Spending: decimal.NewFromInt(6000),
			Budget:   decimal.NewFromInt(5000),
			Percent:  decimal.NewFromInt(120),
			Status:   budget.UsageOver,
		},
		{
			Category: "shopping",
			Spending: decimal.Zero,
			Budget:   decimal.Zero,
			Percent:  decimal.Zero,
			Status:   budget.UsageNone,
		},
	}, nil)

	resp := newTestAPI(t, tracker).Get("/v1/budget/usage", authHeader)

	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Categories []CategoryUsage `json:"categories"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Categories, 2)
	assert.Equal(t, CategoryUsage{
		Category: "food",
		Spending: "6000.00",
		Budget:   "5000.00",
		Percent:  "120.0",
		Status:   "over",
	}, body.Categories[0])
	assert.Equal(t, "none", body.Categories[1].Status)
}
