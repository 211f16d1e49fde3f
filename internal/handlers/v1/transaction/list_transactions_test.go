package transaction

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/finance-tracker/internal/aggregator"
	"github.com/carson-networks/finance-tracker/internal/models"
)

type mockSnapshotReader struct {
	mock.Mock
}

func (m *mockSnapshotReader) Snapshot(ctx context.Context, userID string) (aggregator.Snapshot, error) {
	args := m.Called(ctx, userID)
	snapshot, _ := args.Get(0).(aggregator.Snapshot)
	return snapshot, args.Error(1)
}

func newListTestAPI(t *testing.T, reader snapshotReader) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	NewListTransactionsHandler(fakeSessions{}, reader).Register(api)
	return api
}

func TestHTTP_ListTransactions_Success(t *testing.T) {
	created := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		{
			ID:          uuid.Must(uuid.NewV4()),
			UserID:      "u1",
			Description: "Salary",
			Amount:      decimal.NewNullDecimal(decimal.NewFromInt(10000)),
			Type:        models.TransactionTypeIncome,
			Category:    "salary",
			CreatedAt:   &created,
		},
		{
			ID:          uuid.Must(uuid.NewV4()),
			UserID:      "u1",
			Description: "Groceries",
			Amount:      decimal.NewNullDecimal(decimal.NewFromInt(4000)),
			Type:        models.TransactionTypeExpense,
			Category:    "food",
		},
	}

	reader := new(mockSnapshotReader)
	reader.On("Snapshot", mock.Anything, "u1").Return(aggregator.Snapshot{
		UserID:       "u1",
		Transactions: txs,
		Totals:       models.ComputeTotals(txs),
	}, nil)

	resp := newListTestAPI(t, reader).Get("/v1/transaction/list", authHeader)

	require.Equal(t, http.StatusOK, resp.Code)
	var body ListTransactionsResponseBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Transactions, 2)
	assert.Equal(t, txs[0].ID.String(), body.Transactions[0].ID)
	assert.Equal(t, "10000.00", body.Transactions[0].Amount)
	assert.Equal(t, "2025-06-15T08:00:00Z", body.Transactions[0].CreatedAt)
	assert.Equal(t, "expense", body.Transactions[1].Type)
	assert.Empty(t, body.Transactions[1].CreatedAt)
	assert.Equal(t, "6000.00", body.Totals.Balance)
	assert.Equal(t, "10000.00", body.Totals.Income)
	assert.Equal(t, "4000.00", body.Totals.Expense)
	assert.False(t, body.Loading)
}

func TestHTTP_ListTransactions_MissingAmountShownAsZero(t *testing.T) {
	txs := []models.Transaction{{
		ID:       uuid.Must(uuid.NewV4()),
		Type:     models.TransactionTypeExpense,
		Category: "food",
	}}
	reader := new(mockSnapshotReader)
	reader.On("Snapshot", mock.Anything, "u1").Return(aggregator.Snapshot{
		UserID:       "u1",
		Transactions: txs,
		Totals:       models.ComputeTotals(txs),
	}, nil)

	resp := newListTestAPI(t, reader).Get("/v1/transaction/list", authHeader)

	require.Equal(t, http.StatusOK, resp.Code)
	var body ListTransactionsResponseBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "0.00", body.Transactions[0].Amount)
	assert.Equal(t, "0.00", body.Totals.Balance)
}

func TestHTTP_ListTransactions_Loading(t *testing.T) {
	reader := new(mockSnapshotReader)
	reader.On("Snapshot", mock.Anything, "u1").Return(aggregator.Snapshot{
		UserID:       "u1",
		Transactions: []models.Transaction{},
		Totals:       models.ZeroTotals(),
		Loading:      true,
	}, nil)

	resp := newListTestAPI(t, reader).Get("/v1/transaction/list", authHeader)

	require.Equal(t, http.StatusOK, resp.Code)
	var body ListTransactionsResponseBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Loading)
	assert.Empty(t, body.Transactions)
}

func TestHTTP_ListTransactions_NoTracker(t *testing.T) {
	reader := new(mockSnapshotReader)
	reader.On("Snapshot", mock.Anything, "u1").Return(nil, models.ErrUnauthenticated)

	resp := newListTestAPI(t, reader).Get("/v1/transaction/list", authHeader)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestHTTP_ListTransactions_FeedUnavailable(t *testing.T) {
	reader := new(mockSnapshotReader)
	reader.On("Snapshot", mock.Anything, "u1").Return(nil, models.ErrUnavailable)

	resp := newListTestAPI(t, reader).Get("/v1/transaction/list", authHeader)

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
