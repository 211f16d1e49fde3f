package actions

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/carson-networks/finance-tracker/internal/models"
	"github.com/carson-networks/finance-tracker/internal/storage"
	"github.com/carson-networks/finance-tracker/internal/storage/transaction"
)

type mockTransactionWriter struct {
	mock.Mock
}

func (m *mockTransactionWriter) ListByOwner(ctx context.Context, userID string) ([]models.Transaction, error) {
	args := m.Called(ctx, userID)
	txs, _ := args.Get(0).([]models.Transaction)
	return txs, args.Error(1)
}

func (m *mockTransactionWriter) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	tx, _ := args.Get(0).(*models.Transaction)
	return tx, args.Error(1)
}

func (m *mockTransactionWriter) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	tx, _ := args.Get(0).(*models.Transaction)
	return tx, args.Error(1)
}

func (m *mockTransactionWriter) Insert(ctx context.Context, create *transaction.TransactionCreate) error {
	return m.Called(ctx, create).Error(0)
}

func (m *mockTransactionWriter) Update(ctx context.Context, id uuid.UUID, update *transaction.TransactionUpdate) error {
	return m.Called(ctx, id, update).Error(0)
}

func (m *mockTransactionWriter) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockBudgetWriter struct {
	mock.Mock
}

func (m *mockBudgetWriter) Load(ctx context.Context, userID string) (models.BudgetMap, bool, error) {
	args := m.Called(ctx, userID)
	budgets, _ := args.Get(0).(models.BudgetMap)
	return budgets, args.Bool(1), args.Error(2)
}

func (m *mockBudgetWriter) EnsureMap(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockBudgetWriter) Upsert(ctx context.Context, userID, category string, amount decimal.Decimal) error {
	return m.Called(ctx, userID, category, amount).Error(0)
}

func ptr[T any](v T) *T {
	return &v
}

func TestCreateTransaction_Perform(t *testing.T) {
	txWriter := new(mockTransactionWriter)
	id := uuid.Must(uuid.NewV4())
	txWriter.On("Insert", mock.Anything, mock.MatchedBy(func(c *transaction.TransactionCreate) bool {
		return c.ID == id && c.UserID == "u1" && c.Amount.Equal(decimal.NewFromInt(40)) &&
			c.Type == models.TransactionTypeExpense && c.Category == "food" && c.Description == "Lunch"
	})).Return(nil)

	action := &CreateTransaction{
		ID: id, UserID: "u1", Description: "Lunch", Amount: decimal.NewFromInt(40),
		Type: models.TransactionTypeExpense, Category: "food",
	}
	err := action.Perform(context.Background(), &storage.Writer{Transactions: txWriter})

	assert.NoError(t, err)
	assert.Equal(t, "u1", action.Owner())
	txWriter.AssertExpectations(t)
}

func TestUpdateTransaction_PartialFields(t *testing.T) {
	txWriter := new(mockTransactionWriter)
	id := uuid.Must(uuid.NewV4())
	txWriter.On("FindByIDForUpdate", mock.Anything, id).Return(&models.Transaction{
		ID: id, UserID: "u1", Type: models.TransactionTypeExpense, Category: "food",
	}, nil)
	txWriter.On("Update", mock.Anything, id, mock.MatchedBy(func(u *transaction.TransactionUpdate) bool {
		amount, ok := u.Amount.Get()
		return ok && amount.Equal(decimal.NewFromInt(55)) &&
			!u.Description.IsValue() && !u.Type.IsValue() && !u.Category.IsValue()
	})).Return(nil)

	action := &UpdateTransaction{ID: id, UserID: "u1", Patch: models.TransactionPatch{Amount: ptr(decimal.NewFromInt(55))}}
	err := action.Perform(context.Background(), &storage.Writer{Transactions: txWriter})

	assert.NoError(t, err)
	txWriter.AssertExpectations(t)
}

func TestUpdateTransaction_TypeChangeRevalidatesCategory(t *testing.T) {
	txWriter := new(mockTransactionWriter)
	id := uuid.Must(uuid.NewV4())
	txWriter.On("FindByIDForUpdate", mock.Anything, id).Return(&models.Transaction{
		ID: id, UserID: "u1", Type: models.TransactionTypeExpense, Category: "food",
	}, nil)

	action := &UpdateTransaction{ID: id, UserID: "u1", Patch: models.TransactionPatch{
		Type: ptr(models.TransactionTypeIncome),
	}}
	err := action.Perform(context.Background(), &storage.Writer{Transactions: txWriter})

	assert.ErrorIs(t, err, models.ErrInvalidCategory)
	txWriter.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateTransaction_OtherOwner(t *testing.T) {
	txWriter := new(mockTransactionWriter)
	id := uuid.Must(uuid.NewV4())
	txWriter.On("FindByIDForUpdate", mock.Anything, id).Return(&models.Transaction{ID: id, UserID: "u2"}, nil)

	action := &UpdateTransaction{ID: id, UserID: "u1", Patch: models.TransactionPatch{Description: ptr("x")}}
	err := action.Perform(context.Background(), &storage.Writer{Transactions: txWriter})

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteTransaction_Perform(t *testing.T) {
	txWriter := new(mockTransactionWriter)
	id := uuid.Must(uuid.NewV4())
	txWriter.On("FindByIDForUpdate", mock.Anything, id).Return(&models.Transaction{ID: id, UserID: "u1"}, nil)
	txWriter.On("Delete", mock.Anything, id).Return(nil)

	err := (&DeleteTransaction{ID: id, UserID: "u1"}).Perform(context.Background(), &storage.Writer{Transactions: txWriter})

	assert.NoError(t, err)
	txWriter.AssertExpectations(t)
}

func TestDeleteTransaction_Missing(t *testing.T) {
	txWriter := new(mockTransactionWriter)
	id := uuid.Must(uuid.NewV4())
	txWriter.On("FindByIDForUpdate", mock.Anything, id).Return(nil, nil)

	err := (&DeleteTransaction{ID: id, UserID: "u1"}).Perform(context.Background(), &storage.Writer{Transactions: txWriter})

	assert.ErrorIs(t, err, models.ErrNotFound)
	txWriter.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSetBudget_Perform(t *testing.T) {
	budgetWriter := new(mockBudgetWriter)
	budgetWriter.On("Upsert", mock.Anything, "u1", "transportation", decimal.NewFromInt(3000)).Return(nil)

	err := (&SetBudget{UserID: "u1", Category: "transportation", Amount: decimal.NewFromInt(3000)}).
		Perform(context.Background(), &storage.Writer{Budgets: budgetWriter})

	assert.NoError(t, err)
	budgetWriter.AssertExpectations(t)
}

func TestEnsureBudgetMap_Perform(t *testing.T) {
	budgetWriter := new(mockBudgetWriter)
	budgetWriter.On("EnsureMap", mock.Anything, "u1").Return(nil)

	err := (&EnsureBudgetMap{UserID: "u1"}).Perform(context.Background(), &storage.Writer{Budgets: budgetWriter})

	assert.NoError(t, err)
	budgetWriter.AssertExpectations(t)
}
