package transaction

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/finance-tracker/internal/handlers/v1/auth"
	"github.com/carson-networks/finance-tracker/internal/models"
)

// CreateTransactionBody is the request body for creating a transaction.
type CreateTransactionBody struct {
	Description string `json:"description" required:"true" minLength:"1" doc:"What the money was for"`
	Amount      string `json:"amount" required:"true" doc:"Non-negative decimal amount"`
	Type        string `json:"type" required:"true" enum:"income,expense" doc:"Transaction type"`
	Category    string `json:"category,omitempty" doc:"Category name, defaults to the type's general category"`
}

// CreateTransactionInput is the Huma input for creating a transaction.
type CreateTransactionInput struct {
	Authorization string `header:"Authorization" required:"true" doc:"Bearer session token"`
	Body          CreateTransactionBody
}

// CreateTransactionResponse is the response body for a created transaction.
type CreateTransactionResponse struct {
	ID string `json:"id" doc:"UUID of the new transaction"`
}

// CreateTransactionOutput is the Huma output for creating a transaction.
type CreateTransactionOutput struct {
	Status int `json:"-"`
	Body   CreateTransactionResponse
}

// transactionCreator is the interface for creating transactions.
type transactionCreator interface {
	CreateTransaction(ctx context.Context, userID string, input models.NewTransaction) (uuid.UUID, error)
}

// CreateTransactionHandler handles POST /v1/transaction.
type CreateTransactionHandler struct {
	Sessions           auth.Authenticator
	TransactionService transactionCreator
}

// NewCreateTransactionHandler creates a new CreateTransactionHandler.
func NewCreateTransactionHandler(sessions auth.Authenticator, svc transactionCreator) *CreateTransactionHandler {
	return &CreateTransactionHandler{Sessions: sessions, TransactionService: svc}
}

// Register registers the create transaction endpoint with the Huma API.
func (h *CreateTransactionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-transaction",
		Method:        http.MethodPost,
		Path:          "/v1/transaction",
		Summary:       "Create transaction",
		Description:   "Records a new transaction for the signed-in user.",
		Tags:          []string{"Transactions"},
		DefaultStatus: http.StatusCreated,
	}, h.handle)
}

// parseCreateTransactionInput parses and validates the API input.
func parseCreateTransactionInput(input *CreateTransactionInput) (models.NewTransaction, error) {
	amount, err := models.ParseAmount(input.Body.Amount)
	if err != nil {
		return models.NewTransaction{}, huma.NewError(http.StatusBadRequest, "invalid amount", err)
	}
	txType, err := models.ParseTransactionType(input.Body.Type)
	if err != nil {
		return models.NewTransaction{}, huma.NewError(http.StatusBadRequest, "invalid type", err)
	}

	return models.NewTransaction{
		Description: input.Body.Description,
		Amount:      amount,
		Type:        txType,
		Category:    input.Body.Category,
	}, nil
}

func (h *CreateTransactionHandler) handle(ctx context.Context, input *CreateTransactionInput) (*CreateTransactionOutput, error) {
	userID, err := auth.UserID(ctx, h.Sessions, input.Authorization)
	if err != nil {
		return nil, err
	}

	newTransaction, err := parseCreateTransactionInput(input)
	if err != nil {
		return nil, err
	}

	id, err := h.TransactionService.CreateTransaction(ctx, userID, newTransaction)
	if err != nil {
		return nil, auth.Error("failed to create transaction", err)
	}

	return &CreateTransactionOutput{
		Status: http.StatusCreated,
		Body:   CreateTransactionResponse{ID: id.String()},
	}, nil
}
