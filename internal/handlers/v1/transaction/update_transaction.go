package transaction

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/finance-tracker/internal/handlers/v1/auth"
	"github.com/carson-networks/finance-tracker/internal/models"
)

// UpdateTransactionBody is the request body for a partial update. Absent
// fields are left untouched.
type UpdateTransactionBody struct {
	Description *string `json:"description,omitempty" doc:"New description"`
	Amount      *string `json:"amount,omitempty" doc:"New non-negative decimal amount"`
	Type        *string `json:"type,omitempty" enum:"income,expense" doc:"New transaction type"`
	Category    *string `json:"category,omitempty" doc:"New category name"`
}

// UpdateTransactionInput is the Huma input for updating a transaction.
type UpdateTransactionInput struct {
	Authorization string `header:"Authorization" required:"true" doc:"Bearer session token"`
	ID            string `path:"id" format:"uuid" doc:"Transaction UUID"`
	Body          UpdateTransactionBody
}

// UpdateTransactionOutput is the Huma output for updating a transaction.
type UpdateTransactionOutput struct {
	Status int `json:"-"`
}

// transactionUpdater is the interface for updating transactions.
type transactionUpdater interface {
	UpdateTransaction(ctx context.Context, userID string, id uuid.UUID, patch models.TransactionPatch) error
}

// UpdateTransactionHandler handles PATCH /v1/transaction/{id}.
type UpdateTransactionHandler struct {
	Sessions           auth.Authenticator
	TransactionService transactionUpdater
}

// NewUpdateTransactionHandler creates a new UpdateTransactionHandler.
func NewUpdateTransactionHandler(sessions auth.Authenticator, svc transactionUpdater) *UpdateTransactionHandler {
	return &UpdateTransactionHandler{Sessions: sessions, TransactionService: svc}
}

// Register registers the update transaction endpoint with the Huma API.
func (h *UpdateTransactionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "update-transaction",
		Method:        http.MethodPatch,
		Path:          "/v1/transaction/{id}",
		Summary:       "Update transaction",
		Description:   "Changes the given fields of one of the signed-in user's transactions.",
		Tags:          []string{"Transactions"},
		DefaultStatus: http.StatusNoContent,
	}, h.handle)
}

func parseUpdateTransactionInput(input *UpdateTransactionInput) (uuid.UUID, models.TransactionPatch, error) {
	id, err := uuid.FromString(input.ID)
	if err != nil {
		return uuid.Nil, models.TransactionPatch{}, huma.NewError(http.StatusBadRequest, "invalid id", err)
	}

	patch := models.TransactionPatch{
		Description: input.Body.Description,
		Category:    input.Body.Category,
	}
	if input.Body.Amount != nil {
		amount, err := models.ParseAmount(*input.Body.Amount)
		if err != nil {
			return uuid.Nil, models.TransactionPatch{}, huma.NewError(http.StatusBadRequest, "invalid amount", err)
		}
		patch.Amount = &amount
	}
	if input.Body.Type != nil {
		txType, err := models.ParseTransactionType(*input.Body.Type)
		if err != nil {
			return uuid.Nil, models.TransactionPatch{}, huma.NewError(http.StatusBadRequest, "invalid type", err)
		}
		patch.Type = &txType
	}

	return id, patch, nil
}

func (h *UpdateTransactionHandler) handle(ctx context.Context, input *UpdateTransactionInput) (*UpdateTransactionOutput, error) {
	userID, err := auth.UserID(ctx, h.Sessions, input.Authorization)
	if err != nil {
		return nil, err
	}

	id, patch, err := parseUpdateTransactionInput(input)
	if err != nil {
		return nil, err
	}

	if err := h.TransactionService.UpdateTransaction(ctx, userID, id, patch); err != nil {
		return nil, auth.Error("failed to update transaction", err)
	}

	return &UpdateTransactionOutput{Status: http.StatusNoContent}, nil
}
