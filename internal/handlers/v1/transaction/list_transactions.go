package transaction

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/finance-tracker/internal/aggregator"
	"github.com/carson-networks/finance-tracker/internal/handlers/v1/auth"
	"github.com/carson-networks/finance-tracker/internal/logging"
)

// Totals is the API response model for the derived totals.
type Totals struct {
	Balance string `json:"balance" doc:"Income minus expense"`
	Income  string `json:"income" doc:"Sum of income amounts"`
	Expense string `json:"expense" doc:"Sum of expense amounts"`
}

// ListTransactionsInput is the Huma input for listing transactions.
type ListTransactionsInput struct {
	Authorization string `header:"Authorization" required:"true" doc:"Bearer session token"`
}

// ListTransactionsResponseBody is the response body for listing transactions.
type ListTransactionsResponseBody struct {
	Transactions []Transaction `json:"transactions" doc:"All of the user's transactions, oldest first"`
	Totals       Totals        `json:"totals" doc:"Totals over the listed transactions"`
	Loading      bool          `json:"loading" doc:"True until the first snapshot has arrived"`
}

// ListTransactionsOutput is the Huma output for listing transactions.
type ListTransactionsOutput struct {
	Body ListTransactionsResponseBody
}

// snapshotReader is the interface for reading the live transaction snapshot.
type snapshotReader interface {
	Snapshot(ctx context.Context, userID string) (aggregator.Snapshot, error)
}

// ListTransactionsHandler handles GET /v1/transaction/list.
type ListTransactionsHandler struct {
	Sessions  auth.Authenticator
	Snapshots snapshotReader
}

// NewListTransactionsHandler creates a new ListTransactionsHandler.
func NewListTransactionsHandler(sessions auth.Authenticator, snapshots snapshotReader) *ListTransactionsHandler {
	return &ListTransactionsHandler{Sessions: sessions, Snapshots: snapshots}
}

// Register registers the list transactions endpoint with the Huma API.
func (h *ListTransactionsHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-transactions",
		Method:      http.MethodGet,
		Path:        "/v1/transaction/list",
		Summary:     "List transactions",
		Description: "Returns the signed-in user's live transaction set with its totals.",
		Tags:        []string{"Transactions"},
	}, h.handle)
}

func (h *ListTransactionsHandler) handle(ctx context.Context, input *ListTransactionsInput) (*ListTransactionsOutput, error) {
	userID, err := auth.UserID(ctx, h.Sessions, input.Authorization)
	if err != nil {
		return nil, err
	}

	snapshot, err := h.Snapshots.Snapshot(ctx, userID)
	if err != nil {
		return nil, auth.Error("failed to list transactions", err)
	}

	if logData := logging.GetLogData(ctx); logData != nil {
		logData.AddData("transactionCount", len(snapshot.Transactions))
	}

	resp := ListTransactionsResponseBody{
		Transactions: make([]Transaction, len(snapshot.Transactions)),
		Totals: Totals{
			Balance: snapshot.Totals.Balance.StringFixed(2),
			Income:  snapshot.Totals.Income.StringFixed(2),
			Expense: snapshot.Totals.Expense.StringFixed(2),
		},
		Loading: snapshot.Loading,
	}
	for i, tx := range snapshot.Transactions {
		resp.Transactions[i] = toTransaction(tx)
	}

	return &ListTransactionsOutput{Body: resp}, nil
}
