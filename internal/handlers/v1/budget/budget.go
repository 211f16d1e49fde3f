package budget

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-tracker/internal/budget"
	"github.com/carson-networks/finance-tracker/internal/handlers/v1/auth"
	"github.com/carson-networks/finance-tracker/internal/models"
)

// budgetTracker is the interface to the signed-in user's budgets.
type budgetTracker interface {
	Budgets(ctx context.Context, userID string) (models.BudgetMap, error)
	SetBudget(ctx context.Context, userID, category string, amount decimal.Decimal) error
	Usage(ctx context.Context, userID string) ([]budget.CategoryUsage, error)
}

// Handler serves the budget endpoints.
type Handler struct {
	Sessions auth.Authenticator
	Budgets  budgetTracker
}

func NewHandler(sessions auth.Authenticator, budgets budgetTracker) *Handler {
	return &Handler{Sessions: sessions, Budgets: budgets}
}

// Register registers the budget endpoints with the Huma API.
func (h *Handler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-budgets",
		Method:      http.MethodGet,
		Path:        "/v1/budget",
		Summary:     "Get budgets",
		Description: "Returns the signed-in user's budget per expense category.",
		Tags:        []string{"Budgets"},
	}, h.get)

	huma.Register(api, huma.Operation{
		OperationID: "set-budget",
		Method:      http.MethodPut,
		Path:        "/v1/budget/{category}",
		Summary:     "Set budget",
		Description: "Sets one expense category's budget. Other categories are left as they are.",
		Tags:        []string{"Budgets"},
	}, h.set)

	huma.Register(api, huma.Operation{
		OperationID: "get-budget-usage",
		Method:      http.MethodGet,
		Path:        "/v1/budget/usage",
		Summary:     "Budget usage",
		Description: "Reports spending against budget for every expense category.",
		Tags:        []string{"Budgets"},
	}, h.usage)
}

type GetBudgetsInput struct {
	Authorization string `header:"Authorization" required:"true" doc:"Bearer session token"`
}

type GetBudgetsOutput struct {
	Body struct {
		Budgets map[string]string `json:"budgets" doc:"Budget amount by category"`
	}
}

func (h *Handler) get(ctx context.Context, input *GetBudgetsInput) (*GetBudgetsOutput, error) {
	userID, err := auth.UserID(ctx, h.Sessions, input.Authorization)
	if err != nil {
		return nil, err
	}

	budgets, err := h.Budgets.Budgets(ctx, userID)
	if err != nil {
		return nil, auth.Error("failed to load budgets", err)
	}

	out := &GetBudgetsOutput{}
	out.Body.Budgets = make(map[string]string, len(budgets))
	for category, amount := range budgets {
		out.Body.Budgets[category] = amount.StringFixed(2)
	}
	return out, nil
}

type SetBudgetBody struct {
	Amount string `json:"amount" required:"true" doc:"Non-negative decimal budget"`
}

type SetBudgetInput struct {
	Authorization string `header:"Authorization" required:"true" doc:"Bearer session token"`
	Category      string `path:"category" doc:"Expense category"`
	Body          SetBudgetBody
}

type SetBudgetOutput struct {
	Body struct {
		Category string `json:"category"`
		Amount   string `json:"amount"`
	}
}

func (h *Handler) set(ctx context.Context, input *SetBudgetInput) (*SetBudgetOutput, error) {
	userID, err := auth.UserID(ctx, h.Sessions, input.Authorization)
	if err != nil {
		return nil, err
	}

	amount, err := models.ParseAmount(input.Body.Amount)
	if err != nil {
		return nil, huma.NewError(http.StatusBadRequest, "invalid amount", err)
	}

	if err := h.Budgets.SetBudget(ctx, userID, input.Category, amount); err != nil {
		return nil, auth.Error("failed to set budget", err)
	}

	out := &SetBudgetOutput{}
	out.Body.Category = input.Category
	out.Body.Amount = amount.StringFixed(2)
	return out, nil
}

// CategoryUsage is the API response model for one category's budget usage.
type CategoryUsage struct {
	Category string `json:"category"`
	Spending string `json:"spending" doc:"Sum of expenses in the category"`
	Budget   string `json:"budget" doc:"Budget amount, zero when none is set"`
	Percent  string `json:"percent" doc:"Spending as a percentage of the budget, one decimal"`
	Status   string `json:"status" enum:"none,ok,near,over"`
}

type GetUsageInput struct {
	Authorization string `header:"Authorization" required:"true" doc:"Bearer session token"`
}

type GetUsageOutput struct {
	Body struct {
		Categories []CategoryUsage `json:"categories"`
	}
}

func (h *Handler) usage(ctx context.Context, input *GetUsageInput) (*GetUsageOutput, error) {
	userID, err := auth.UserID(ctx, h.Sessions, input.Authorization)
	if err != nil {
		return nil, err
	}

	usage, err := h.Budgets.Usage(ctx, userID)
	if err != nil {
		return nil, auth.Error("failed to compute budget usage", err)
	}

	out := &GetUsageOutput{}
	out.Body.Categories = make([]CategoryUsage, len(usage))
	for i, u := range usage {
		out.Body.Categories[i] = CategoryUsage{
			Category: u.Category,
			Spending: u.Spending.StringFixed(2),
			Budget:   u.Budget.StringFixed(2),
			Percent:  u.Percent.StringFixed(1),
			Status:   string(u.Status),
		}
	}
	return out, nil
}
