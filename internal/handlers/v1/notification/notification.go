package notification

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/finance-tracker/internal/handlers/v1/auth"
	"github.com/carson-networks/finance-tracker/internal/models"
)

// notificationStore is the interface to the per-user notification list.
type notificationStore interface {
	List(userID string) []models.Notification
	Clear(userID string) int
}

// Notification is the API response model for a budget notification.
type Notification struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Type      string `json:"type" enum:"warning,error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp" doc:"RFC3339 time the notification was raised"`
}

// Handler serves the notification endpoints.
type Handler struct {
	Sessions      auth.Authenticator
	Notifications notificationStore
}

func NewHandler(sessions auth.Authenticator, notifications notificationStore) *Handler {
	return &Handler{Sessions: sessions, Notifications: notifications}
}

func (h *Handler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-notifications",
		Method:      http.MethodGet,
		Path:        "/v1/notification",
		Summary:     "List notifications",
		Description: "Returns the signed-in user's budget notifications, oldest first.",
		Tags:        []string{"Notifications"},
	}, h.list)

	huma.Register(api, huma.Operation{
		OperationID: "clear-notifications",
		Method:      http.MethodDelete,
		Path:        "/v1/notification",
		Summary:     "Clear notifications",
		Tags:        []string{"Notifications"},
	}, h.clear)
}

type Input struct {
	Authorization string `header:"Authorization" required:"true" doc:"Bearer session token"`
}

type ListOutput struct {
	Body struct {
		Notifications []Notification `json:"notifications"`
	}
}

func (h *Handler) list(ctx context.Context, input *Input) (*ListOutput, error) {
	userID, err := auth.UserID(ctx, h.Sessions, input.Authorization)
	if err != nil {
		return nil, err
	}

	notifications := h.Notifications.List(userID)
	out := &ListOutput{}
	out.Body.Notifications = make([]Notification, len(notifications))
	for i, n := range notifications {
		out.Body.Notifications[i] = Notification{
			ID:        n.ID,
			Category:  n.Category,
			Type:      string(n.Type),
			Message:   n.Message,
			Timestamp: n.Timestamp.UTC().Format(time.RFC3339),
		}
	}
	return out, nil
}

type ClearOutput struct {
	Body struct {
		Cleared int `json:"cleared" doc:"How many notifications were removed"`
	}
}

func (h *Handler) clear(ctx context.Context, input *Input) (*ClearOutput, error) {
	userID, err := auth.UserID(ctx, h.Sessions, input.Authorization)
	if err != nil {
		return nil, err
	}

	out := &ClearOutput{}
	out.Body.Cleared = h.Notifications.Clear(userID)
	return out, nil
}
