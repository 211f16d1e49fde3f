package session

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/finance-tracker/internal/handlers/v1/auth"
	"github.com/carson-networks/finance-tracker/internal/logging"
	"github.com/carson-networks/finance-tracker/internal/session"
)

// sessionManager is the interface to the session store.
type sessionManager interface {
	SignIn(identity session.Identity) (string, *session.Session, error)
	Resolve(token string) (*session.Session, error)
	SignOut(token string) error
}

// User is the API model of the signed-in user.
type User struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL"`
	UserID      string `json:"userID"`
}

func toUser(identity session.Identity) User {
	return User{
		DisplayName: identity.DisplayName,
		Email:       identity.Email,
		PhotoURL:    identity.PhotoURL,
		UserID:      identity.UserID,
	}
}

// Handler serves sign-in, sign-out and the current user.
//
// WARNING: sign-in does not verify the identity it is given. Any caller that
// reaches POST /v1/session can open a session as any userID. It therefore
// answers 403 unless TrustClientIdentity is set, which is only safe behind a
// gateway that authenticates users against the identity provider.
type Handler struct {
	Sessions            sessionManager
	TrustClientIdentity bool
}

func NewHandler(sessions sessionManager, trustClientIdentity bool) *Handler {
	return &Handler{Sessions: sessions, TrustClientIdentity: trustClientIdentity}
}

// Register registers the session endpoints with the Huma API.
func (h *Handler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "sign-in",
		Method:        http.MethodPost,
		Path:          "/v1/session",
		Summary:       "Sign in",
		Description:   "Opens a session for an identity confirmed by the identity provider and returns its bearer token.",
		Tags:          []string{"Session"},
		DefaultStatus: http.StatusCreated,
	}, h.signIn)

	huma.Register(api, huma.Operation{
		OperationID:   "sign-out",
		Method:        http.MethodDelete,
		Path:          "/v1/session",
		Summary:       "Sign out",
		Tags:          []string{"Session"},
		DefaultStatus: http.StatusNoContent,
	}, h.signOut)

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/v1/session",
		Summary:     "Current user",
		Tags:        []string{"Session"},
	}, h.get)
}

// SignInBody is the identity reported by the identity provider. Older
// clients send the photo as PhotoURL.
type SignInBody struct {
	UserID         string `json:"userID" required:"true" minLength:"1"`
	DisplayName    string `json:"displayName,omitempty"`
	Email          string `json:"email,omitempty"`
	PhotoURL       string `json:"photoURL,omitempty"`
	LegacyPhotoURL string `json:"PhotoURL,omitempty" doc:"Deprecated spelling of photoURL"`
}

func (b SignInBody) identity() session.Identity {
	photo := b.PhotoURL
	if photo == "" {
		photo = b.LegacyPhotoURL
	}
	return session.Identity{
		DisplayName: b.DisplayName,
		Email:       b.Email,
		PhotoURL:    photo,
		UserID:      b.UserID,
	}
}

type SignInInput struct {
	Body SignInBody
}

type SignInOutput struct {
	Status int `json:"-"`
	Body   struct {
		Token     string `json:"token" doc:"Bearer token for the Authorization header"`
		ExpiresAt string `json:"expiresAt" doc:"RFC3339 expiry of the session"`
		User      User   `json:"user"`
	}
}

func (h *Handler) signIn(ctx context.Context, input *SignInInput) (*SignInOutput, error) {
	if !h.TrustClientIdentity {
		return nil, huma.NewError(http.StatusForbidden, "sign-in is disabled: client-reported identities are not trusted")
	}

	token, s, err := h.Sessions.SignIn(input.Body.identity())
	if err != nil {
		return nil, auth.Error("failed to sign in", err)
	}

	if logData := logging.GetLogData(ctx); logData != nil {
		logData.AddData("userID", s.Identity.UserID)
	}

	out := &SignInOutput{Status: http.StatusCreated}
	out.Body.Token = token
	out.Body.ExpiresAt = s.ExpiresAt.UTC().Format(time.RFC3339)
	out.Body.User = toUser(s.Identity)
	return out, nil
}

type AuthorizedInput struct {
	Authorization string `header:"Authorization" required:"true" doc:"Bearer session token"`
}

type SignOutOutput struct {
	Status int `json:"-"`
}

func (h *Handler) signOut(ctx context.Context, input *AuthorizedInput) (*SignOutOutput, error) {
	if err := h.Sessions.SignOut(input.Authorization); err != nil {
		return nil, auth.Error("failed to sign out", err)
	}
	return &SignOutOutput{Status: http.StatusNoContent}, nil
}

type GetSessionOutput struct {
	Body struct {
		User      User   `json:"user"`
		ExpiresAt string `json:"expiresAt"`
	}
}

func (h *Handler) get(ctx context.Context, input *AuthorizedInput) (*GetSessionOutput, error) {
	s, err := h.Sessions.Resolve(input.Authorization)
	if err != nil {
		return nil, huma.NewError(http.StatusUnauthorized, "sign in required", err)
	}

	if logData := logging.GetLogData(ctx); logData != nil {
		logData.AddData("userID", s.Identity.UserID)
	}

	out := &GetSessionOutput{}
	out.Body.User = toUser(s.Identity)
	out.Body.ExpiresAt = s.ExpiresAt.UTC().Format(time.RFC3339)
	return out, nil
}
