package session

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/finance-tracker/internal/session"
)

func newTestAPI(t *testing.T) (humatest.TestAPI, *session.Manager) {
	t.Helper()
	manager := session.NewManager("test-secret", "finance-tracker-test", time.Hour)
	t.Cleanup(manager.Close)
	_, api := humatest.New(t)
	NewHandler(manager, true).Register(api)
	return api, manager
}

type signInResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	User      User   `json:"user"`
}

func signIn(t *testing.T, api humatest.TestAPI, body any) signInResponse {
	t.Helper()
	resp := api.Post("/v1/session", body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var out signInResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHTTP_SignIn(t *testing.T) {
	api, manager := newTestAPI(t)
	started := 0
	manager.OnStart(func(session.Session) { started++ })

	out := signIn(t, api, SignInBody{
		UserID:      "u1",
		DisplayName: "Ada",
		Email:       "ada@example.com",
		PhotoURL:    "https://example.com/a.png",
	})

	assert.NotEmpty(t, out.Token)
	assert.Equal(t, User{
		DisplayName: "Ada",
		Email:       "ada@example.com",
		PhotoURL:    "https://example.com/a.png",
		UserID:      "u1",
	}, out.User)
	_, err := time.Parse(time.RFC3339, out.ExpiresAt)
	assert.NoError(t, err)
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, manager.ActiveSessions())
}

func TestHTTP_SignIn_LegacyPhotoField(t *testing.T) {
	api, _ := newTestAPI(t)

	out := signIn(t, api, map[string]any{
		"userID":   "u1",
		"PhotoURL": "https://example.com/legacy.png",
	})

	assert.Equal(t, "https://example.com/legacy.png", out.User.PhotoURL)
}

func TestHTTP_SignIn_MissingUser(t *testing.T) {
	api, manager := newTestAPI(t)

	resp := api.Post("/v1/session", map[string]any{"displayName": "Nobody"})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, 0, manager.ActiveSessions())
}

func TestHTTP_GetSession(t *testing.T) {
	api, _ := newTestAPI(t)
	out := signIn(t, api, SignInBody{UserID: "u1", DisplayName: "Ada"})

	resp := api.Get("/v1/session", "Authorization: Bearer "+out.Token)

	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		User User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "u1", body.User.UserID)
	assert.Equal(t, "Ada", body.User.DisplayName)
}

func TestHTTP_SignOut(t *testing.T) {
	api, manager := newTestAPI(t)
	ended := make(chan session.Session, 1)
	manager.OnEnd(func(s session.Session) { ended <- s })
	out := signIn(t, api, SignInBody{UserID: "u1"})
	header := "Authorization: Bearer " + out.Token

	resp := api.Delete("/v1/session", header)
	require.Equal(t, http.StatusNoContent, resp.Code)

	select {
	case s := <-ended:
		assert.Equal(t, "u1", s.Identity.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("session end hook not called")
	}

	resp = api.Get("/v1/session", header)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// Signing out again is harmless.
	resp = api.Delete("/v1/session", header)
	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestHTTP_SignOut_BadToken(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Delete("/v1/session", "Authorization: Bearer not-a-token")

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestHTTP_SignInDisabledWithoutTrustedIdentities(t *testing.T) {
	manager := session.NewManager("test-secret", "finance-tracker-test", time.Hour)
	t.Cleanup(manager.Close)
	_, api := humatest.New(t)
	NewHandler(manager, false).Register(api)

	resp := api.Post("/v1/session", SignInBody{UserID: "u1"})

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Zero(t, manager.ActiveSessions())
}
