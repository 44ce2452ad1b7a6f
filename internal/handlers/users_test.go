package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/handlers/testutil"
)

func TestUserLifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	userID := env.CreateUser("carol")

	rec := env.Request(http.MethodGet, "/users/"+userID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	payload := testutil.DecodeJSON(t, rec)
	require.Equal(t, userID, payload["userId"])
	require.Equal(t, "carol", payload["username"])
	require.NotEmpty(t, payload["createdAt"])
}

func TestCreateUserFromForm(t *testing.T) {
	env := testutil.NewEnv(t)

	rec := env.PostForm("/users", url.Values{"username": {"dave"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "User created successfully", testutil.DecodeJSON(t, rec)["message"])
}

func TestCreateUserValidation(t *testing.T) {
	env := testutil.NewEnv(t)

	rec := env.Request(http.MethodPost, "/users", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"Missing required parameters"}`, rec.Body.String())

	rec = env.Request(http.MethodPost, "/users", map[string]string{"username": strings.Repeat("x", 129)})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"username must be at most 128 characters"}`, rec.Body.String())

	env.CreateUser("erin")
	rec = env.Request(http.MethodPost, "/users", map[string]string{"username": "erin"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"Username already exists"}`, rec.Body.String())
}

func TestGetUserNotFound(t *testing.T) {
	env := testutil.NewEnv(t)

	rec := env.Request(http.MethodGet, "/users/ghost", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"error":"User not found"}`, rec.Body.String())
}
