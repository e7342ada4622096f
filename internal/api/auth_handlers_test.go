package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func doLogin(t *testing.T, username, password string) *httptest.ResponseRecorder {
	payload := LoginRequest{Username: username, Password: password}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	http.HandlerFunc(testServer.LoginHandler).ServeHTTP(rr, req)
	return rr
}

func TestLoginHandler(t *testing.T) {
	rr := doLogin(t, "api_test_user", "password")
	require.Equal(t, http.StatusOK, rr.Code)

	var tokens TokenResponse
	err := json.Unmarshal(rr.Body.Bytes(), &tokens)
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	rr = doLogin(t, "api_test_user", "wrong_password")
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doLogin(t, "no_such_user", "password")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRefreshTokenHandler_Rotation(t *testing.T) {
	rr := doLogin(t, "api_test_user", "password")
	require.Equal(t, http.StatusOK, rr.Code)

	var tokens TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tokens))

	refresh := func(token string) *httptest.ResponseRecorder {
		payload := RefreshTokenRequest{RefreshToken: token}
		body, _ := json.Marshal(payload)
		req := httptest.NewRequest("POST", "/api/v1/auth/refresh", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		http.HandlerFunc(testServer.RefreshTokenHandler).ServeHTTP(rec, req)
		return rec
	}

	rec := refresh(tokens.RefreshToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var rotated TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rotated))
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEmpty(t, rotated.RefreshToken)
	require.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// The consumed refresh token must not work a second time.
	rec = refresh(tokens.RefreshToken)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = refresh("completely_made_up_token")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
