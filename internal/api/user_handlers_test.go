package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kwonjh0406/joondrive-be/internal/drive"
)

func TestGetCurrentUserHandler(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/me", nil)
	rr := httptest.NewRecorder()

	req = req.WithContext(context.WithValue(req.Context(), userContextKey, testUserClaims))
	http.HandlerFunc(testServer.GetCurrentUserHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var claims struct {
		UserID   int64  `json:"user_id"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &claims))
	require.Equal(t, testUserClaims.UserID, claims.UserID)
	require.Equal(t, "api_test_user", claims.Username)
}

func TestDriveInfoHandler(t *testing.T) {
	claims := createAPIUser(t, "api_drive_info_user", 3)

	content := "exactly 20 bytes !!!"
	rr := uploadViaHandler(t, claims, nil, map[string]string{"usage.txt": content})
	require.Equal(t, http.StatusCreated, rr.Code)

	req := httptest.NewRequest("GET", "/api/v1/drive", nil)
	dr := httptest.NewRecorder()

	req = req.WithContext(context.WithValue(req.Context(), userContextKey, claims))
	http.HandlerFunc(testServer.DriveInfoHandler).ServeHTTP(dr, req)

	require.Equal(t, http.StatusOK, dr.Code)

	var info drive.DriveInfo
	require.NoError(t, json.Unmarshal(dr.Body.Bytes(), &info))
	require.Equal(t, "api_drive_info_user", info.Username)
	require.Equal(t, int64(len(content)), info.UsedBytes)
	require.Equal(t, int64(3)<<30, info.LimitBytes)
}
