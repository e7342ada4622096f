package api

import (
	"encoding/json"
	"net/http"

	_ "github.com/kwonjh0406/joondrive-be/internal/auth"
	_ "github.com/kwonjh0406/joondrive-be/internal/drive"
)

// @Summary      Get current user info
// @Description  Retrieves information about the currently authenticated user from their JWT token.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  auth.AppClaims
// @Failure      401  {string}  string "Unauthorized"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /me [get]
func (s *Server) GetCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(claims)
}

// @Summary      Get drive info
// @Description  Returns the user's storage usage (measured from disk) and configured limit in bytes.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  drive.DriveInfo
// @Failure      401  {string}  string "Unauthorized"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /drive [get]
func (s *Server) DriveInfoHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	info, err := s.drive.Info(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "Failed to retrieve drive info", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}
