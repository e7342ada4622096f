package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
)

type ArchiveRequest struct {
	IDs []string `json:"ids"`
}

// streamTracker records whether any archive bytes were pushed towards the
// client. Once they have, the status line is gone and an error can only be
// logged, not reported.
type streamTracker struct {
	w       io.Writer
	started bool
}

func (s *streamTracker) Write(p []byte) (int, error) {
	s.started = true
	return s.w.Write(p)
}

// @Summary      Download nodes as a zip archive
// @Description  Packs the selected files and folders (recursively) into a single zip stream. Colliding entry names are deduplicated with a numeric suffix.
// @Tags         nodes
// @Accept       json
// @Produce      application/octet-stream
// @Security     BearerAuth
// @Param        archiveRequest  body      ArchiveRequest  true  "Node IDs to pack"
// @Success      200             {file}    binary
// @Failure      400             {string}  string "No valid nodes selected"
// @Failure      401             {string}  string "Unauthorized"
// @Failure      403             {string}  string "Access denied"
// @Router       /nodes/archive [post]
func (s *Server) DownloadArchiveHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req ArchiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\"download.zip\"")

	tracked := &streamTracker{w: w}
	if err := s.drive.PackArchive(r.Context(), claims.UserID, req.IDs, tracked); err != nil {
		log.Printf("WARN: Archive packing failed for user %d: %v", claims.UserID, err)
		if !tracked.started {
			writeDriveError(w, err)
		}
		return
	}
}
