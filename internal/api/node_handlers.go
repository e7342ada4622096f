package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kwonjh0406/joondrive-be/internal/drive"
)

const nodeIDLength = 21

// writeDriveError translates the drive error taxonomy into HTTP statuses.
func writeDriveError(w http.ResponseWriter, err error) {
	var quotaErr *drive.QuotaExceededError
	switch {
	case errors.As(err, &quotaErr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":           "storage limit exceeded",
			"available_bytes": quotaErr.AvailableBytes,
		})
	case errors.Is(err, drive.ErrNotFound):
		http.Error(w, "Node not found or you do not have permission to access it", http.StatusNotFound)
	case errors.Is(err, drive.ErrForbidden):
		http.Error(w, "Access denied", http.StatusForbidden)
	case errors.Is(err, drive.ErrInvalidStructure):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, drive.ErrEmptySelection):
		http.Error(w, "No valid nodes selected", http.StatusBadRequest)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

func (s *Server) CreateFolderHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "Folder name cannot be empty", http.StatusBadRequest)
		return
	}

	if req.ParentID != nil && len(*req.ParentID) != nodeIDLength {
		http.Error(w, "Invalid ParentID format", http.StatusBadRequest)
		return
	}

	node, err := s.drive.CreateFolder(r.Context(), claims.UserID, req.ParentID, req.Name)
	if err != nil {
		writeDriveError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(node)
}

func (s *Server) ListNodesHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	parentIDStr := r.URL.Query().Get("parent_id")

	var parentID *string
	if parentIDStr != "" {
		parentID = &parentIDStr
	}

	nodes, err := s.drive.List(r.Context(), claims.UserID, parentID)
	if err != nil {
		http.Error(w, "Failed to list nodes", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(nodes)
}

// UploadFilesHandler accepts a multipart batch under the "files" field.
// The whole batch is admitted against the quota before anything is stored.
func (s *Server) UploadFilesHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<30)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Error parsing multipart form", http.StatusBadRequest)
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		http.Error(w, "No files provided", http.StatusBadRequest)
		return
	}

	parentIDStr := r.FormValue("parent_id")
	var parentID *string
	if parentIDStr != "" {
		if len(parentIDStr) != nodeIDLength {
			http.Error(w, "Invalid ParentID format", http.StatusBadRequest)
			return
		}
		parentID = &parentIDStr
	}

	var items []drive.UploadItem
	for _, fh := range fileHeaders {
		file, err := fh.Open()
		if err != nil {
			http.Error(w, "Error retrieving an uploaded file", http.StatusBadRequest)
			return
		}
		defer file.Close()

		items = append(items, drive.UploadItem{
			Name:     filepath.Base(fh.Filename),
			Size:     fh.Size,
			MimeType: fh.Header.Get("Content-Type"),
			Content:  file,
		})
	}

	created, err := s.drive.UploadBatch(r.Context(), claims.UserID, parentID, items)
	if err != nil {
		writeDriveError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

type DeleteNodesRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) DeleteNodesHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req DeleteNodesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.drive.Delete(r.Context(), claims.UserID, req.IDs); err != nil {
		writeDriveError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type MoveNodeRequest struct {
	NodeID      string  `json:"node_id"`
	NewParentID *string `json:"new_parent_id"`
}

func (s *Server) MoveNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req MoveNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.NodeID == "" {
		http.Error(w, "Node ID is required", http.StatusBadRequest)
		return
	}
	if req.NewParentID != nil && len(*req.NewParentID) != nodeIDLength {
		http.Error(w, "Invalid ParentID format", http.StatusBadRequest)
		return
	}

	if err := s.drive.Move(r.Context(), claims.UserID, req.NodeID, req.NewParentID); err != nil {
		writeDriveError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) DownloadFileHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	nodeID := chi.URLParam(r, "nodeId")
	if nodeID == "" {
		http.Error(w, "Node ID is required", http.StatusBadRequest)
		return
	}

	node, stream, err := s.drive.OpenFile(r.Context(), claims.UserID, nodeID)
	if err != nil {
		writeDriveError(w, err)
		return
	}
	defer stream.Close()

	encodedName := url.PathEscape(node.Name)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", node.Name, encodedName))
	if node.MimeType != nil && *node.MimeType != "" {
		w.Header().Set("Content-Type", *node.MimeType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if node.SizeBytes != nil {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", *node.SizeBytes))
	}

	io.Copy(w, stream)
}
