package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/jaevor/go-nanoid"

	"github.com/kwonjh0406/joondrive-be/internal/database"
	"github.com/kwonjh0406/joondrive-be/internal/models"
)

// NodeStore is the metadata side of the drive: the authoritative node tree
// plus the user and event tables it lives next to. *database.Store
// satisfies it.
type NodeStore interface {
	CreateNode(ctx context.Context, arg database.CreateNodeParams) (*models.Node, error)
	GetNode(ctx context.Context, id string) (*models.Node, error)
	GetNodeByID(ctx context.Context, id string, ownerID int64) (*models.Node, error)
	GetNodesByParentID(ctx context.Context, ownerID int64, parentID *string) ([]models.Node, error)
	NodeExists(ctx context.Context, id string) (bool, error)
	SetNodeParent(ctx context.Context, id string, ownerID int64, newParentID *string) (bool, error)
	DeleteNode(ctx context.Context, id string, ownerID int64) (bool, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	LogEvent(ctx context.Context, userID int64, eventType string, payload interface{}) error
}

// Backend is the physical side: opaque locators mapping to actual bytes.
// *storage.LocalStorage satisfies it.
type Backend interface {
	NewLocator(ownerID int64) string
	Save(locator string, data io.Reader) (int64, error)
	Get(locator string) (io.ReadCloser, error)
	Delete(locator string) error
	Exists(locator string) bool
	MeasureUserBytes(ownerID int64) (int64, error)
}

// Publisher pushes journaled events to connected clients. May be nil.
type Publisher interface {
	PublishEvent(userID int64, eventData []byte)
}

// Service glues the node tree, the quota oracle and the physical backend
// into the drive operations. Structural mutations and the quota
// admission-check-plus-write sequence are serialized per owner, so two
// concurrent uploads can no longer slip past the limit together.
type Service struct {
	store   NodeStore
	backend Backend
	quota   *Quota
	events  Publisher

	mu         sync.Mutex
	ownerLocks map[int64]*sync.Mutex
}

func NewService(store NodeStore, backend Backend, events Publisher) *Service {
	return &Service{
		store:      store,
		backend:    backend,
		quota:      NewQuota(store, backend),
		events:     events,
		ownerLocks: make(map[int64]*sync.Mutex),
	}
}

func (s *Service) Quota() *Quota {
	return s.quota
}

func (s *Service) lockOwner(ownerID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.ownerLocks[ownerID]
	if !ok {
		m = &sync.Mutex{}
		s.ownerLocks[ownerID] = m
	}
	return m
}

// newNodeID generates a node identifier and verifies it is unused.
func (s *Service) newNodeID(ctx context.Context) (string, error) {
	maxRetries := 10

	generateID, err := nanoid.Standard(21)
	if err != nil {
		return "", fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}

	for i := 0; i < maxRetries; i++ {
		id := generateID()
		exists, err := s.store.NodeExists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to check for node existence: %w", err)
		}
		if !exists {
			return id, nil
		}
	}

	return "", fmt.Errorf("failed to generate a unique ID after %d attempts", maxRetries)
}

// resolveParent checks that a requested target folder exists, belongs to
// the owner and is actually a folder. A nil parent means the root.
func (s *Service) resolveParent(ctx context.Context, ownerID int64, parentID *string) error {
	if parentID == nil {
		return nil
	}
	parent, err := s.store.GetNodeByID(ctx, *parentID, ownerID)
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("target folder: %w", ErrNotFound)
	}
	if parent.NodeType != models.NodeTypeFolder {
		return fmt.Errorf("%w: target is not a folder", ErrInvalidStructure)
	}
	return nil
}

// UploadItem is one incoming file of an upload batch.
type UploadItem struct {
	Name     string
	Size     int64
	MimeType string
	Content  io.Reader
}

// UploadBatch admits the whole batch against the quota before a single byte
// is written; an over-limit batch is rejected outright. Empty items are
// skipped. If persisting one item fails mid-batch the remaining items are
// abandoned, but items already committed stay committed.
func (s *Service) UploadBatch(ctx context.Context, ownerID int64, parentID *string, items []UploadItem) ([]models.Node, error) {
	mu := s.lockOwner(ownerID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.resolveParent(ctx, ownerID, parentID); err != nil {
		return nil, err
	}

	var totalSize int64
	for _, item := range items {
		if item.Size > 0 {
			totalSize += item.Size
		}
	}

	ok, available, err := s.quota.CanAdmit(ctx, ownerID, totalSize)
	if err != nil {
		return nil, fmt.Errorf("quota admission check: %w", err)
	}
	if !ok {
		return nil, &QuotaExceededError{AvailableBytes: available}
	}

	created := []models.Node{}
	for _, item := range items {
		if item.Size <= 0 {
			continue
		}

		locator := s.backend.NewLocator(ownerID)
		written, err := s.backend.Save(locator, item.Content)
		if err != nil {
			return created, fmt.Errorf("saving %q: %w", item.Name, err)
		}

		nodeID, err := s.newNodeID(ctx)
		if err != nil {
			s.backend.Delete(locator)
			return created, err
		}

		params := database.CreateNodeParams{
			ID:          nodeID,
			OwnerID:     ownerID,
			ParentID:    parentID,
			Name:        item.Name,
			NodeType:    models.NodeTypeFile,
			SizeBytes:   &written,
			PhysicalRef: &locator,
		}
		if item.MimeType != "" {
			mime := item.MimeType
			params.MimeType = &mime
		}

		node, err := s.store.CreateNode(ctx, params)
		if err != nil {
			s.backend.Delete(locator)
			return created, fmt.Errorf("creating node for %q: %w", item.Name, err)
		}

		created = append(created, *node)
		s.notify(ctx, ownerID, "node_created", map[string]interface{}{"node_id": node.ID, "name": node.Name})
	}

	return created, nil
}

// CreateFolder is a pure metadata insert; folders consume no physical bytes
// and bypass the quota entirely.
func (s *Service) CreateFolder(ctx context.Context, ownerID int64, parentID *string, name string) (*models.Node, error) {
	mu := s.lockOwner(ownerID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.resolveParent(ctx, ownerID, parentID); err != nil {
		return nil, err
	}

	nodeID, err := s.newNodeID(ctx)
	if err != nil {
		return nil, err
	}

	var zero int64
	node, err := s.store.CreateNode(ctx, database.CreateNodeParams{
		ID:        nodeID,
		OwnerID:   ownerID,
		ParentID:  parentID,
		Name:      name,
		NodeType:  models.NodeTypeFolder,
		SizeBytes: &zero,
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, ownerID, "folder_created", map[string]interface{}{"node_id": node.ID, "name": node.Name})
	return node, nil
}

// List returns the owner's direct children of parentID (root when nil).
func (s *Service) List(ctx context.Context, ownerID int64, parentID *string) ([]models.Node, error) {
	return s.store.GetNodesByParentID(ctx, ownerID, parentID)
}

const maxAncestorDepth = 100

// Move reparents a node after the full validation sequence: the node must
// exist and belong to the owner; a non-nil target must be an owned folder,
// must not be the node itself and must not be one of its descendants. On
// any failure nothing is mutated.
func (s *Service) Move(ctx context.Context, ownerID int64, nodeID string, newParentID *string) error {
	mu := s.lockOwner(ownerID)
	mu.Lock()
	defer mu.Unlock()

	node, err := s.store.GetNodeByID(ctx, nodeID, ownerID)
	if err != nil {
		return err
	}
	if node == nil {
		return ErrNotFound
	}

	if newParentID != nil {
		if *newParentID == nodeID {
			return fmt.Errorf("%w: cannot move a node into itself", ErrInvalidStructure)
		}

		newParent, err := s.store.GetNodeByID(ctx, *newParentID, ownerID)
		if err != nil {
			return err
		}
		if newParent == nil {
			return fmt.Errorf("target folder: %w", ErrNotFound)
		}
		if newParent.NodeType != models.NodeTypeFolder {
			return fmt.Errorf("%w: target is not a folder", ErrInvalidStructure)
		}

		descendant, err := s.isDescendantOf(ctx, ownerID, newParent, nodeID)
		if err != nil {
			return err
		}
		if descendant {
			return fmt.Errorf("%w: cannot move a folder into its own subtree", ErrInvalidStructure)
		}
	}

	ok, err := s.store.SetNodeParent(ctx, nodeID, ownerID, newParentID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	s.notify(ctx, ownerID, "node_moved", map[string]interface{}{"node_id": nodeID, "new_parent_id": newParentID})
	return nil
}

// isDescendantOf reports whether candidate sits somewhere below ancestorID.
// It walks candidate's parent chain with a hard depth ceiling. A chain
// entry that cannot be resolved within the owner's scope ends the walk;
// that should not happen for a consistent tree, but a corrupted chain must
// not turn this into an unbounded loop.
func (s *Service) isDescendantOf(ctx context.Context, ownerID int64, candidate *models.Node, ancestorID string) (bool, error) {
	if candidate.NodeType != models.NodeTypeFolder {
		return false, nil
	}

	current := candidate.ParentID
	for depth := 0; current != nil && depth < maxAncestorDepth; depth++ {
		if *current == ancestorID {
			return true, nil
		}
		parent, err := s.store.GetNodeByID(ctx, *current, ownerID)
		if err != nil {
			return false, err
		}
		if parent == nil {
			break
		}
		current = parent.ParentID
	}

	return false, nil
}

// Delete removes the listed nodes. Ids that do not resolve or belong to a
// different owner are skipped silently, as are blob removal failures; the
// node row always goes. Children of a deleted folder are left in place.
func (s *Service) Delete(ctx context.Context, ownerID int64, nodeIDs []string) error {
	mu := s.lockOwner(ownerID)
	mu.Lock()
	defer mu.Unlock()

	for _, id := range nodeIDs {
		node, err := s.store.GetNode(ctx, id)
		if err != nil {
			return err
		}
		if node == nil || node.OwnerID != ownerID {
			continue
		}

		if node.NodeType == models.NodeTypeFile && node.PhysicalRef != nil {
			if err := s.backend.Delete(*node.PhysicalRef); err != nil {
				log.Printf("WARN: Failed to delete blob %s for node %s: %v", *node.PhysicalRef, id, err)
			}
		}

		if _, err := s.store.DeleteNode(ctx, id, ownerID); err != nil {
			return err
		}

		s.notify(ctx, ownerID, "node_deleted", map[string]interface{}{"node_id": id})
	}

	return nil
}

// OpenFile resolves a file node to its size, name and content stream.
func (s *Service) OpenFile(ctx context.Context, ownerID int64, nodeID string) (*models.Node, io.ReadCloser, error) {
	node, err := s.store.GetNodeByID(ctx, nodeID, ownerID)
	if err != nil {
		return nil, nil, err
	}
	if node == nil {
		return nil, nil, ErrNotFound
	}
	if node.NodeType != models.NodeTypeFile {
		return nil, nil, fmt.Errorf("%w: cannot download a folder", ErrInvalidStructure)
	}
	if node.PhysicalRef == nil {
		return nil, nil, fmt.Errorf("node %s has no backing blob: %w", nodeID, ErrNotFound)
	}

	stream, err := s.backend.Get(*node.PhysicalRef)
	if err != nil {
		return nil, nil, err
	}
	return node, stream, nil
}

type DriveInfo struct {
	Username   string `json:"username"`
	UsedBytes  int64  `json:"used_bytes"`
	LimitBytes int64  `json:"limit_bytes"`
}

func (s *Service) Info(ctx context.Context, ownerID int64) (*DriveInfo, error) {
	user, err := s.store.GetUserByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	used, err := s.quota.CurrentUsage(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	return &DriveInfo{
		Username:   user.Username,
		UsedBytes:  used,
		LimitBytes: user.StorageLimitGiB * bytesPerGiB,
	}, nil
}

func (s *Service) notify(ctx context.Context, ownerID int64, eventType string, payload interface{}) {
	if err := s.store.LogEvent(ctx, ownerID, eventType, payload); err != nil {
		log.Printf("WARN: Failed to journal %s event for user %d: %v", eventType, ownerID, err)
	}

	if s.events == nil {
		return
	}
	msg, err := json.Marshal(map[string]interface{}{"event_type": eventType, "payload": payload})
	if err != nil {
		return
	}
	s.events.PublishEvent(ownerID, msg)
}
