package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kwonjh0406/joondrive-be/internal/database"
	"github.com/kwonjh0406/joondrive-be/internal/models"
)

// memStore is an in-memory NodeStore with the same semantics as the
// postgres-backed one, so the service logic can be tested without a
// database.
type memStore struct {
	mu     sync.Mutex
	nodes  map[string]models.Node
	users  map[int64]models.User
	events []string
}

func newMemStore() *memStore {
	return &memStore{
		nodes: make(map[string]models.Node),
		users: make(map[int64]models.User),
	}
}

func (m *memStore) addUser(id int64, limitGiB int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = models.User{ID: id, Username: fmt.Sprintf("user%d", id), StorageLimitGiB: limitGiB}
}

func (m *memStore) snapshot() map[string]models.Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.Node, len(m.nodes))
	for k, v := range m.nodes {
		out[k] = v
	}
	return out
}

func (m *memStore) CreateNode(ctx context.Context, arg database.CreateNodeParams) (*models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	node := models.Node{
		ID:          arg.ID,
		OwnerID:     arg.OwnerID,
		ParentID:    arg.ParentID,
		Name:        arg.Name,
		NodeType:    arg.NodeType,
		SizeBytes:   arg.SizeBytes,
		MimeType:    arg.MimeType,
		PhysicalRef: arg.PhysicalRef,
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	m.nodes[arg.ID] = node
	return &node, nil
}

func (m *memStore) GetNode(ctx context.Context, id string) (*models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if node, ok := m.nodes[id]; ok {
		n := node
		return &n, nil
	}
	return nil, nil
}

func (m *memStore) GetNodeByID(ctx context.Context, id string, ownerID int64) (*models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if node, ok := m.nodes[id]; ok && node.OwnerID == ownerID {
		n := node
		return &n, nil
	}
	return nil, nil
}

func (m *memStore) GetNodesByParentID(ctx context.Context, ownerID int64, parentID *string) ([]models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var nodes []models.Node
	for _, node := range m.nodes {
		if node.OwnerID != ownerID {
			continue
		}
		if parentID == nil {
			if node.ParentID == nil {
				nodes = append(nodes, node)
			}
		} else if node.ParentID != nil && *node.ParentID == *parentID {
			nodes = append(nodes, node)
		}
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].NodeType != nodes[j].NodeType {
			return nodes[i].NodeType > nodes[j].NodeType
		}
		if nodes[i].Name != nodes[j].Name {
			return nodes[i].Name < nodes[j].Name
		}
		return nodes[i].ID < nodes[j].ID
	})
	if nodes == nil {
		return []models.Node{}, nil
	}
	return nodes, nil
}

func (m *memStore) NodeExists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.nodes[id]
	return ok, nil
}

func (m *memStore) SetNodeParent(ctx context.Context, id string, ownerID int64, newParentID *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	node, ok := m.nodes[id]
	if !ok || node.OwnerID != ownerID {
		return false, nil
	}
	node.ParentID = newParentID
	node.ModifiedAt = time.Now()
	m.nodes[id] = node
	return true, nil
}

func (m *memStore) DeleteNode(ctx context.Context, id string, ownerID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	node, ok := m.nodes[id]
	if !ok || node.OwnerID != ownerID {
		return false, nil
	}
	delete(m.nodes, id)
	return true, nil
}

func (m *memStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[id]; ok {
		u := user
		return &u, nil
	}
	return nil, nil
}

func (m *memStore) LogEvent(ctx context.Context, userID int64, eventType string, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, eventType)
	return nil
}

// memBackend is an in-memory Backend keyed by locator. usedOffset
// simulates bytes already present in every owner's region without
// actually allocating them.
type memBackend struct {
	mu         sync.Mutex
	blobs      map[string][]byte
	nextID     int
	saveErr    error
	saveCalls  int
	usedOffset int64
}

func newMemBackend() *memBackend {
	return &memBackend{blobs: make(map[string][]byte)}
}

func (b *memBackend) NewLocator(ownerID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	return fmt.Sprintf("%d/blob-%d", ownerID, b.nextID)
}

func (b *memBackend) Save(locator string, data io.Reader) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saveCalls++
	if b.saveErr != nil {
		return 0, b.saveErr
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, data)
	if err != nil {
		return n, err
	}
	b.blobs[locator] = buf.Bytes()
	return n, nil
}

func (b *memBackend) Get(locator string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[locator]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", locator)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memBackend) Delete(locator string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, locator)
	return nil
}

func (b *memBackend) Exists(locator string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.blobs[locator]
	return ok
}

func (b *memBackend) MeasureUserBytes(ownerID int64) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	prefix := fmt.Sprintf("%d/", ownerID)
	total := b.usedOffset
	for locator, data := range b.blobs {
		if strings.HasPrefix(locator, prefix) {
			total += int64(len(data))
		}
	}
	return total, nil
}

func (b *memBackend) blobCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blobs)
}
