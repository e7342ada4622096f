package drive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kwonjh0406/joondrive-be/internal/models"
)

const maxConflictAttempts = 999

// PackArchive streams the selected subtrees as a single zip. Selected ids
// that do not resolve are ignored, but an id owned by someone else fails
// the whole call. Output follows selection order, then depth-first per
// subtree. Missing blobs are skipped so that metadata/physical drift does
// not abort the archive; the caller can cancel via ctx.
func (s *Service) PackArchive(ctx context.Context, ownerID int64, nodeIDs []string, w io.Writer) error {
	if len(nodeIDs) == 0 {
		return ErrEmptySelection
	}

	var roots []models.Node
	for _, id := range nodeIDs {
		node, err := s.store.GetNode(ctx, id)
		if err != nil {
			return err
		}
		if node == nil {
			continue
		}
		if node.OwnerID != ownerID {
			return ErrForbidden
		}
		roots = append(roots, *node)
	}

	if len(roots) == 0 {
		return ErrEmptySelection
	}

	zw := zip.NewWriter(w)
	usedPaths := make(map[string]struct{})

	for i := range roots {
		if err := s.addToArchive(ctx, zw, &roots[i], "", ownerID, usedPaths); err != nil {
			zw.Close()
			return err
		}
	}

	return zw.Close()
}

func (s *Service) addToArchive(ctx context.Context, zw *zip.Writer, node *models.Node, basePath string, ownerID int64, usedPaths map[string]struct{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entryName := basePath + node.Name

	if node.NodeType == models.NodeTypeFolder {
		if !strings.HasSuffix(entryName, "/") {
			entryName += "/"
		}
		entryName = resolveNameConflict(entryName, usedPaths)
		usedPaths[entryName] = struct{}{}

		// Emitted even when empty; some zip readers only show a folder
		// if its directory entry is present.
		if _, err := zw.Create(entryName); err != nil {
			return err
		}

		children, err := s.store.GetNodesByParentID(ctx, ownerID, &node.ID)
		if err != nil {
			return err
		}
		for i := range children {
			if err := s.addToArchive(ctx, zw, &children[i], entryName, ownerID, usedPaths); err != nil {
				return err
			}
		}
		return nil
	}

	entryName = resolveNameConflict(entryName, usedPaths)
	usedPaths[entryName] = struct{}{}

	if node.PhysicalRef == nil {
		return nil
	}
	blob, err := s.backend.Get(*node.PhysicalRef)
	if err != nil {
		return nil
	}
	defer blob.Close()

	entry, err := zw.Create(entryName)
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, blob)
	return err
}

// resolveNameConflict rewrites an already-used entry path by inserting a
// counter before the extension: "report.pdf" becomes "report(1).pdf", a
// folder "docs/" becomes "docs(1)/". After 999 attempts the collision is
// accepted rather than treated as a hard failure.
func resolveNameConflict(entryName string, usedPaths map[string]struct{}) string {
	if _, taken := usedPaths[entryName]; !taken {
		return entryName
	}

	baseName := entryName
	extension := ""
	isFolder := strings.HasSuffix(entryName, "/")

	if isFolder {
		baseName = strings.TrimSuffix(entryName, "/")
	} else if lastDot := strings.LastIndex(entryName, "."); lastDot > 0 {
		baseName = entryName[:lastDot]
		extension = entryName[lastDot:]
	}

	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s(%d)%s", baseName, counter, extension)
		if isFolder {
			candidate += "/"
		}
		if _, taken := usedPaths[candidate]; !taken || counter >= maxConflictAttempts {
			return candidate
		}
	}
}
