package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kwonjh0406/joondrive-be/internal/models"
)

type CreateNodeParams struct {
	ID          string
	OwnerID     int64
	ParentID    *string
	Name        string
	NodeType    string
	SizeBytes   *int64
	MimeType    *string
	PhysicalRef *string
}

func (q *Queries) CreateNode(ctx context.Context, arg CreateNodeParams) (*models.Node, error) {
	query := `
		INSERT INTO nodes (id, owner_id, parent_id, name, node_type, size_bytes, mime_type, physical_ref, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, owner_id, parent_id, name, node_type, size_bytes, mime_type, physical_ref, created_at, modified_at
	`
	now := time.Now()

	row := q.db.QueryRow(ctx, query,
		arg.ID,
		arg.OwnerID,
		arg.ParentID,
		arg.Name,
		arg.NodeType,
		arg.SizeBytes,
		arg.MimeType,
		arg.PhysicalRef,
		now,
		now,
	)

	var node models.Node
	err := row.Scan(
		&node.ID,
		&node.OwnerID,
		&node.ParentID,
		&node.Name,
		&node.NodeType,
		&node.SizeBytes,
		&node.MimeType,
		&node.PhysicalRef,
		&node.CreatedAt,
		&node.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}

	return &node, nil
}

// GetNode looks a node up regardless of owner. It is used where the caller
// needs to distinguish "does not exist" from "belongs to someone else".
func (q *Queries) GetNode(ctx context.Context, id string) (*models.Node, error) {
	query := `
		SELECT id, owner_id, parent_id, name, node_type, size_bytes, mime_type, physical_ref, created_at, modified_at
		FROM nodes
		WHERE id = $1
	`
	var node models.Node

	err := q.db.QueryRow(ctx, query, id).Scan(
		&node.ID,
		&node.OwnerID,
		&node.ParentID,
		&node.Name,
		&node.NodeType,
		&node.SizeBytes,
		&node.MimeType,
		&node.PhysicalRef,
		&node.CreatedAt,
		&node.ModifiedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &node, nil
}

func (q *Queries) GetNodeByID(ctx context.Context, id string, ownerID int64) (*models.Node, error) {
	query := `
		SELECT id, owner_id, parent_id, name, node_type, size_bytes, mime_type, physical_ref, created_at, modified_at
		FROM nodes
		WHERE id = $1 AND owner_id = $2
	`
	var node models.Node

	err := q.db.QueryRow(ctx, query, id, ownerID).Scan(
		&node.ID,
		&node.OwnerID,
		&node.ParentID,
		&node.Name,
		&node.NodeType,
		&node.SizeBytes,
		&node.MimeType,
		&node.PhysicalRef,
		&node.CreatedAt,
		&node.ModifiedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &node, nil
}

// GetNodesByParentID lists the direct children of a folder (or of the root
// when parentID is nil). The ordering is stable across calls with the same
// data; archive packing relies on that for reproducible output.
func (q *Queries) GetNodesByParentID(ctx context.Context, ownerID int64, parentID *string) ([]models.Node, error) {
	var query string
	var rows pgx.Rows
	var err error

	if parentID == nil {
		query = `SELECT id, owner_id, parent_id, name, node_type, size_bytes, mime_type, physical_ref, created_at, modified_at
				 FROM nodes
				 WHERE owner_id = $1 AND parent_id IS NULL
				 ORDER BY node_type DESC, name, id`
		rows, err = q.db.Query(ctx, query, ownerID)
	} else {
		query = `SELECT id, owner_id, parent_id, name, node_type, size_bytes, mime_type, physical_ref, created_at, modified_at
				 FROM nodes
				 WHERE owner_id = $1 AND parent_id = $2
				 ORDER BY node_type DESC, name, id`
		rows, err = q.db.Query(ctx, query, ownerID, *parentID)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		var node models.Node
		err := rows.Scan(
			&node.ID,
			&node.OwnerID,
			&node.ParentID,
			&node.Name,
			&node.NodeType,
			&node.SizeBytes,
			&node.MimeType,
			&node.PhysicalRef,
			&node.CreatedAt,
			&node.ModifiedAt,
		)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if nodes == nil {
		return []models.Node{}, nil
	}

	return nodes, nil
}

func (q *Queries) NodeExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM nodes WHERE id = $1)"
	err := q.db.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// SetNodeParent applies a reparent without any structural validation.
// Callers are expected to have validated the move first.
func (q *Queries) SetNodeParent(ctx context.Context, id string, ownerID int64, newParentID *string) (bool, error) {
	query := `
		UPDATE nodes
		SET parent_id = $1, modified_at = $2
		WHERE id = $3 AND owner_id = $4
	`
	now := time.Now()
	res, err := q.db.Exec(ctx, query, newParentID, now, id, ownerID)
	if err != nil {
		return false, err
	}

	return res.RowsAffected() > 0, nil
}

// DeleteNode removes a single node row. Children are not touched; a deleted
// folder leaves its children behind with a dangling parent_id.
func (q *Queries) DeleteNode(ctx context.Context, id string, ownerID int64) (bool, error) {
	query := `DELETE FROM nodes WHERE id = $1 AND owner_id = $2`
	res, err := q.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return false, err
	}

	return res.RowsAffected() > 0, nil
}
