package internal

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lychee-technology/indexsync"
)

const linkFieldRowID = "row_id"

// PostgresCatalogRepository reads product relations, link ids, category
// scopes and stock flags from the catalog tables.
type PostgresCatalogRepository struct {
	pool      catalogPool
	tables    indexsync.TableNames
	linkField string
}

func NewPostgresCatalogRepository(pool catalogPool, tables indexsync.TableNames, linkField string) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{pool: pool, tables: tables, linkField: linkField}
}

func (r *PostgresCatalogRepository) usesRowLink() bool {
	return r.linkField == linkFieldRowID
}

// ParentIDs implements indexsync.ParentResolver.
func (r *PostgresCatalogRepository) ParentIDs(ctx context.Context, childIDs []int64) ([]indexsync.ParentChildLink, error) {
	links := make([]indexsync.ParentChildLink, 0)
	if len(childIDs) == 0 {
		return links, nil
	}

	query := fmt.Sprintf(
		`SELECT product_id, parent_id FROM %s WHERE product_id = ANY($1) ORDER BY product_id, parent_id`,
		sanitizeIdentifier(r.tables.SuperLink),
	)
	rows, err := r.pool.Query(ctx, query, childIDs)
	if err != nil {
		return nil, fmt.Errorf("query parent links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var link indexsync.ParentChildLink
		if err := rows.Scan(&link.ChildEntityID, &link.ParentEntityID); err != nil {
			return nil, fmt.Errorf("scan parent link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parent links: %w", err)
	}
	return links, nil
}

// ChildIDs implements indexsync.ChildResolver.
func (r *PostgresCatalogRepository) ChildIDs(ctx context.Context, parentID int64) ([]int64, error) {
	query := fmt.Sprintf(
		`SELECT product_id FROM %s WHERE parent_id = $1 ORDER BY product_id`,
		sanitizeIdentifier(r.tables.SuperLink),
	)
	rows, err := r.pool.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("query children of %d: %w", parentID, err)
	}
	return collectIDs(rows)
}

// EntityIDs implements indexsync.LinkFieldMapper. Unknown link ids are dropped.
func (r *PostgresCatalogRepository) EntityIDs(ctx context.Context, linkIDs []int64) ([]int64, error) {
	if !r.usesRowLink() {
		return uniqueInOrder(positiveIDs(linkIDs)), nil
	}
	if len(linkIDs) == 0 {
		return []int64{}, nil
	}

	query := fmt.Sprintf(
		`SELECT row_id, entity_id FROM %s WHERE row_id = ANY($1)`,
		sanitizeIdentifier(r.tables.Entity),
	)
	rows, err := r.pool.Query(ctx, query, linkIDs)
	if err != nil {
		return nil, fmt.Errorf("query entity ids by row id: %w", err)
	}
	defer rows.Close()

	byRow := make(map[int64]int64, len(linkIDs))
	for rows.Next() {
		var rowID, entityID int64
		if err := rows.Scan(&rowID, &entityID); err != nil {
			return nil, fmt.Errorf("scan entity id: %w", err)
		}
		byRow[rowID] = entityID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entity ids: %w", err)
	}

	out := NewOrderedSet[int64]()
	for _, linkID := range linkIDs {
		if entityID, ok := byRow[linkID]; ok {
			out.Add(entityID)
		}
	}
	return out.Slice(), nil
}

// LinkID implements indexsync.LinkFieldMapper. The latest row version wins.
func (r *PostgresCatalogRepository) LinkID(ctx context.Context, entityID int64) (int64, bool, error) {
	if entityID <= 0 {
		return 0, false, nil
	}
	if !r.usesRowLink() {
		return entityID, true, nil
	}

	query := fmt.Sprintf(
		`SELECT row_id FROM %s WHERE entity_id = $1 ORDER BY row_id DESC LIMIT 1`,
		sanitizeIdentifier(r.tables.Entity),
	)
	var rowID int64
	err := r.pool.QueryRow(ctx, query, entityID).Scan(&rowID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query row id of %d: %w", entityID, err)
	}
	return rowID, true, nil
}

func collectIDs(rows pgx.Rows) ([]int64, error) {
	defer rows.Close()
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}

func positiveIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 {
			out = append(out, id)
		}
	}
	return out
}
