package queries

import (
	"context"
)

// Closure table primitives. Rows are (ancestor, descendant, depth); every
// folder X owns a reflexive row (X, X, 0). None of these methods open a
// transaction: the hierarchy operations in package database call them on a
// Queries obtained from WithTx.

const getSelfEdge = `
SELECT ancestor, descendant, depth
FROM folder_closure
WHERE ancestor = ? AND descendant = ?`

func (q *Queries) GetSelf(ctx context.Context, id int64) (FolderClosure, error) {
	var c FolderClosure
	err := q.queryRow(ctx, getSelfEdge, id, id).Scan(&c.Ancestor, &c.Descendant, &c.Depth)
	return c, err
}

const getAncestors = `
SELECT f.id, f.name, f.parent_id, c.depth
FROM folder_closure c
JOIN folders f ON f.id = c.ancestor
WHERE c.descendant = ? AND c.depth > 0
ORDER BY c.depth DESC`

// GetAncestors returns the proper ancestors of id, root first.
func (q *Queries) GetAncestors(ctx context.Context, id int64) ([]ClosureRow, error) {
	return q.listClosureRows(ctx, getAncestors, id)
}

const getDescendants = `
SELECT f.id, f.name, f.parent_id, c.depth
FROM folder_closure c
JOIN folders f ON f.id = c.descendant
WHERE c.ancestor = ?
ORDER BY c.depth ASC, f.id ASC`

// GetDescendants returns id and everything below it, shallowest first.
func (q *Queries) GetDescendants(ctx context.Context, id int64) ([]ClosureRow, error) {
	return q.listClosureRows(ctx, getDescendants, id)
}

const getDescendantsDeepestFirst = `
SELECT f.id, f.name, f.parent_id, c.depth
FROM folder_closure c
JOIN folders f ON f.id = c.descendant
WHERE c.ancestor = ?
ORDER BY c.depth DESC, f.id DESC`

// GetDescendantsDeepestFirst returns the same set as GetDescendants in the
// order folder rows can be deleted without orphaning a child.
func (q *Queries) GetDescendantsDeepestFirst(ctx context.Context, id int64) ([]ClosureRow, error) {
	return q.listClosureRows(ctx, getDescendantsDeepestFirst, id)
}

func (q *Queries) listClosureRows(ctx context.Context, query string, id int64) ([]ClosureRow, error) {
	rows, err := q.query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ClosureRow
	for rows.Next() {
		var r ClosureRow
		if err := rows.Scan(&r.FolderID, &r.Name, &r.ParentID, &r.Depth); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const isDescendant = `
SELECT COUNT(*)
FROM folder_closure
WHERE ancestor = ? AND descendant = ?`

// IsDescendant reports whether candidate is ancestor itself or lies below it.
func (q *Queries) IsDescendant(ctx context.Context, ancestor, candidate int64) (bool, error) {
	var n int64
	if err := q.queryRow(ctx, isDescendant, ancestor, candidate).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

const insertSelfEdge = `
INSERT INTO folder_closure (ancestor, descendant, depth)
VALUES (?, ?, 0)`

func (q *Queries) InsertSelfEdge(ctx context.Context, id int64) error {
	_, err := q.exec(ctx, insertSelfEdge, id, id)
	return err
}

// The new id sits in the SELECT list, where Postgres would type a bare
// parameter as text; the cast keeps it a bigint on both backends.
const insertInheritedEdges = `
INSERT INTO folder_closure (ancestor, descendant, depth)
SELECT ancestor, CAST(? AS BIGINT), depth + 1
FROM folder_closure
WHERE descendant = ?`

// InsertInheritedEdges gives newID every ancestor of parentID (parentID
// included, through its reflexive row) one level deeper, in one statement.
func (q *Queries) InsertInheritedEdges(ctx context.Context, newID, parentID int64) error {
	_, err := q.exec(ctx, insertInheritedEdges, newID, parentID)
	return err
}

// maxBatch keeps IN lists well under SQLite's bound-parameter limit.
const maxBatch = 400

// DeleteEdgesFor removes every row whose ancestor or descendant is in ids.
func (q *Queries) DeleteEdgesFor(ctx context.Context, ids []int64) error {
	for start := 0; start < len(ids); start += maxBatch {
		end := min(start+maxBatch, len(ids))
		in, args := inClause(ids[start:end])
		query := `DELETE FROM folder_closure WHERE ancestor IN (` + in + `) OR descendant IN (` + in + `)`
		if _, err := q.exec(ctx, query, append(args, args...)...); err != nil {
			return err
		}
	}
	return nil
}

const detachSubtree = `
DELETE FROM folder_closure
WHERE descendant IN (
    SELECT descendant FROM folder_closure WHERE ancestor = ?
)
AND ancestor IN (
    SELECT ancestor FROM folder_closure WHERE descendant = ? AND ancestor <> ?
)`

// DetachSubtree removes the links between the subtree rooted at folderID and
// the proper ancestors of folderID. Links inside the subtree are kept.
func (q *Queries) DetachSubtree(ctx context.Context, folderID int64) error {
	_, err := q.exec(ctx, detachSubtree, folderID, folderID, folderID)
	return err
}

const attachSubtree = `
INSERT INTO folder_closure (ancestor, descendant, depth)
SELECT sup.ancestor, sub.descendant, sup.depth + sub.depth + 1
FROM folder_closure sup
CROSS JOIN folder_closure sub
WHERE sup.descendant = ? AND sub.ancestor = ?`

// AttachSubtree links every ancestor of newParentID (itself included) to
// every member of the subtree rooted at folderID, keeping relative depths.
func (q *Queries) AttachSubtree(ctx context.Context, folderID, newParentID int64) error {
	_, err := q.exec(ctx, attachSubtree, newParentID, folderID)
	return err
}

const listAllEdges = `
SELECT ancestor, descendant, depth
FROM folder_closure
ORDER BY ancestor, descendant`

// ListAllEdges returns the whole closure table. Used by consistency checks.
func (q *Queries) ListAllEdges(ctx context.Context) ([]FolderClosure, error) {
	rows, err := q.query(ctx, listAllEdges)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []FolderClosure
	for rows.Next() {
		var c FolderClosure
		if err := rows.Scan(&c.Ancestor, &c.Descendant, &c.Depth); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listEdgesForSubtree = `
SELECT ancestor, descendant, depth
FROM folder_closure
WHERE descendant IN (SELECT descendant FROM folder_closure WHERE ancestor = ?)
ORDER BY ancestor, descendant`

// ListEdgesForSubtree returns every row pointing at a member of the subtree
// rooted at id, including rows from outside ancestors.
func (q *Queries) ListEdgesForSubtree(ctx context.Context, id int64) ([]FolderClosure, error) {
	rows, err := q.query(ctx, listEdgesForSubtree, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []FolderClosure
	for rows.Next() {
		var c FolderClosure
		if err := rows.Scan(&c.Ancestor, &c.Descendant, &c.Depth); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
