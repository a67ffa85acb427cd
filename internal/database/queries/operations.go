package queries

import (
	"context"
	"database/sql"
	"time"
)

type InsertOperationParams struct {
	Operation  string
	Parameters string
	StartedAt  time.Time
}

const insertOperation = `
INSERT INTO operations (operation, parameters, started_at, status)
VALUES (?, ?, ?, 'running')
RETURNING id`

func (q *Queries) InsertOperation(ctx context.Context, arg InsertOperationParams) (Operation, error) {
	op := Operation{
		Operation:  arg.Operation,
		Parameters: arg.Parameters,
		StartedAt:  arg.StartedAt,
		Status:     "running",
	}
	err := q.queryRow(ctx, insertOperation, arg.Operation, arg.Parameters, arg.StartedAt).Scan(&op.ID)
	return op, err
}

const updateOperationFinished = `
UPDATE operations SET finished_at = ?, status = ? WHERE id = ?`

func (q *Queries) UpdateOperationFinished(ctx context.Context, finishedAt sql.NullTime, status string, id int64) error {
	_, err := q.exec(ctx, updateOperationFinished, finishedAt, status, id)
	return err
}

const listOperations = `
SELECT id, operation, parameters, started_at, finished_at, status
FROM operations
ORDER BY id DESC
LIMIT ?`

func (q *Queries) ListOperations(ctx context.Context, limit int64) ([]Operation, error) {
	rows, err := q.query(ctx, listOperations, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Operation
	for rows.Next() {
		var op Operation
		if err := rows.Scan(&op.ID, &op.Operation, &op.Parameters, &op.StartedAt, &op.FinishedAt, &op.Status); err != nil {
			return nil, err
		}
		items = append(items, op)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
