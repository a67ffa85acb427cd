package database

import (
	"context"
	"database/sql"
	"fmt"

	"drive-go/internal/database/queries"
)

// Operation log

func (s *SQLDatabase) CreateOperation(ctx context.Context, operation, parameters string) (*queries.Operation, error) {
	op, err := s.queries.InsertOperation(ctx, queries.InsertOperationParams{
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	return &op, nil
}

func (s *SQLDatabase) FinishOperation(ctx context.Context, id int64, status string) error {
	finishedAt := sql.NullTime{Time: s.now(), Valid: true}
	if err := s.queries.UpdateOperationFinished(ctx, finishedAt, status, id); err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (s *SQLDatabase) ListOperations(ctx context.Context, limit int) ([]*queries.Operation, error) {
	items, err := s.queries.ListOperations(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	result := make([]*queries.Operation, len(items))
	for i := range items {
		result[i] = &items[i]
	}
	return result, nil
}
