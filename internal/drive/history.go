package drive

import (
	"context"
	"fmt"

	"drive-go/internal/database/queries"
)

// GetHistory returns the most recent operations, newest first.
func (s *DriveService) GetHistory(ctx context.Context, limit int) ([]*queries.Operation, error) {
	ops, err := s.database.ListOperations(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}
