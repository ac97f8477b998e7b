package store

import (
	"context"
	"fmt"
	"slices"
)

// Collections lists the store's tables, entities first
var Collections = []string{"persons", "threads", "messages", "sent", "messaged_in", "in_thread"}

// Sample is the first rows of a collection
type Sample struct {
	Collection string
	Columns    []string
	Rows       [][]interface{}
}

// SampleCollection returns up to limit rows of collection
func (s *Store) SampleCollection(ctx context.Context, collection string, limit int) (*Sample, error) {
	if !slices.Contains(Collections, collection) {
		return nil, fmt.Errorf("unknown collection: %s", collection)
	}

	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(fmt.Sprintf("SELECT * FROM %s LIMIT ?", collection)), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	sample := &Sample{Collection: collection, Columns: columns}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", collection, err)
		}
		sample.Rows = append(sample.Rows, values)
	}
	return sample, rows.Err()
}
