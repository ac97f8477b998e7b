package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/iskng/imessage-exporter/internal"
	"github.com/jmoiron/sqlx"
)

// graphMessage is the slice of a stored message the graph is derived from
type graphMessage struct {
	ID           string  `db:"id"`
	PhoneNumber  string  `db:"phone_number"`
	UniqueChatID string  `db:"unique_chat_id"`
	ThreadName   *string `db:"thread_name"`
	IsFromMe     bool    `db:"is_from_me"`
}

// GraphMaterializer derives Person and Thread entities from stored messages
// and links them with sent, messaged_in and in_thread edges
type GraphMaterializer struct {
	tx      *sqlx.Tx
	persons map[string]string
	threads map[string]string
	stats   internal.GraphStats
}

// MaterializeGraph runs the graph derivation in a single transaction.
// Persons and threads are looked up before being created, so repeated runs
// keep their counts. Edges are inserted unconditionally and repeat on every run.
func (s *Store) MaterializeGraph(ctx context.Context) (*internal.GraphStats, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin graph transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	g := &GraphMaterializer{
		tx:      tx,
		persons: make(map[string]string),
		threads: make(map[string]string),
	}
	if err := g.run(ctx); err != nil {
		return nil, err
	}

	counts, err := countCollections(ctx, tx)
	if err != nil {
		return nil, err
	}
	g.stats.TotalPersons = counts.Persons
	g.stats.TotalThreads = counts.Threads

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit graph: %w", err)
	}
	return &g.stats, nil
}

func (g *GraphMaterializer) run(ctx context.Context) error {
	var messages []graphMessage
	err := g.tx.SelectContext(ctx, &messages, `
		SELECT id, phone_number, unique_chat_id, thread_name, is_from_me
		FROM messages
		ORDER BY source_rowid`)
	if err != nil {
		return fmt.Errorf("failed to read messages: %w", err)
	}

	for _, m := range messages {
		g.stats.MessagesScanned++

		personID, err := g.person(ctx, m.PhoneNumber, m.IsFromMe)
		if err != nil {
			return err
		}
		threadID, err := g.thread(ctx, m.UniqueChatID, m.ThreadName)
		if err != nil {
			return err
		}

		if err := g.edge(ctx, "sent", "person_id", personID, "message_id", m.ID); err != nil {
			return err
		}
		g.stats.SentEdges++
		if err := g.edge(ctx, "messaged_in", "person_id", personID, "thread_id", threadID); err != nil {
			return err
		}
		g.stats.MessagedInEdges++
		if err := g.edge(ctx, "in_thread", "message_id", m.ID, "thread_id", threadID); err != nil {
			return err
		}
		g.stats.InThreadEdges++
	}
	return nil
}

// person returns the id of the Person with phoneNumber, creating it if needed
func (g *GraphMaterializer) person(ctx context.Context, phoneNumber string, isOwner bool) (string, error) {
	if id, ok := g.persons[phoneNumber]; ok {
		return id, nil
	}

	res, err := g.tx.ExecContext(ctx, g.tx.Rebind(`
		INSERT INTO persons (id, phone_number, is_owner) VALUES (?, ?, ?)
		ON CONFLICT (phone_number) DO NOTHING`),
		uuid.NewString(), phoneNumber, isOwner)
	if err != nil {
		return "", fmt.Errorf("failed to create person %s: %w", phoneNumber, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		g.stats.PersonsCreated++
	}

	var id string
	if err := g.tx.GetContext(ctx, &id, g.tx.Rebind(`SELECT id FROM persons WHERE phone_number = ?`), phoneNumber); err != nil {
		return "", fmt.Errorf("failed to look up person %s: %w", phoneNumber, err)
	}
	g.persons[phoneNumber] = id
	return id, nil
}

// thread returns the id of the Thread with uniqueChatID, creating it if needed
func (g *GraphMaterializer) thread(ctx context.Context, uniqueChatID string, name *string) (string, error) {
	if id, ok := g.threads[uniqueChatID]; ok {
		return id, nil
	}

	res, err := g.tx.ExecContext(ctx, g.tx.Rebind(`
		INSERT INTO threads (id, unique_chat_id, thread_name) VALUES (?, ?, ?)
		ON CONFLICT (unique_chat_id) DO NOTHING`),
		uuid.NewString(), uniqueChatID, name)
	if err != nil {
		return "", fmt.Errorf("failed to create thread %s: %w", uniqueChatID, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		g.stats.ThreadsCreated++
	}

	var id string
	if err := g.tx.GetContext(ctx, &id, g.tx.Rebind(`SELECT id FROM threads WHERE unique_chat_id = ?`), uniqueChatID); err != nil {
		return "", fmt.Errorf("failed to look up thread %s: %w", uniqueChatID, err)
	}
	g.threads[uniqueChatID] = id
	return id, nil
}

// edge links two entities. table and column names come from the fixed set above.
func (g *GraphMaterializer) edge(ctx context.Context, table, fromCol, from, toCol, to string) error {
	query := fmt.Sprintf("INSERT INTO %s (id, %s, %s) VALUES (?, ?, ?)", table, fromCol, toCol)
	if _, err := g.tx.ExecContext(ctx, g.tx.Rebind(query), uuid.NewString(), from, to); err != nil {
		return fmt.Errorf("failed to create %s edge: %w", table, err)
	}
	return nil
}
