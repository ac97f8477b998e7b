package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/iskng/imessage-exporter/internal"
)

const insertMessageSQL = `
INSERT INTO messages (
	id, source_rowid, guid, text, service, platform, handle_id, destination_caller_id,
	subject, date, date_read, date_delivered, date_edited, is_from_me, is_read,
	item_type, other_handle, share_status, share_direction, group_title,
	group_action_type, associated_message_guid, associated_message_type,
	associated_message_emoji, balloon_bundle_id, expressive_send_style_id,
	thread_originator_guid, thread_originator_part, chat_id, unique_chat_id,
	num_attachments, deleted_from, num_replies, full_message, thread_name,
	attachment_paths, is_deleted, is_edited, is_reply, phone_number
) VALUES (
	:id, :source_rowid, :guid, :text, :service, :platform, :handle_id, :destination_caller_id,
	:subject, :date, :date_read, :date_delivered, :date_edited, :is_from_me, :is_read,
	:item_type, :other_handle, :share_status, :share_direction, :group_title,
	:group_action_type, :associated_message_guid, :associated_message_type,
	:associated_message_emoji, :balloon_bundle_id, :expressive_send_style_id,
	:thread_originator_guid, :thread_originator_part, :chat_id, :unique_chat_id,
	:num_attachments, :deleted_from, :num_replies, :full_message, :thread_name,
	:attachment_paths, :is_deleted, :is_edited, :is_reply, :phone_number
) ON CONFLICT (guid) DO NOTHING`

// messageRow is a TransportRecord with its store id
type messageRow struct {
	ID string `db:"id"`
	*internal.TransportRecord
}

// InsertResult reports how a batch was applied
type InsertResult struct {
	Inserted   int
	Duplicates int
}

// InsertMessages writes records one at a time inside a single transaction.
// Either every record is applied or none is. Records whose guid is already
// stored are skipped and counted as duplicates.
func (s *Store) InsertMessages(ctx context.Context, records []*internal.TransportRecord) (*InsertResult, error) {
	result := &InsertResult{}
	if len(records) == 0 {
		return result, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareNamedContext(ctx, insertMessageSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		res, err := stmt.ExecContext(ctx, messageRow{ID: uuid.NewString(), TransportRecord: rec})
		if err != nil {
			return nil, fmt.Errorf("failed to insert message %s: %w", rec.GUID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			result.Duplicates++
			continue
		}
		result.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit insert: %w", err)
	}
	if result.Duplicates > 0 {
		internal.LogWarn("Skipped %d messages already in the store", result.Duplicates)
	}
	return result, nil
}

// Message returns the stored record with the given guid
func (s *Store) Message(ctx context.Context, guid string) (*internal.TransportRecord, error) {
	var row messageRow
	row.TransportRecord = &internal.TransportRecord{}
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT * FROM messages WHERE guid = ?`), guid)
	if err != nil {
		return nil, fmt.Errorf("failed to load message %s: %w", guid, err)
	}
	return row.TransportRecord, nil
}
