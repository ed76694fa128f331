package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"scribeq/internal/classify"
)

// NewFile enqueues a file at the end of the queue.
func (s *Store) NewFile(ctx context.Context, sourcePath string, kind classify.Kind) (*Item, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	displayName := inferDisplayName(sourcePath)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_items (
            source_path, display_name, kind, status, progress, credits_used,
            position, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?,
            COALESCE((SELECT MAX(position) FROM queue_items), 0) + 1, ?, ?)`,
		sourcePath,
		displayName,
		string(kind),
		StatusPending,
		0.0,
		0.0,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert file: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func inferDisplayName(sourcePath string) string {
	base := filepath.Base(sourcePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if strings.TrimSpace(name) == "" {
		return base
	}
	return name
}

// GetByID fetches a queue item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// FindBySourcePath returns the first non-terminal item for a source path.
// Used to reject duplicate enqueues of a file still waiting to be processed.
func (s *Store) FindBySourcePath(ctx context.Context, sourcePath string) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM queue_items
         WHERE source_path = ? AND status IN (?, ?, ?)
         ORDER BY position LIMIT 1`,
		sourcePath,
		StatusPending,
		StatusDetecting,
		StatusProcessing,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by source path: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing queue item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE queue_items
         SET source_path = ?, display_name = ?, kind = ?, status = ?,
             detected_lang_code = ?, detected_lang_name = ?, source_language = ?,
             progress = ?, progress_message = ?, error_message = ?,
             output_path = ?, credits_used = ?, updated_at = ?
         WHERE id = ?`,
		item.SourcePath,
		nullableString(item.DisplayName),
		string(item.Kind),
		item.Status,
		nullableString(item.DetectedLangCode),
		nullableString(item.DetectedLangName),
		nullableString(item.SourceLanguage),
		item.Progress,
		nullableString(item.ProgressMessage),
		nullableString(item.ErrorMessage),
		nullableString(item.OutputPath),
		item.CreditsUsed,
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// List returns queue items in queue order, filtered by status set when
// statuses are provided.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM queue_items`
	orderClause := ` ORDER BY position`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// NextForStatuses returns the first item in queue order matching any of the
// provided statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + itemColumns + ` FROM queue_items WHERE status IN (` + placeholders + `) ORDER BY position LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Reorder rewrites queue positions to match the given id order. Every queued
// item must appear exactly once.
func (s *Store) Reorder(ctx context.Context, ids []int64) error {
	items, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(ids) != len(items) {
		return fmt.Errorf("reorder: got %d ids, queue has %d items", len(ids), len(items))
	}
	known := make(map[int64]struct{}, len(items))
	for _, item := range items {
		known[item.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("reorder: unknown item id %d", id)
		}
		delete(known, id)
	}

	tx, err := s.db.BeginTx(ensureContext(ctx), nil)
	if err != nil {
		return fmt.Errorf("begin reorder tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	for position, id := range ids {
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE queue_items SET position = ?, updated_at = ? WHERE id = ?`,
			position+1,
			timestamp,
			id,
		); err != nil {
			return fmt.Errorf("reorder item %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

// Remove deletes an item by identifier. In-flight items cannot be removed.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}
	if item.Status.InFlight() {
		return false, fmt.Errorf("item %d is %s and cannot be removed", id, item.Status)
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearCompleted removes only completed items from the queue.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed items from the queue.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all items that are not in flight.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM queue_items WHERE status NOT IN (?, ?)`,
		StatusDetecting,
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}
