package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/dmitrymomot/notifykit/pkg/ref"
)

// SQLiteStorage implements the Storage interface using a local SQLite
// database.
type SQLiteStorage struct {
	db *sqlx.DB
}

// SQLiteConfig holds SQLite storage configuration.
type SQLiteConfig struct {
	Path string `env:"NOTIFICATIONS_SQLITE_PATH" envDefault:"./notifications.db"`
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS notifications (
	id              TEXT PRIMARY KEY,
	target_kind     TEXT NOT NULL,
	target_id       TEXT NOT NULL,
	notifiable_kind TEXT NOT NULL,
	notifiable_id   TEXT NOT NULL,
	key             TEXT NOT NULL,
	group_kind      TEXT NOT NULL DEFAULT '',
	group_id        TEXT NOT NULL DEFAULT '',
	group_owner_id  TEXT NOT NULL DEFAULT '',
	notifier_kind   TEXT NOT NULL DEFAULT '',
	notifier_id     TEXT NOT NULL DEFAULT '',
	parameters      TEXT NOT NULL DEFAULT '{}',
	opened_at       TIMESTAMP,
	created_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_bundle
	ON notifications (target_kind, target_id, notifiable_kind, key, group_kind, group_id, opened_at);

CREATE INDEX IF NOT EXISTS idx_notifications_owner
	ON notifications (group_owner_id);
`

// NewSQLiteStorage opens (or creates) a SQLite database at dbPath, enables
// WAL mode, and ensures the schema exists. Write transactions take the write
// lock up front (_txlock=immediate) so the owner-election read in Create
// cannot interleave with another writer's insert.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// WAL improves concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type notificationRow struct {
	ID             string       `db:"id"`
	TargetKind     string       `db:"target_kind"`
	TargetID       string       `db:"target_id"`
	NotifiableKind string       `db:"notifiable_kind"`
	NotifiableID   string       `db:"notifiable_id"`
	Key            string       `db:"key"`
	GroupKind      string       `db:"group_kind"`
	GroupID        string       `db:"group_id"`
	GroupOwnerID   string       `db:"group_owner_id"`
	NotifierKind   string       `db:"notifier_kind"`
	NotifierID     string       `db:"notifier_id"`
	Parameters     string       `db:"parameters"`
	OpenedAt       sql.NullTime `db:"opened_at"`
	CreatedAt      time.Time    `db:"created_at"`
}

func (r notificationRow) toNotification() (Notification, error) {
	n := Notification{
		ID:           r.ID,
		Target:       ref.Ref{Kind: r.TargetKind, ID: r.TargetID},
		Notifiable:   ref.Ref{Kind: r.NotifiableKind, ID: r.NotifiableID},
		Key:          r.Key,
		Group:        ref.Ref{Kind: r.GroupKind, ID: r.GroupID},
		GroupOwnerID: r.GroupOwnerID,
		Notifier:     ref.Ref{Kind: r.NotifierKind, ID: r.NotifierID},
		CreatedAt:    r.CreatedAt,
	}
	if r.OpenedAt.Valid {
		openedAt := r.OpenedAt.Time
		n.OpenedAt = &openedAt
	}
	if r.Parameters != "" && r.Parameters != "{}" {
		if err := json.Unmarshal([]byte(r.Parameters), &n.Parameters); err != nil {
			return Notification{}, fmt.Errorf("decoding parameters for %s: %w", r.ID, err)
		}
	}
	return n, nil
}

func (s *SQLiteStorage) Create(ctx context.Context, n *Notification) error {
	if n.Target.IsZero() {
		return ErrMissingTarget
	}
	if n.Notifiable.IsZero() {
		return ErrMissingNotifiable
	}
	if n.Key == "" {
		return ErrMissingKey
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	params := "{}"
	if len(n.Parameters) > 0 {
		encoded, err := json.Marshal(n.Parameters)
		if err != nil {
			return fmt.Errorf("encoding parameters: %w", err)
		}
		params = string(encoded)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Owner election inside the write transaction: the most recently created
	// unopened owner of the same bundle tuple wins.
	if !n.Group.IsZero() {
		var ownerID string
		err := tx.GetContext(ctx, &ownerID, `
			SELECT id FROM notifications
			WHERE target_kind = ? AND target_id = ?
			  AND notifiable_kind = ? AND key = ?
			  AND group_kind = ? AND group_id = ?
			  AND group_owner_id = '' AND opened_at IS NULL
			ORDER BY created_at DESC, rowid DESC
			LIMIT 1`,
			n.Target.Kind, n.Target.ID,
			n.Notifiable.Kind, n.Key,
			n.Group.Kind, n.Group.ID,
		)
		switch {
		case err == nil:
			n.GroupOwnerID = ownerID
		case errors.Is(err, sql.ErrNoRows):
			// No open owner; this record starts the bundle.
		default:
			return fmt.Errorf("electing group owner: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notifications (
			id, target_kind, target_id, notifiable_kind, notifiable_id,
			key, group_kind, group_id, group_owner_id,
			notifier_kind, notifier_id, parameters, opened_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)`,
		n.ID, n.Target.Kind, n.Target.ID, n.Notifiable.Kind, n.Notifiable.ID,
		n.Key, n.Group.Kind, n.Group.ID, n.GroupOwnerID,
		n.Notifier.Kind, n.Notifier.ID, params, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Get(ctx context.Context, id string) (*Notification, error) {
	var row notificationRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM notifications WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("loading notification: %w", err)
	}

	n, err := row.toNotification()
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *SQLiteStorage) List(ctx context.Context, target ref.Ref, opts ListOptions) ([]Notification, error) {
	query := `SELECT * FROM notifications WHERE target_kind = ? AND target_id = ?`
	args := []any{target.Kind, target.ID}

	if opts.OnlyUnopened {
		query += ` AND opened_at IS NULL`
	}
	if opts.OwnersOnly {
		query += ` AND group_owner_id = ''`
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset)
	} else if opts.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, opts.Offset)
	}

	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	out := make([]Notification, 0, len(rows))
	for _, row := range rows {
		n, err := row.toNotification()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *SQLiteStorage) MarkOpened(ctx context.Context, id string, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET opened_at = ? WHERE id = ? AND opened_at IS NULL`,
		at, id,
	)
	if err != nil {
		return 0, fmt.Errorf("marking notification opened: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStorage) OpenMembers(ctx context.Context, ownerID string, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET opened_at = ? WHERE group_owner_id = ? AND opened_at IS NULL`,
		at, ownerID,
	)
	if err != nil {
		return 0, fmt.Errorf("opening group members: %w", err)
	}
	return res.RowsAffected()
}

type memberCountRow struct {
	OwnerID string `db:"group_owner_id"`
	Count   int64  `db:"member_count"`
}

func (s *SQLiteStorage) UnopenedMemberCounts(ctx context.Context, target ref.Ref) (map[string]int64, error) {
	var rows []memberCountRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT group_owner_id, COUNT(*) AS member_count
		FROM notifications
		WHERE target_kind = ? AND target_id = ?
		  AND group_owner_id != '' AND opened_at IS NULL
		GROUP BY group_owner_id`,
		target.Kind, target.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("counting unopened members: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.OwnerID] = row.Count
	}
	return counts, nil
}

func (s *SQLiteStorage) OpenedMemberCounts(ctx context.Context, target ref.Ref, limit int) (map[string]int64, error) {
	var rows []memberCountRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT group_owner_id, COUNT(*) AS member_count
		FROM notifications
		WHERE target_kind = ? AND target_id = ?
		  AND group_owner_id != '' AND opened_at IS NOT NULL
		  AND group_owner_id IN (
			SELECT id FROM notifications
			WHERE target_kind = ? AND target_id = ?
			  AND group_owner_id = '' AND opened_at IS NOT NULL
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		  )
		GROUP BY group_owner_id`,
		target.Kind, target.ID, target.Kind, target.ID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("counting opened members: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.OwnerID] = row.Count
	}
	return counts, nil
}

func (s *SQLiteStorage) CountUnopened(ctx context.Context, target ref.Ref) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM notifications
		WHERE target_kind = ? AND target_id = ?
		  AND group_owner_id = '' AND opened_at IS NULL`,
		target.Kind, target.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("counting unopened notifications: %w", err)
	}
	return count, nil
}

func (s *SQLiteStorage) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`DELETE FROM notifications WHERE id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("deleting notifications: %w", err)
	}
	return nil
}
