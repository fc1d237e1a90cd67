// Package store provides a SQLite-backed cache for raw platform records.
// Only fetched rows are stored; every metric is recomputed on load.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/xpdash/internal/source"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNoSnapshot is returned when the cache holds nothing for the request.
var ErrNoSnapshot = errors.New("store: no cached snapshot")

// Cache provides SQLite-backed snapshot caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// SaveSnapshot replaces everything cached for the snapshot's user.
func (c *Cache) SaveSnapshot(ctx context.Context, snap source.Snapshot) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	uid := snap.Profile.ID
	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshot_meta WHERE user_id = ?", uid); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}

	fetched := snap.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO snapshot_meta
		(user_id, login, first_name, last_name, platform_level, total_xp, has_results, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uid, snap.Profile.Login, snap.Profile.FirstName, snap.Profile.LastName,
		nullInt(snap.Profile.Level), nullInt64(snap.TotalXP), boolInt(snap.Results != nil),
		fetched.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot meta: %w", err)
	}

	txStmt, err := tx.PrepareContext(ctx, `INSERT INTO xp_transactions
		(user_id, seq, tx_id, amount, created_at, has_object, object_id, object_name, object_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = txStmt.Close() }()
	for i, t := range snap.Transactions {
		id, name, typ := objectCols(t.Object)
		if _, err := txStmt.ExecContext(ctx, uid, i, t.ID, t.Amount, t.CreatedAt, boolInt(t.Object != nil), id, name, typ); err != nil {
			return fmt.Errorf("saving transaction %d: %w", i, err)
		}
	}

	progStmt, err := tx.PrepareContext(ctx, `INSERT INTO project_progress
		(user_id, seq, progress_id, grade, created_at, updated_at, has_object, object_id, object_name, object_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = progStmt.Close() }()
	for i, p := range snap.Progress {
		id, name, typ := objectCols(p.Object)
		if _, err := progStmt.ExecContext(ctx, uid, i, p.ID, nullFloat(p.Grade), p.CreatedAt, p.UpdatedAt, boolInt(p.Object != nil), id, name, typ); err != nil {
			return fmt.Errorf("saving progress %d: %w", i, err)
		}
	}

	for i, r := range snap.Results {
		if _, err := tx.ExecContext(ctx, "INSERT INTO audit_results (user_id, seq, grade) VALUES (?, ?, ?)", uid, i, nullFloat(r.Grade)); err != nil {
			return fmt.Errorf("saving audit result %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// LoadLatest returns the most recently fetched snapshot.
func (c *Cache) LoadLatest(ctx context.Context) (source.Snapshot, error) {
	var uid int
	err := c.db.QueryRowContext(ctx, "SELECT user_id FROM snapshot_meta ORDER BY fetched_at DESC LIMIT 1").Scan(&uid)
	if errors.Is(err, sql.ErrNoRows) {
		return source.Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return source.Snapshot{}, err
	}
	return c.LoadSnapshot(ctx, uid)
}

// LoadSnapshot returns the cached snapshot for userID.
func (c *Cache) LoadSnapshot(ctx context.Context, userID int) (source.Snapshot, error) {
	var (
		snap       source.Snapshot
		first      sql.NullString
		last       sql.NullString
		level      sql.NullInt64
		total      sql.NullInt64
		hasResults int
		fetched    string
	)
	err := c.db.QueryRowContext(ctx, `SELECT user_id, login, first_name, last_name, platform_level, total_xp, has_results, fetched_at
		FROM snapshot_meta WHERE user_id = ?`, userID).
		Scan(&snap.Profile.ID, &snap.Profile.Login, &first, &last, &level, &total, &hasResults, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return source.Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return source.Snapshot{}, err
	}
	snap.Profile.FirstName = first.String
	snap.Profile.LastName = last.String
	if level.Valid {
		l := int(level.Int64)
		snap.Profile.Level = &l
	}
	if total.Valid {
		t := total.Int64
		snap.TotalXP = &t
	}
	snap.FetchedAt, _ = time.Parse(time.RFC3339Nano, fetched)

	if snap.Transactions, err = c.loadTransactions(ctx, userID); err != nil {
		return source.Snapshot{}, err
	}
	if snap.Progress, err = c.loadProgress(ctx, userID); err != nil {
		return source.Snapshot{}, err
	}
	if hasResults != 0 {
		if snap.Results, err = c.loadResults(ctx, userID); err != nil {
			return source.Snapshot{}, err
		}
	}
	return snap, nil
}

func (c *Cache) loadTransactions(ctx context.Context, userID int) ([]source.RawTransaction, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT tx_id, amount, created_at, has_object, object_id, object_name, object_type
		FROM xp_transactions WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []source.RawTransaction{}
	for rows.Next() {
		var (
			t         source.RawTransaction
			id        sql.NullInt64
			hasObject int
			objID     sql.NullInt64
			objName   sql.NullString
			objType   sql.NullString
		)
		if err := rows.Scan(&id, &t.Amount, &t.CreatedAt, &hasObject, &objID, &objName, &objType); err != nil {
			return nil, err
		}
		t.ID = int(id.Int64)
		t.Object = scanObject(hasObject, objID, objName, objType)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (c *Cache) loadProgress(ctx context.Context, userID int) ([]source.RawProgress, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT progress_id, grade, created_at, updated_at, has_object, object_id, object_name, object_type
		FROM project_progress WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []source.RawProgress{}
	for rows.Next() {
		var (
			p         source.RawProgress
			id        sql.NullInt64
			grade     sql.NullFloat64
			created   sql.NullString
			hasObject int
			objID     sql.NullInt64
			objName   sql.NullString
			objType   sql.NullString
		)
		if err := rows.Scan(&id, &grade, &created, &p.UpdatedAt, &hasObject, &objID, &objName, &objType); err != nil {
			return nil, err
		}
		p.ID = int(id.Int64)
		if grade.Valid {
			g := grade.Float64
			p.Grade = &g
		}
		p.CreatedAt = created.String
		p.Object = scanObject(hasObject, objID, objName, objType)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (c *Cache) loadResults(ctx context.Context, userID int) ([]source.RawResult, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT grade FROM audit_results WHERE user_id = ? ORDER BY seq", userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []source.RawResult{}
	for rows.Next() {
		var grade sql.NullFloat64
		if err := rows.Scan(&grade); err != nil {
			return nil, err
		}
		var r source.RawResult
		if grade.Valid {
			g := grade.Float64
			r.Grade = &g
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Clear removes every cached snapshot.
func (c *Cache) Clear(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM snapshot_meta")
	return err
}

// SnapshotCount returns the number of cached snapshots.
func (c *Cache) SnapshotCount(ctx context.Context) (int, error) {
	var count int
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshot_meta").Scan(&count)
	return count, err
}

func objectCols(o *source.RawObject) (id any, name any, typ any) {
	if o == nil {
		return nil, nil, nil
	}
	return o.ID, o.Name, o.Type
}

func scanObject(has int, id sql.NullInt64, name, typ sql.NullString) *source.RawObject {
	if has == 0 {
		return nil
	}
	return &source.RawObject{ID: int(id.Int64), Name: name.String, Type: typ.String}
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
