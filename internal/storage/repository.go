package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"dailymeow/internal/core"
	"dailymeow/internal/store"

	_ "modernc.org/sqlite"
)

// timeLayout sorts lexically in UTC, so range filters compare strings.
const timeLayout = "2006-01-02 15:04:05.000Z"

var activityOrder = map[store.Sort]string{
	store.SortNone:        "rowid ASC",
	store.SortDateAsc:     "date ASC, time ASC",
	store.SortDateDesc:    "date DESC, time DESC",
	store.SortTimeAsc:     "time ASC",
	store.SortCreatedDesc: "created DESC, rowid DESC",
}

var financeOrder = map[store.Sort]string{
	store.SortNone:        "rowid ASC",
	store.SortDateAsc:     "date ASC",
	store.SortDateDesc:    "date DESC, created DESC",
	store.SortTimeAsc:     "date ASC",
	store.SortCreatedDesc: "created DESC, rowid DESC",
}

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ store.Store               = (*SQLiteRepository)(nil)
	_ store.FinanceBatchCreator = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// where renders the shared filter columns of a Query as a parameterized
// clause. Only column names from this function reach the SQL text.
func where(q store.Query) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{q.UserID}
	if !q.From.IsZero() {
		clauses = append(clauses, "date >= ?")
		args = append(args, formatTime(q.From))
	}
	if !q.To.IsZero() {
		clauses = append(clauses, "date <= ?")
		args = append(args, formatTime(q.To))
	}
	return strings.Join(clauses, " AND "), args
}

func limitClause(limit int) string {
	if limit > 0 {
		return fmt.Sprintf(" LIMIT %d", limit)
	}
	return ""
}

// CreateActivity implements store.ActivityStore
func (r *SQLiteRepository) CreateActivity(ctx context.Context, a core.Activity) (core.Activity, error) {
	if err := a.Validate(); err != nil {
		return core.Activity{}, err
	}
	a.ID = uuid.NewString()
	a.Created = r.now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activities (id, user_id, title, date, time, color, notes, is_completed, created)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Title, formatTime(a.Date), a.Time, string(a.Color), a.Notes, a.IsCompleted, formatTime(a.Created))
	if err != nil {
		return core.Activity{}, fmt.Errorf("create activity: %w", err)
	}

	slog.DebugContext(ctx, "Activity saved to SQLite", "id", a.ID, "user_id", a.UserID, "date", a.Date)
	return a, nil
}

// ListActivities implements store.ActivityStore
func (r *SQLiteRepository) ListActivities(ctx context.Context, q store.Query) ([]core.Activity, error) {
	cond, args := where(q)
	if q.Completed != nil {
		cond += " AND is_completed = ?"
		args = append(args, *q.Completed)
	}
	order, ok := activityOrder[q.Sort]
	if !ok {
		return nil, fmt.Errorf("unsupported activity sort %q", q.Sort)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, date, time, color, notes, is_completed, created
		 FROM activities WHERE `+cond+` ORDER BY `+order+limitClause(q.Limit), args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var out []core.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetActivity implements store.ActivityStore
func (r *SQLiteRepository) GetActivity(ctx context.Context, userID, id string) (core.Activity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, date, time, color, notes, is_completed, created
		 FROM activities WHERE id = ? AND user_id = ?`, id, userID)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Activity{}, core.ErrNotFound
	}
	if err != nil {
		return core.Activity{}, fmt.Errorf("get activity %s: %w", id, err)
	}
	return a, nil
}

func scanActivity(s scanner) (core.Activity, error) {
	var (
		a             core.Activity
		date, created string
		color         string
	)
	if err := s.Scan(&a.ID, &a.UserID, &a.Title, &date, &a.Time, &color, &a.Notes, &a.IsCompleted, &created); err != nil {
		return core.Activity{}, err
	}
	a.Date = parseTime(date)
	a.Created = parseTime(created)
	a.Color = core.Color(color)
	return a, nil
}

// DeleteActivity implements store.ActivityStore
func (r *SQLiteRepository) DeleteActivity(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete activity %s: %w", id, err)
	}
	return expectOneRow(res)
}

// CreateFinance implements store.FinanceStore
func (r *SQLiteRepository) CreateFinance(ctx context.Context, f core.Finance) (core.Finance, error) {
	if err := f.Validate(); err != nil {
		return core.Finance{}, err
	}
	f, err := insertFinance(ctx, r.db, f, r.now())
	if err != nil {
		return core.Finance{}, err
	}
	slog.DebugContext(ctx, "Finance saved to SQLite", "id", f.ID, "user_id", f.UserID, "amount", f.Amount)
	return f, nil
}

// CreateFinances implements store.FinanceBatchCreator
func (r *SQLiteRepository) CreateFinances(ctx context.Context, fs []core.Finance) ([]core.Finance, error) {
	for _, f := range fs {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := r.now()
	out := make([]core.Finance, 0, len(fs))
	for _, f := range fs {
		created, err := insertFinance(ctx, tx, f, now)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit finance batch: %w", err)
	}

	slog.InfoContext(ctx, "Finance batch saved to SQLite", "count", len(out))
	return out, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertFinance(ctx context.Context, db execer, f core.Finance, now time.Time) (core.Finance, error) {
	f.ID = uuid.NewString()
	f.Created = now
	_, err := db.ExecContext(ctx,
		`INSERT INTO finances (id, user_id, title, amount, type, date, created) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.Title, f.Amount, string(f.Type), formatTime(f.Date), formatTime(f.Created))
	if err != nil {
		return core.Finance{}, fmt.Errorf("create finance: %w", err)
	}
	return f, nil
}

// GetFinance implements store.FinanceStore
func (r *SQLiteRepository) GetFinance(ctx context.Context, userID, id string) (core.Finance, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, amount, type, date, created FROM finances WHERE id = ? AND user_id = ?`, id, userID)
	f, err := scanFinance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Finance{}, core.ErrNotFound
	}
	if err != nil {
		return core.Finance{}, fmt.Errorf("get finance %s: %w", id, err)
	}
	return f, nil
}

// ListFinances implements store.FinanceStore
func (r *SQLiteRepository) ListFinances(ctx context.Context, q store.Query) ([]core.Finance, error) {
	cond, args := where(q)
	if q.Type != "" {
		cond += " AND type = ?"
		args = append(args, string(q.Type))
	}
	order, ok := financeOrder[q.Sort]
	if !ok {
		return nil, fmt.Errorf("unsupported finance sort %q", q.Sort)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, amount, type, date, created
		 FROM finances WHERE `+cond+` ORDER BY `+order+limitClause(q.Limit), args...)
	if err != nil {
		return nil, fmt.Errorf("list finances: %w", err)
	}
	defer rows.Close()

	var out []core.Finance
	for rows.Next() {
		f, err := scanFinance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan finance: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFinance(s scanner) (core.Finance, error) {
	var (
		f             core.Finance
		typ           string
		date, created string
	)
	if err := s.Scan(&f.ID, &f.UserID, &f.Title, &f.Amount, &typ, &date, &created); err != nil {
		return core.Finance{}, err
	}
	f.Type = core.FinanceType(typ)
	f.Date = parseTime(date)
	f.Created = parseTime(created)
	return f, nil
}

// DeleteFinance implements store.FinanceStore
func (r *SQLiteRepository) DeleteFinance(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM finances WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete finance %s: %w", id, err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// CreateProfile implements store.ProfileStore
func (r *SQLiteRepository) CreateProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	if strings.TrimSpace(p.Name) == "" {
		return core.Profile{}, core.ErrEmptyName
	}
	p.ID = uuid.NewString()
	p.Created = r.now()
	p.Updated = p.Created
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, name, phone, password_hash, avatar_file_ref, timezone, created, updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Phone, p.PasswordHash, p.AvatarFileRef, p.Timezone, formatTime(p.Created), formatTime(p.Updated))
	if isUniqueConstraintError(err) {
		return core.Profile{}, core.ErrNameTaken
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}

const profileColumns = `id, name, phone, password_hash, avatar_file_ref, timezone, created, updated`

func scanProfile(s scanner) (core.Profile, error) {
	var (
		p            core.Profile
		created, upd string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Phone, &p.PasswordHash, &p.AvatarFileRef, &p.Timezone, &created, &upd); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Profile{}, core.ErrNotFound
		}
		return core.Profile{}, fmt.Errorf("scan profile: %w", err)
	}
	p.Created = parseTime(created)
	p.Updated = parseTime(upd)
	return p, nil
}

// GetProfile implements store.ProfileStore
func (r *SQLiteRepository) GetProfile(ctx context.Context, id string) (core.Profile, error) {
	return scanProfile(r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
}

// GetProfileByName implements store.ProfileStore
func (r *SQLiteRepository) GetProfileByName(ctx context.Context, name string) (core.Profile, error) {
	return scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE name = ? COLLATE NOCASE`, name))
}

// UpdateProfile implements store.ProfileStore
func (r *SQLiteRepository) UpdateProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	p.Updated = r.now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET name = ?, phone = ?, password_hash = ?, avatar_file_ref = ?, timezone = ?, updated = ?
		 WHERE id = ?`,
		p.Name, p.Phone, p.PasswordHash, p.AvatarFileRef, p.Timezone, formatTime(p.Updated), p.ID)
	if isUniqueConstraintError(err) {
		return core.Profile{}, core.ErrNameTaken
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("update profile %s: %w", p.ID, err)
	}
	if err := expectOneRow(res); err != nil {
		return core.Profile{}, err
	}
	return r.GetProfile(ctx, p.ID)
}
