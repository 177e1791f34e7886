// Package postgres is the gorm-backed record store for deployments that run
// against a shared Postgres server instead of a local sqlite file.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"dailymeow/internal/core"
	"dailymeow/internal/store"
)

type profileRow struct {
	ID            string `gorm:"primaryKey;size:36"`
	Name          string `gorm:"size:255;not null;uniqueIndex"`
	Phone         int64
	PasswordHash  string `gorm:"size:255;not null"`
	AvatarFileRef string `gorm:"size:255"`
	Timezone      string `gorm:"size:64"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (profileRow) TableName() string { return "profiles" }

type activityRow struct {
	ID          string    `gorm:"primaryKey;size:36"`
	UserID      string    `gorm:"size:36;not null;index:idx_activities_user_date"`
	Title       string    `gorm:"size:255;not null"`
	Date        time.Time `gorm:"not null;index:idx_activities_user_date"`
	Time        string    `gorm:"size:5;not null;default:'00:00'"`
	Color       string    `gorm:"size:16;not null;default:'pink'"`
	Notes       string
	IsCompleted bool `gorm:"not null;default:false"`
	CreatedAt   time.Time
}

func (activityRow) TableName() string { return "activities" }

type financeRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;not null;index:idx_finances_user_date"`
	Title     string    `gorm:"size:255;not null"`
	Amount    int64     `gorm:"not null"`
	Type      string    `gorm:"size:16;not null"`
	Date      time.Time `gorm:"not null;index:idx_finances_user_date"`
	CreatedAt time.Time
}

func (financeRow) TableName() string { return "finances" }

var activityOrder = map[store.Sort]string{
	store.SortNone:        "created_at ASC",
	store.SortDateAsc:     "date ASC, time ASC",
	store.SortDateDesc:    "date DESC, time DESC",
	store.SortTimeAsc:     "time ASC",
	store.SortCreatedDesc: "created_at DESC",
}

var financeOrder = map[store.Sort]string{
	store.SortNone:        "created_at ASC",
	store.SortDateAsc:     "date ASC",
	store.SortDateDesc:    "date DESC, created_at DESC",
	store.SortTimeAsc:     "date ASC",
	store.SortCreatedDesc: "created_at DESC",
}

// Repository implements store.Store on gorm.
type Repository struct {
	db *gorm.DB
}

var (
	_ store.Store               = (*Repository)(nil)
	_ store.FinanceBatchCreator = (*Repository)(nil)
)

// Open connects to dsn and, when migrate is set, auto-migrates the schema.
func Open(dsn string, migrate bool) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return New(db, migrate)
}

// New wraps an existing gorm handle. Tests use it with other dialectors.
func New(db *gorm.DB, migrate bool) (*Repository, error) {
	if migrate {
		if err := db.AutoMigrate(&profileRow{}, &activityRow{}, &financeRow{}); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

func scoped(db *gorm.DB, q store.Query) *gorm.DB {
	db = db.Where("user_id = ?", q.UserID)
	if !q.From.IsZero() {
		db = db.Where("date >= ?", q.From.UTC())
	}
	if !q.To.IsZero() {
		db = db.Where("date <= ?", q.To.UTC())
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	return db
}

func toActivity(row activityRow) core.Activity {
	return core.Activity{
		ID:          row.ID,
		UserID:      row.UserID,
		Title:       row.Title,
		Date:        row.Date.UTC(),
		Time:        row.Time,
		Color:       core.Color(row.Color),
		Notes:       row.Notes,
		IsCompleted: row.IsCompleted,
		Created:     row.CreatedAt.UTC(),
	}
}

func toFinance(row financeRow) core.Finance {
	return core.Finance{
		ID:      row.ID,
		UserID:  row.UserID,
		Title:   row.Title,
		Amount:  row.Amount,
		Type:    core.FinanceType(row.Type),
		Date:    row.Date.UTC(),
		Created: row.CreatedAt.UTC(),
	}
}

func toProfile(row profileRow) core.Profile {
	return core.Profile{
		ID:            row.ID,
		Name:          row.Name,
		Phone:         row.Phone,
		PasswordHash:  row.PasswordHash,
		AvatarFileRef: row.AvatarFileRef,
		Timezone:      row.Timezone,
		Created:       row.CreatedAt.UTC(),
		Updated:       row.UpdatedAt.UTC(),
	}
}

func (r *Repository) CreateActivity(ctx context.Context, a core.Activity) (core.Activity, error) {
	if err := a.Validate(); err != nil {
		return core.Activity{}, err
	}
	row := activityRow{
		ID:          uuid.NewString(),
		UserID:      a.UserID,
		Title:       a.Title,
		Date:        a.Date.UTC(),
		Time:        a.Time,
		Color:       string(a.Color),
		Notes:       a.Notes,
		IsCompleted: a.IsCompleted,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return core.Activity{}, fmt.Errorf("create activity: %w", err)
	}
	return toActivity(row), nil
}

func (r *Repository) GetActivity(ctx context.Context, userID, id string) (core.Activity, error) {
	var row activityRow
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Activity{}, core.ErrNotFound
	}
	if err != nil {
		return core.Activity{}, fmt.Errorf("get activity %s: %w", id, err)
	}
	return toActivity(row), nil
}

func (r *Repository) ListActivities(ctx context.Context, q store.Query) ([]core.Activity, error) {
	order, ok := activityOrder[q.Sort]
	if !ok {
		return nil, fmt.Errorf("unsupported activity sort %q", q.Sort)
	}
	db := scoped(r.db.WithContext(ctx), q)
	if q.Completed != nil {
		db = db.Where("is_completed = ?", *q.Completed)
	}
	var rows []activityRow
	if err := db.Order(order).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	out := make([]core.Activity, 0, len(rows))
	for _, row := range rows {
		out = append(out, toActivity(row))
	}
	return out, nil
}

func (r *Repository) DeleteActivity(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&activityRow{})
	if res.Error != nil {
		return fmt.Errorf("delete activity %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func newFinanceRow(f core.Finance) financeRow {
	return financeRow{
		ID:     uuid.NewString(),
		UserID: f.UserID,
		Title:  f.Title,
		Amount: f.Amount,
		Type:   string(f.Type),
		Date:   f.Date.UTC(),
	}
}

func (r *Repository) CreateFinance(ctx context.Context, f core.Finance) (core.Finance, error) {
	if err := f.Validate(); err != nil {
		return core.Finance{}, err
	}
	row := newFinanceRow(f)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return core.Finance{}, fmt.Errorf("create finance: %w", err)
	}
	return toFinance(row), nil
}

func (r *Repository) CreateFinances(ctx context.Context, fs []core.Finance) ([]core.Finance, error) {
	rows := make([]financeRow, 0, len(fs))
	for _, f := range fs {
		if err := f.Validate(); err != nil {
			return nil, err
		}
		rows = append(rows, newFinanceRow(f))
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create finance batch: %w", err)
	}
	out := make([]core.Finance, 0, len(rows))
	for _, row := range rows {
		out = append(out, toFinance(row))
	}
	slog.InfoContext(ctx, "Finance batch saved to Postgres", "count", len(out))
	return out, nil
}

func (r *Repository) GetFinance(ctx context.Context, userID, id string) (core.Finance, error) {
	var row financeRow
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Finance{}, core.ErrNotFound
	}
	if err != nil {
		return core.Finance{}, fmt.Errorf("get finance %s: %w", id, err)
	}
	return toFinance(row), nil
}

func (r *Repository) ListFinances(ctx context.Context, q store.Query) ([]core.Finance, error) {
	order, ok := financeOrder[q.Sort]
	if !ok {
		return nil, fmt.Errorf("unsupported finance sort %q", q.Sort)
	}
	db := scoped(r.db.WithContext(ctx), q)
	if q.Type != "" {
		db = db.Where("type = ?", string(q.Type))
	}
	var rows []financeRow
	if err := db.Order(order).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list finances: %w", err)
	}
	out := make([]core.Finance, 0, len(rows))
	for _, row := range rows {
		out = append(out, toFinance(row))
	}
	return out, nil
}

func (r *Repository) DeleteFinance(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&financeRow{})
	if res.Error != nil {
		return fmt.Errorf("delete finance %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) CreateProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	if strings.TrimSpace(p.Name) == "" {
		return core.Profile{}, core.ErrEmptyName
	}
	var cnt int64
	r.db.WithContext(ctx).Model(&profileRow{}).Where("LOWER(name) = LOWER(?)", p.Name).Count(&cnt)
	if cnt > 0 {
		return core.Profile{}, core.ErrNameTaken
	}
	row := profileRow{
		ID:            uuid.NewString(),
		Name:          p.Name,
		Phone:         p.Phone,
		PasswordHash:  p.PasswordHash,
		AvatarFileRef: p.AvatarFileRef,
		Timezone:      p.Timezone,
	}
	err := r.db.WithContext(ctx).Create(&row).Error
	if isUniqueConstraintError(err) {
		return core.Profile{}, core.ErrNameTaken
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("create profile: %w", err)
	}
	return toProfile(row), nil
}

func (r *Repository) findProfile(ctx context.Context, query string, arg any) (core.Profile, error) {
	var row profileRow
	err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Profile{}, core.ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return toProfile(row), nil
}

func (r *Repository) GetProfile(ctx context.Context, id string) (core.Profile, error) {
	return r.findProfile(ctx, "id = ?", id)
}

func (r *Repository) GetProfileByName(ctx context.Context, name string) (core.Profile, error) {
	return r.findProfile(ctx, "LOWER(name) = LOWER(?)", name)
}

func (r *Repository) UpdateProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	res := r.db.WithContext(ctx).Model(&profileRow{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":            p.Name,
		"phone":           p.Phone,
		"password_hash":   p.PasswordHash,
		"avatar_file_ref": p.AvatarFileRef,
		"timezone":        p.Timezone,
	})
	if isUniqueConstraintError(res.Error) {
		return core.Profile{}, core.ErrNameTaken
	}
	if res.Error != nil {
		return core.Profile{}, fmt.Errorf("update profile %s: %w", p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return core.Profile{}, core.ErrNotFound
	}
	return r.GetProfile(ctx, p.ID)
}
