package task

import (
	"context"
	"errors"
	"time"

	domain "github.com/example/task-tracker/domain/task"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormRepository stores tasks in SQLite through GORM.
type GormRepository struct {
	db *gorm.DB
}

// Compile-time interface check.
var _ domain.Repository = (*GormRepository)(nil)

// OpenSQLite opens the SQLite database at path and migrates the tasks table.
// Timestamps are generated in UTC.
func OpenSQLite(path string, debug bool) (*GormRepository, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, &domain.StoreError{Op: "open", Err: err}
	}

	// SQLite serializes writers; one connection also keeps ":memory:" databases shared.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, &domain.StoreError{Op: "open", Err: err}
	}
	sqlDB.SetMaxOpenConns(1)

	repo := NewGormRepository(db)
	if err := repo.Migrate(); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

// NewGormRepository creates a repository over an open GORM handle.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates or updates the tasks table.
func (r *GormRepository) Migrate() error {
	if err := r.db.AutoMigrate(&domain.Task{}); err != nil {
		return &domain.StoreError{Op: "migrate", Err: err}
	}
	return nil
}

// List returns all active tasks, newest first.
func (r *GormRepository) List(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Order("id DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, &domain.StoreError{Op: "list", Err: err}
	}
	return tasks, nil
}

// Get returns a single active task.
func (r *GormRepository) Get(ctx context.Context, id int64) (*domain.Task, error) {
	var t domain.Task
	if err := r.db.WithContext(ctx).First(&t, "id = ? AND is_active = ?", id, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.StoreError{Op: "get", Err: err}
	}
	return &t, nil
}

// Create inserts a new active task.
func (r *GormRepository) Create(ctx context.Context, t *domain.Task) error {
	t.ID = 0
	t.IsActive = true
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return &domain.StoreError{Op: "create", Err: err}
	}
	return nil
}

// Update applies the patch with a single UPDATE restricted to active rows,
// then reads the row back.
func (r *GormRepository) Update(ctx context.Context, id int64, patch domain.Patch) (*domain.Task, error) {
	cols := patch.Columns()
	if len(cols) == 0 {
		return nil, domain.ErrNoFields
	}
	updates := make(map[string]any, len(cols))
	for _, c := range cols {
		updates[c.Name] = c.Value
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(updates)
	if result.Error != nil {
		return nil, &domain.StoreError{Op: "update", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return r.Get(ctx, id)
}

// Deactivate soft-deletes an active task.
func (r *GormRepository) Deactivate(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return &domain.StoreError{Op: "deactivate", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Ping verifies the database is reachable.
func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return &domain.StoreError{Op: "ping", Err: err}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return &domain.StoreError{Op: "ping", Err: err}
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
