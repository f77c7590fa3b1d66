package cache

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farmiq/farmiq/internal/models"
)

// key is reserved on MySQL, so conditions go through clause builders that quote it.
var keyColumn = clause.Column{Name: "key"}

// DatabaseStore implements the cache Store interface using the primary SQL database.
// Values must be valid JSON because the column is a JSON type on Postgres and MySQL.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore constructs a database-backed Store.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	if db == nil {
		return nil
	}
	return &DatabaseStore{db: db}
}

// Set upserts the value for a given key.
func (s *DatabaseStore) Set(ctx context.Context, key string, entry Entry) error {
	if s == nil {
		return errors.New("cache: database store not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	row := models.CacheEntry{
		Key:      key,
		Value:    entry.Value,
		StoredAt: entry.StoredAt.UTC(),
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{keyColumn},
			DoUpdates: clause.AssignmentColumns([]string{"value", "stored_at", "updated_at"}),
		}).Create(&row).Error
}

// Get retrieves a value by key.
func (s *DatabaseStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	if s == nil {
		return Entry{}, false, errors.New("cache: database store not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var row models.CacheEntry
	err := s.db.WithContext(ctx).Where(clause.Eq{Column: keyColumn, Value: key}).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	return Entry{Value: []byte(row.Value), StoredAt: row.StoredAt}, true, nil
}

// Delete removes keys from the store.
func (s *DatabaseStore) Delete(ctx context.Context, keys ...string) error {
	if s == nil {
		return errors.New("cache: database store not initialised")
	}
	if len(keys) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	values := make([]interface{}, len(keys))
	for i, key := range keys {
		values[i] = key
	}
	return s.db.WithContext(ctx).Where(clause.IN{Column: keyColumn, Values: values}).Delete(&models.CacheEntry{}).Error
}

// PurgeBefore deletes rows stored before cutoff.
func (s *DatabaseStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil {
		return 0, errors.New("cache: database store not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := s.db.WithContext(ctx).Where("stored_at < ?", cutoff.UTC()).Delete(&models.CacheEntry{})
	return result.RowsAffected, result.Error
}

// Ping checks the database connection.
func (s *DatabaseStore) Ping(ctx context.Context) error {
	if s == nil {
		return errors.New("cache: database store not initialised")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
