package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/farmiq/farmiq/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	if err := db.Exec("SELECT 1").Error; err != nil {
		t.Fatalf("expected health query to succeed: %v", err)
	}
	if err := Ping(db); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "oracle"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestAutoMigrateCreatesFarmTables(t *testing.T) {
	db := openTestDB(t)

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	for _, table := range []string{
		"users", "profiles", "ngo_schemes", "soil_lab", "crop_history", "iot_reading",
		"iot_status", "experts_info", "farmer_forum", "forum_posts", "forum_replies", "cache_entries",
	} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}

func TestDuplicatePrimaryKeyIsUniqueViolation(t *testing.T) {
	db := openTestDB(t)
	if err := AutoMigrateFarm(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	user := models.User{ID: 1, Email: "farmer@example.com", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	dup := models.User{ID: 1, Email: "other@example.com", PasswordHash: "x"}
	err := db.Create(&dup).Error
	if err == nil {
		t.Fatalf("expected duplicate insert to fail")
	}
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestIsUniqueViolationVendors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"postgres", &pgconn.PgError{Code: "23505"}, true},
		{"postgres other", &pgconn.PgError{Code: "23503"}, false},
		{"mysql", &mysql.MySQLError{Number: 1062}, true},
		{"sqlite text", errors.New("UNIQUE constraint failed: users.id"), true},
		{"other", errors.New("connection refused"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err); got != tc.want {
				t.Fatalf("IsUniqueViolation(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsMissingTable(t *testing.T) {
	db := openTestDB(t)

	var count int64
	err := db.Table("users").Count(&count).Error
	if !IsMissingTable(err) {
		t.Fatalf("expected missing table error, got %v", err)
	}
	if !IsMissingTable(&pgconn.PgError{Code: "42P01"}) {
		t.Fatalf("expected postgres undefined_table to be detected")
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite", DSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	t.Cleanup(func() {
		_ = Close(db)
	})

	return db
}
