package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), gormConfig())
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&testModel{}))
	return conn
}

func countRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&testModel{}).Count(&count).Error)
	return count
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := Wrap(db)
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}))
	assert.Equal(t, int64(1), countRows(t, db))

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, int64(1), countRows(t, db))
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	client := Wrap(db)

	assert.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&testModel{Name: "panicky"}).Error; err != nil {
				return err
			}
			panic("kaboom")
		})
	})
	assert.Equal(t, int64(0), countRows(t, db))

	// the single pooled connection must have been released
	require.NoError(t, client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "after"}).Error
	}))
	assert.Equal(t, int64(1), countRows(t, db))
}

func TestPing(t *testing.T) {
	client := Wrap(newTestDB(t))
	require.NoError(t, client.Ping(context.Background()))
}

func TestIsUniqueViolation(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&testModel{Name: "dup"}).Error)
	sqliteErr := db.Create(&testModel{Name: "dup"}).Error
	require.Error(t, sqliteErr)

	assert.True(t, IsUniqueViolation(sqliteErr, ""))
	assert.True(t, IsUniqueViolation(sqliteErr, "test_models.name"))
	assert.False(t, IsUniqueViolation(sqliteErr, "other_constraint"))

	pgxErr := &pgconn.PgError{Code: "23505", ConstraintName: "chat_rooms_dm_pair_key_key"}
	assert.True(t, IsUniqueViolation(pgxErr, "dm_pair_key"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))

	pqErr := &pq.Error{Code: "23505", Constraint: "users_email_key"}
	assert.True(t, IsUniqueViolation(pqErr, "users_email_key"))

	assert.False(t, IsUniqueViolation(nil, ""))
	assert.False(t, IsUniqueViolation(errors.New("connection reset"), ""))
}
