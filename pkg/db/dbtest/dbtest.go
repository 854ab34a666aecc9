// Package dbtest opens SQLite databases shaped like the Postgres schema so
// repositories and workflows can be tested against a real transactional store.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tripgather/tripgather-backend/pkg/db"
)

var schema = []string{
	`CREATE TABLE users (
		uuid text PRIMARY KEY,
		email text NOT NULL,
		password text NOT NULL,
		created_at datetime,
		updated_at datetime,
		CONSTRAINT users_email_key UNIQUE (email)
	)`,
	`CREATE TABLE user_profiles (
		uuid text PRIMARY KEY,
		name text NOT NULL DEFAULT '',
		gender text,
		birthdate date,
		paradox_flag boolean NOT NULL DEFAULT false,
		profile_picture text,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE friends (
		user_uuid text NOT NULL,
		friend_uuid text NOT NULL,
		status text NOT NULL CHECK (status IN ('pending', 'accepted')),
		created_at datetime,
		updated_at datetime,
		CONSTRAINT friends_pair_key UNIQUE (user_uuid, friend_uuid)
	)`,
	`CREATE TABLE group_info (
		uuid text PRIMARY KEY,
		name text NOT NULL,
		description text NOT NULL DEFAULT '',
		group_icon text,
		group_picture text,
		visibility text NOT NULL DEFAULT 'public',
		group_leader_uuid text NOT NULL,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE group_members (
		group_uuid text NOT NULL,
		user_uuid text NOT NULL,
		role text NOT NULL,
		joined_at datetime,
		PRIMARY KEY (group_uuid, user_uuid)
	)`,
	`CREATE UNIQUE INDEX group_members_one_leader_idx ON group_members (group_uuid) WHERE role = 'leader'`,
	`CREATE TABLE group_surveys (
		group_uuid text PRIMARY KEY,
		activity_type integer NOT NULL DEFAULT 0,
		budget_type integer NOT NULL DEFAULT 0,
		trip_duration integer NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE group_invites (
		uuid text PRIMARY KEY,
		group_uuid text NOT NULL,
		inviter_uuid text NOT NULL,
		invitee_uuid text NOT NULL,
		status text NOT NULL DEFAULT 'pending',
		created_at datetime
	)`,
	`CREATE UNIQUE INDEX group_invites_pending_idx ON group_invites (group_uuid, invitee_uuid) WHERE status = 'pending'`,
	`CREATE TABLE announcements (
		uuid text PRIMARY KEY,
		group_uuid text NOT NULL,
		author_uuid text NOT NULL,
		title text NOT NULL,
		content text NOT NULL,
		created_at datetime
	)`,
	`CREATE TABLE schedules (
		uuid text PRIMARY KEY,
		title text NOT NULL,
		description text NOT NULL DEFAULT '',
		location text NOT NULL DEFAULT '',
		start_time datetime NOT NULL,
		end_time datetime NOT NULL,
		type text NOT NULL,
		owner_uuid text NOT NULL,
		group_uuid text,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE schedule_members (
		schedule_uuid text NOT NULL,
		user_uuid text NOT NULL,
		joined_at datetime,
		PRIMARY KEY (schedule_uuid, user_uuid)
	)`,
	`CREATE TABLE chat_rooms (
		uuid text PRIMARY KEY,
		type text NOT NULL,
		group_uuid text,
		schedule_uuid text,
		dm_pair_key text,
		created_at datetime,
		CONSTRAINT chat_rooms_dm_pair_key UNIQUE (dm_pair_key)
	)`,
	`CREATE UNIQUE INDEX chat_rooms_schedule_uuid_idx ON chat_rooms (schedule_uuid) WHERE type = 'schedule'`,
	`CREATE TABLE chat_room_members (
		room_uuid text NOT NULL,
		user_uuid text NOT NULL,
		joined_at datetime,
		PRIMARY KEY (room_uuid, user_uuid)
	)`,
	`CREATE TABLE chat_messages (
		uuid text PRIMARY KEY,
		room_uuid text NOT NULL,
		sender_uuid text NOT NULL,
		message text NOT NULL,
		sent_at datetime NOT NULL
	)`,
	`CREATE TABLE travel_votes (
		uuid text PRIMARY KEY,
		group_uuid text NOT NULL,
		creator_uuid text NOT NULL,
		title text NOT NULL,
		location text NOT NULL,
		start_date date NOT NULL,
		end_date date NOT NULL,
		headcount integer,
		description text NOT NULL DEFAULT '',
		vote_deadline datetime NOT NULL,
		schedule_uuid text NOT NULL,
		created_at datetime
	)`,
	`CREATE TABLE travel_vote_participants (
		vote_uuid text NOT NULL,
		user_uuid text NOT NULL,
		created_at datetime,
		PRIMARY KEY (vote_uuid, user_uuid)
	)`,
}

// Open returns a client over a private in-memory database with the full schema.
// A single connection keeps every statement on the same database.
func Open(t testing.TB) *db.Client {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v\n%s", err, stmt)
		}
	}
	return db.Wrap(conn)
}

// FailInserts makes every insert into table abort with message, simulating a
// constraint failure at one step of a workflow.
func FailInserts(t testing.TB, client *db.Client, table, message string) {
	t.Helper()
	stmt := fmt.Sprintf(
		"CREATE TRIGGER fail_%[1]s BEFORE INSERT ON %[1]s BEGIN SELECT RAISE(ABORT, '%[2]s'); END",
		table, strings.ReplaceAll(message, "'", ""),
	)
	if err := client.DB().Exec(stmt).Error; err != nil {
		t.Fatalf("install failure trigger: %v", err)
	}
}

// Count returns the number of rows in table matching the optional where clause.
func Count(t testing.TB, client *db.Client, table string, where string, args ...any) int64 {
	t.Helper()
	var n int64
	q := client.DB().Table(table)
	if where != "" {
		q = q.Where(where, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
