package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump flattens an error chain for structured request logs. Guard names
// the TripGather invariant a constraint violation tripped, so dashboards can
// group duplicate-email sign ups apart from racing DM room creation.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`
	Guard      string   `json:"guard,omitempty"`

	SQLState   string `json:"sql_state,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

var constraintGuards = map[string]string{
	"users_email_key":               "user_email",
	"friends_pair_key":              "friend_pair",
	"friends_not_self":              "friend_self",
	"chat_rooms_dm_pair_key":        "dm_pair",
	"chat_rooms_schedule_uuid_idx":  "schedule_room",
	"chat_room_members_pkey":        "room_member",
	"group_members_pkey":            "group_member",
	"group_members_one_leader_idx":  "group_leader",
	"group_invites_pending_idx":     "pending_invite",
	"schedule_members_pkey":         "schedule_member",
	"travel_vote_participants_pkey": "vote_participant",
	"travel_votes_date_order":       "vote_dates",
	"travel_votes_headcount_check":  "vote_headcount",
	"schedules_time_order":          "schedule_times",
}

// sqlite reports "UNIQUE constraint failed: table.col[, table.col]" with no
// constraint name, so columns map onto the same guards.
var columnGuards = map[string]string{
	"users.email":                        "user_email",
	"friends.user_uuid":                  "friend_pair",
	"chat_rooms.dm_pair_key":             "dm_pair",
	"chat_rooms.schedule_uuid":           "schedule_room",
	"chat_room_members.room_uuid":        "room_member",
	"group_members.group_uuid":           "group_member",
	"group_invites.group_uuid":           "pending_invite",
	"schedule_members.schedule_uuid":     "schedule_member",
	"travel_vote_participants.vote_uuid": "vote_participant",
}

const sqliteUniquePrefix = "UNIQUE constraint failed: "

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.SQLState = pgxErr.Code
		d.Constraint = pgxErr.ConstraintName
		d.Table = pgxErr.TableName
		d.Column = pgxErr.ColumnName
		d.Detail = pgxErr.Detail
	case errors.As(err, &pqErr):
		d.SQLState = string(pqErr.Code)
		d.Constraint = pqErr.Constraint
		d.Table = pqErr.Table
		d.Column = pqErr.Column
		d.Detail = pqErr.Detail
	default:
		d.Table, d.Column = parseSQLiteUnique(err)
	}

	d.Guard = guardFor(d.Constraint, d.Table, d.Column)
	return d
}

func guardFor(constraint, table, column string) string {
	if g, ok := constraintGuards[constraint]; ok {
		return g
	}
	if table != "" && column != "" {
		return columnGuards[table+"."+column]
	}
	return ""
}

func parseSQLiteUnique(err error) (table, column string) {
	for e := err; e != nil; e = errors.Unwrap(e) {
		msg := e.Error()
		i := strings.Index(msg, sqliteUniquePrefix)
		if i < 0 {
			continue
		}
		first, _, _ := strings.Cut(msg[i+len(sqliteUniquePrefix):], ",")
		table, column, _ = strings.Cut(strings.TrimSpace(first), ".")
		return table, column
	}
	return "", ""
}
