package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusBadRequest, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("insert travel_votes failed")
	err := Wrap(CodeInternal, cause, "create travel vote")

	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected wrapped error to unwrap to cause")
	}
	if err.Error() != "INTERNAL_ERROR: create travel vote" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestAsAndIsCodeThroughFmtWrap(t *testing.T) {
	typed := New(CodeConflict, "email already registered")
	wrapped := fmt.Errorf("sign up: %w", typed)

	if got := As(wrapped); got != typed {
		t.Fatalf("expected As to find typed error")
	}
	if !IsCode(wrapped, CodeConflict) {
		t.Fatalf("expected IsCode conflict")
	}
	if IsCode(stdErrors.New("plain"), CodeConflict) {
		t.Fatalf("plain errors never match a code")
	}
}

func TestDumpCapturesPgError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key", TableName: "users", Message: "duplicate key"}
	err := Wrap(CodeInternal, pgErr, "sign up")

	dump := Dump(err)
	if dump.SQLState != "23505" || dump.Constraint != "users_email_key" || dump.Table != "users" {
		t.Fatalf("unexpected dump %+v", dump)
	}
	if dump.Guard != "user_email" {
		t.Fatalf("expected user_email guard, got %q", dump.Guard)
	}
	if dump.Code != CodeInternal {
		t.Fatalf("expected code in dump, got %q", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %v", dump.Chain)
	}
}

func TestDumpNamesGuardFromSQLiteMessage(t *testing.T) {
	cause := stdErrors.New("UNIQUE constraint failed: chat_rooms.dm_pair_key")
	dump := Dump(Wrap(CodeInternal, fmt.Errorf("insert room: %w", cause), "create dm room"))

	if dump.Table != "chat_rooms" || dump.Column != "dm_pair_key" {
		t.Fatalf("unexpected dump %+v", dump)
	}
	if dump.Guard != "dm_pair" {
		t.Fatalf("expected dm_pair guard, got %q", dump.Guard)
	}
}

func TestDumpLeavesGuardEmptyForUnknownFailures(t *testing.T) {
	dump := Dump(stdErrors.New("connection reset"))
	if dump.Guard != "" || dump.SQLState != "" {
		t.Fatalf("unexpected dump %+v", dump)
	}
	if dump := Dump(nil); dump.TopMessage != "" {
		t.Fatalf("expected empty dump for nil, got %+v", dump)
	}
}
