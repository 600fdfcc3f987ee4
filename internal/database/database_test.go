// internal/database/database_test.go
//
// Unit-tests for Migrate using sqlmock.
//
// Run: go test ./internal/database -v

package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func TestMigrate(t *testing.T) {
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	db := sqlx.NewDb(raw, "mysql")
	defer db.Close()

	create := `CREATE TABLE IF NOT EXISTS sessions (token CHAR(43) PRIMARY KEY)`
	index := `CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions (expiry)`
	mock.ExpectExec(regexp.QuoteMeta(create)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(index)).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := Migrate(context.Background(), db, []string{create, "  ", index}); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestMigrate_StopsAtFirstFailure(t *testing.T) {
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	db := sqlx.NewDb(raw, "mysql")
	defer db.Close()

	boom := errors.New("access denied")
	mock.ExpectExec("CREATE TABLE a").WillReturnError(boom)

	err = Migrate(context.Background(), db, []string{"CREATE TABLE a", "CREATE TABLE b"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
