package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"go-lab-sample-tracker/internal/lab"
)

const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
	mysqlNoReferencedRow = 1452
)

// classify maps driver errors onto the lab error taxonomy using the driver's
// error codes rather than message text.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return lab.ErrNotFound
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return fmt.Errorf("%w: %s", lab.ErrConflict, myErr.Message)
		case mysqlDeadlock, mysqlLockWaitTimeout:
			// the transaction was rolled back by the server and can be retried
			return fmt.Errorf("%w: %s", lab.ErrConflict, myErr.Message)
		case mysqlNoReferencedRow:
			return lab.Invalid("referenced record does not exist")
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		switch code {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", lab.ErrConflict, liteErr.Error())
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return lab.Invalid("referenced record does not exist")
		}
		if code&0xff == sqlite3.SQLITE_CONSTRAINT {
			return fmt.Errorf("%w: %s", lab.ErrConflict, liteErr.Error())
		}
	}
	return err
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return lab.ErrNotFound
	}
	return nil
}

// touched returns nil when res affected a row and otherwise asks explain why
// the conditional statement matched nothing.
func touched(res sql.Result, explain func() error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return explain()
	}
	return nil
}
