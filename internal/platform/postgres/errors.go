package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/setgrouper/internal/store"
)

// SQLSTATE codes the entry store cares about.
const (
	notNullViolationCode     = "23502"
	checkViolationCode       = "23514"
	diskFullCode             = "53100"
	outOfMemoryCode          = "53200"
	programLimitExceededCode = "54000" // e.g. a bytea over 1GB
)

// MapError translates driver errors into store sentinels, keeping the
// original error in the chain.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrEntryNotFound, err)
	}
	if IsStorageFull(err) {
		return fmt.Errorf("%w: %v", store.ErrQuotaExceeded, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case checkViolationCode:
		return fmt.Errorf("%w: check constraint %s: %v", store.ErrInvalidEntity, pgErr.ConstraintName, err)
	case notNullViolationCode:
		return fmt.Errorf("%w: column %s is null: %v", store.ErrInvalidEntity, pgErr.ColumnName, err)
	}
	return err
}

// IsStorageFull reports whether err is a server-side resource exhaustion.
func IsStorageFull(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case diskFullCode, outOfMemoryCode, programLimitExceededCode:
		return true
	}
	return false
}
