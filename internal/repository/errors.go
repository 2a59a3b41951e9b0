package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"neowatch/internal/models"
)

type PersistErrorKind string

const (
	PersistConnectionLost      PersistErrorKind = "connection_lost"
	PersistConstraintViolation PersistErrorKind = "constraint_violation"
	PersistStorage             PersistErrorKind = "storage"
)

// PersistError - ошибка записи батча. Конфликт по натуральному ключу ошибкой не является.
type PersistError struct {
	Kind   PersistErrorKind
	Window models.DateWindow
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %s: %v", e.Window, e.Kind, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

func classifyPersistError(window models.DateWindow, err error) *PersistError {
	return &PersistError{Kind: persistKind(err), Window: window, Err: err}
}

func persistKind(err error) PersistErrorKind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		// 23xxx - integrity constraint violation, 08xxx - connection exception
		case strings.HasPrefix(pgErr.Code, "23"):
			return PersistConstraintViolation
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
			return PersistConnectionLost
		}
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return PersistConstraintViolation
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return PersistConnectionLost
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return PersistConnectionLost
	}

	return PersistStorage
}
