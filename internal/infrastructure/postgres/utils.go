package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/garment-ledger/internal/domain"
)

// Códigos SQLSTATE relevantes.
const (
	codeUniqueViolation  = "23505"
	codeCheckViolation   = "23514"
	codeLockNotAvailable = "55P03" // lock_timeout agotado
	codeDeadlockDetected = "40P01"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// isLockTimeout verifica si la espera por un bloqueo de fila superó lock_timeout (o hubo deadlock).
func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeLockNotAvailable || pgErr.Code == codeDeadlockDetected
	}
	return false
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeCheckViolation
	}
	return false
}

// wrapErr agrega contexto y traduce errores de PostgreSQL a errores de dominio.
func wrapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isLockTimeout(err):
		return fmt.Errorf("%s: %w", op, domain.ErrLockTimeout)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
	case isCheckViolation(err):
		return fmt.Errorf("%s: %w", op, domain.ErrInvalidQuantity)
	}
	return fmt.Errorf("%s: %w", op, err)
}
