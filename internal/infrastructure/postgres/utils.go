package postgres

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Códigos SQLSTATE que el adaptador traduce a errores de dominio.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgNumericOutOfRange   = "22003"
	pgLockNotAvailable    = "55P03"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	if code := pgCode(err); code != "" {
		return code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), pgUniqueViolation)
}

// isForeignKeyViolation 23503: referencia a producto/bodega inexistente o borrado con dependientes.
func isForeignKeyViolation(err error) bool {
	return pgCode(err) == pgForeignKeyViolation
}

// isCheckViolation 23514: p. ej. stock_levels.quantity < 0.
func isCheckViolation(err error) bool {
	return pgCode(err) == pgCheckViolation
}

// isNumericOutOfRange 22003: la cantidad no cabe en decimal(18,4).
func isNumericOutOfRange(err error) bool {
	return pgCode(err) == pgNumericOutOfRange
}

// isLockTimeout 55P03: se agotó lock_timeout esperando la fila.
func isLockTimeout(err error) bool {
	return pgCode(err) == pgLockNotAvailable
}

// constraintName nombre de la constraint violada ("" si no aplica).
func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// isUUID evita enviar a Postgres IDs que fallarían el cast a UUID (22P02).
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
