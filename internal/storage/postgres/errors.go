package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
	sqlStateInvalidText         = "22P02"

	constraintOrderCustomerFK = "orders_customer_fk"
	constraintDetailProductFK = "order_details_product_fk"
)

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func isUniqueViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == sqlStateUniqueViolation
}

// foreignKeyViolation возвращает имя нарушенного ограничения внешнего ключа.
func foreignKeyViolation(err error) (string, bool) {
	pgErr, ok := pgError(err)
	if !ok || pgErr.Code != sqlStateForeignKeyViolation {
		return "", false
	}
	return pgErr.ConstraintName, true
}

// isInvalidText распознаёт ошибку разбора значения (например, некорректный UUID).
func isInvalidText(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == sqlStateInvalidText
}
