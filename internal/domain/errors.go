package domain

import (
	"errors"
	"fmt"
)

// Таксономия ошибок ядра. Транспортный слой переводит их в HTTP-статусы,
// хранилища не отдают наружу сырые ошибки БД.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
)

// ValidationError оборачивает ErrValidation с пояснением.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundError оборачивает ErrNotFound с указанием сущности.
func NotFoundError(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

// ConflictError оборачивает ErrConflict с пояснением.
func ConflictError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
