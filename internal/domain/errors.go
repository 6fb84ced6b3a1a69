package domain

import "errors"

var (
	// ErrStoreUnavailable возвращается, когда хранилище недоступно. Движок не повторяет запросы сам.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound возвращается, когда запись не найдена.
	ErrNotFound = errors.New("not found")

	// ErrValidation возвращается при некорректных входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden возвращается, когда у вызывающего нет прав на операцию.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition возвращается при недопустимом переходе статуса.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrSweepInProgress возвращается, если другой проход уже держит блокировку.
	ErrSweepInProgress = errors.New("sweep already in progress")
)
