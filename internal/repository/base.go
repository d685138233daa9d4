// Package repository implements the persistence collaborator: one repository
// per aggregate, each translating storage errors into AppErrors.
package repository

import (
	"errors"

	"circles/internal/database"
	"circles/internal/models"

	"gorm.io/gorm"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// writeError maps a write failure, turning unique violations into Conflict.
func writeError(err error, conflictMessage string) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if database.IsUniqueViolation(err) {
		return models.NewConflictError(conflictMessage)
	}
	return models.NewInternalError(err)
}

// readError maps a single-row read failure.
func readError(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return models.NewInternalError(err)
}

// likePattern escapes LIKE wildcards in q and wraps it for substring matching.
func likePattern(q string) string {
	escaped := make([]rune, 0, len(q)+2)
	for _, r := range q {
		if r == '%' || r == '_' || r == '\\' {
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, r)
	}
	return "%" + string(escaped) + "%"
}

// publicUser preloads only the profile columns safe to show other users.
func publicUser(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "name", "avatar")
}
