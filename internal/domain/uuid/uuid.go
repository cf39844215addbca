// Package uuid wraps github.com/google/uuid with a string-backed identifier
// that survives bson/json round trips without custom codecs.
package uuid

import (
	"github.com/google/uuid"
)

// UUID строковый идентификатор приложения
type UUID string

// NewUUID создает новый UUID
func NewUUID() UUID {
	return UUID(uuid.New().String())
}

// ParseUUID парсит строку в UUID в канонической форме
func ParseUUID(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return UUID(id.String()), nil
}

// IsValid reports whether s is an identifier produced by NewUUID.
func IsValid(s string) bool {
	return uuid.Validate(s) == nil
}

// String возвращает строковое представление
func (u UUID) String() string {
	return string(u)
}

// IsZero проверяет, является ли UUID нулевым
func (u UUID) IsZero() bool {
	return u == ""
}
