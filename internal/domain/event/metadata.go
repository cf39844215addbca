package event

import "time"

// SystemUser is recorded as the author of changes made by background workers.
const SystemUser = "system"

// Metadata содержит метаданные события
type Metadata struct {
	UserID        string    `json:"user_id,omitempty"`
	UserName      string    `json:"user_name,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewMetadata создает новые метаданные
func NewMetadata(userID, userName string) Metadata {
	return Metadata{
		UserID:    userID,
		UserName:  userName,
		Timestamp: time.Now().UTC(),
	}
}

// SystemMetadata returns metadata for changes made without an operator.
func SystemMetadata() Metadata {
	return NewMetadata(SystemUser, SystemUser)
}

// WithCorrelationID добавляет correlation id (обычно X-Request-ID)
func (m Metadata) WithCorrelationID(id string) Metadata {
	m.CorrelationID = id
	return m
}

// UpdatedBy returns the human readable author of the change.
func (m Metadata) UpdatedBy() string {
	if m.UserName != "" {
		return m.UserName
	}
	if m.UserID != "" {
		return m.UserID
	}
	return SystemUser
}
