package storage

import (
	"fodmate-backend/internal/model"
)

// Storage is the session history store. The chat core treats it as an opaque
// keyed store; concurrent writers to the same session are not coordinated
// here.
type Storage interface {
	CreateSession(session *model.Session) error
	GetSession(sessionID string) (*model.Session, error)
	UpdateSession(session *model.Session) error
	DeleteSession(sessionID string) error
	ListSessions() ([]*model.Session, error)

	AddMessage(sessionID string, message *model.Message) error
	GetMessages(sessionID string) ([]*model.Message, error)

	Init() error
	Close() error
}
