package status

import (
	"github.com/lllypuk/statuswatch/internal/domain/status"
)

// CreateApplicationCommand регистрирует новое приложение
type CreateApplicationCommand struct {
	Actor       status.Actor
	Name        string
	Description string
	URL         string
	Metadata    string
}

func (c CreateApplicationCommand) CommandName() string { return "CreateApplication" }

// UpdateApplicationCommand меняет описание приложения в конфигурации
type UpdateApplicationCommand struct {
	Actor       status.Actor
	AppKey      string
	Name        string
	Description string
	URL         string
	Metadata    string
}

func (c UpdateApplicationCommand) CommandName() string { return "UpdateApplication" }

// DeleteApplicationCommand удаляет приложение
type DeleteApplicationCommand struct {
	Actor  status.Actor
	AppKey string
}

func (c DeleteApplicationCommand) CommandName() string { return "DeleteApplication" }

// ChangeStateCommand включает, выключает или переключает опрос
type ChangeStateCommand struct {
	Actor  status.Actor
	AppKey string
	Action StateAction
}

func (c ChangeStateCommand) CommandName() string { return "ChangeState" }

// StateAction is the requested polling change.
type StateAction string

const (
	ActionEnable  StateAction = "enable"
	ActionDisable StateAction = "disable"
	ActionToggle  StateAction = "toggle"
)

// SetStatusCommand ручная установка статуса
type SetStatusCommand struct {
	Actor  status.Actor
	AppKey string
	Status status.Status
}

func (c SetStatusCommand) CommandName() string { return "SetStatus" }
