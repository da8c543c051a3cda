package handler

import (
	"lawchat/backend/internal/chathub"
	"lawchat/backend/internal/config"
)

// Handler holds the dependencies of the HTTP and WebSocket endpoints.
type Handler struct {
	Hub *chathub.ManagerService
	Cfg *config.Config
}

func NewHandler(hub *chathub.ManagerService, cfg *config.Config) *Handler {
	return &Handler{Hub: hub, Cfg: cfg}
}
