package api

import (
	"github.com/kwonjh0406/joondrive-be/internal/config"
	"github.com/kwonjh0406/joondrive-be/internal/database"
	"github.com/kwonjh0406/joondrive-be/internal/drive"
	"github.com/kwonjh0406/joondrive-be/internal/websocket"
)

type Server struct {
	config *config.Config
	store  *database.Store
	drive  *drive.Service
	wsHub  *websocket.Hub
}

func NewServer(cfg *config.Config, store *database.Store, driveSvc *drive.Service, wsHub *websocket.Hub) *Server {
	return &Server{
		config: cfg,
		store:  store,
		drive:  driveSvc,
		wsHub:  wsHub,
	}
}
