package server

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"photo-roulette/internal/config"

	"gorm.io/gorm"
)

type Server struct {
	store    *Store
	db       *gorm.DB
	ws       *wsHub
	cfg      config.Config
	photos   *photoStore
	relay    *relay
	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	srv := &Server{
		store:  NewStore(),
		db:     conn,
		ws:     newWSHub(),
		cfg:    cfg,
		photos: newPhotoStore(cfg.PhotoDir),
		timers: make(map[string]*time.Timer),
	}
	if cfg.RedisAddr != "" {
		rly, err := newRelay(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Printf("relay disabled redis_addr=%s error=%v", cfg.RedisAddr, err)
		} else {
			srv.relay = rly
			go rly.Run(context.Background(), srv.ws)
		}
	}
	return srv
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleHome)
	mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("POST /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("GET /photos/", s.handlePhotoFile)
	mux.HandleFunc("GET /ws/rooms/", s.handleWebsocket)
	return mux
}
