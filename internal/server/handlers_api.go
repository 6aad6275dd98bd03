package server

import (
	"errors"
	"log"
	"net/http"

	"photo-roulette/internal/web"
)

type joinRequest struct {
	Name string `json:"name"`
}

type photosRequest struct {
	PlayerID int      `json:"player_id"`
	Photos   []string `json:"photos"`
}

type startRequest struct {
	PlayerID int `json:"player_id"`
}

type guessRequest struct {
	PlayerID        int `json:"player_id"`
	Round           int `json:"round"`
	GuessedPlayerID int `json:"guessed_player_id"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = web.Home().Render(r.Context(), w)
}

// handleListRooms feeds the landing page's active-rooms panel.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms": s.store.ListRoomSummaries(),
	})
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var game *Game
	for attempt := 0; attempt < maxRoomCodeAttempts; attempt++ {
		created, err := s.store.CreateGame(newRoomCode(), s.cfg.RoundLimit, s.cfg.MaxPlayers)
		if err == nil {
			game = created
			break
		}
	}
	if game == nil {
		writeServerError(w, "no room code available")
		return
	}
	if err := s.persistGame(game); err != nil {
		s.store.RemoveGame(game.RoomCode)
		writeServerError(w, "failed to create room")
		return
	}
	log.Printf("room created room_code=%s", game.RoomCode)
	writeJSON(w, http.StatusCreated, map[string]string{
		"room_code": game.RoomCode,
	})
}

func (s *Server) handleRoomSubroutes(w http.ResponseWriter, r *http.Request) {
	rawCode, action, ok := parseRoomPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	roomCode, err := validateRoomCode(rawCode)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		switch action {
		case "":
			s.handleGetRoom(w, r, roomCode)
		case "results":
			s.handleResults(w, r, roomCode)
		default:
			http.NotFound(w, r)
		}
	case http.MethodPost:
		switch action {
		case "join":
			s.handleJoin(w, r, roomCode)
		case "photos":
			s.handleUploadPhotos(w, r, roomCode)
		case "start":
			s.handleStartRound(w, r, roomCode)
		case "guesses":
			s.handleGuess(w, r, roomCode)
		default:
			http.NotFound(w, r)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request, roomCode string) {
	game, ok := s.store.GetGame(roomCode)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot(game))
}

// handleJoin joins a room, creating the game on the first join to an
// unused code.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request, roomCode string) {
	var req joinRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeBadRequest(w, "name is required")
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	game, player, created, err := s.store.AddPlayer(roomCode, name, s.cfg.RoundLimit, s.cfg.MaxPlayers)
	if err != nil {
		writeConflict(w, err.Error())
		return
	}
	if created {
		if err := s.persistGame(game); err != nil {
			writeServerError(w, "failed to join room")
			return
		}
	}
	if err := s.persistPlayer(game, player); err != nil {
		writeServerError(w, "failed to join room")
		return
	}
	log.Printf("player joined room_code=%s player_id=%d player_name=%s", game.RoomCode, player.ID, name)
	writeJSON(w, http.StatusOK, map[string]any{
		"room_code": game.RoomCode,
		"player_id": player.ID,
		"player":    name,
	})
	s.broadcastGameUpdate(game)
}

// handleUploadPhotos accepts a player's photo batch. Uploads never
// block each other; the uploading phase label is advisory.
func (s *Server) handleUploadPhotos(w http.ResponseWriter, r *http.Request, roomCode string) {
	var req photosRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeBadRequest(w, "photo batch is required")
		return
	}
	if err := s.validateBatchSize(len(req.Photos)); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	game, player, ok := s.store.GetPlayer(roomCode, req.PlayerID)
	if !ok || game == nil || player == nil {
		writeNotFound(w, "player not found")
		return
	}

	images := make([][]byte, 0, len(req.Photos))
	for _, raw := range req.Photos {
		image, err := decodeImageData(raw)
		if err != nil {
			writeBadRequest(w, "invalid image data")
			return
		}
		images = append(images, image)
	}

	// File writes happen outside the store lock; the entries only join
	// the pool once every photo in the batch landed on disk.
	entries := make([]PhotoEntry, 0, len(images))
	for _, image := range images {
		id, storagePath, err := s.photos.Save(game.RoomCode, image)
		if err != nil {
			writeServerError(w, "failed to upload photos")
			return
		}
		entries = append(entries, PhotoEntry{
			ID:          id,
			PlayerID:    req.PlayerID,
			StoragePath: storagePath,
		})
	}

	photoIDs := make([]string, 0, len(entries))
	game, err := s.store.UpdateGame(roomCode, func(game *Game) error {
		player, ok := s.store.FindPlayer(game, req.PlayerID)
		if !ok {
			return errors.New("player not found")
		}
		game.Photos = append(game.Photos, entries...)
		player.Ready = true
		if game.Phase == phaseLobby {
			setPhase(game, phaseUploading)
		}
		return nil
	})
	if err != nil {
		writeNotFound(w, err.Error())
		return
	}
	for _, entry := range entries {
		photoIDs = append(photoIDs, entry.ID)
	}
	player, _ = s.store.FindPlayer(game, req.PlayerID)
	if err := s.persistPhotos(game, player, photoIDs); err != nil {
		log.Printf("persist photos failed room_code=%s player_id=%d error=%v", game.RoomCode, req.PlayerID, err)
	}
	if err := s.persistPlayerReady(game, player); err != nil {
		log.Printf("persist ready failed room_code=%s player_id=%d error=%v", game.RoomCode, req.PlayerID, err)
	}
	log.Printf("photos uploaded room_code=%s player_id=%d count=%d", game.RoomCode, req.PlayerID, len(entries))
	writeJSON(w, http.StatusOK, map[string]any{
		"room_code": game.RoomCode,
		"player_id": req.PlayerID,
		"count":     len(entries),
		"ready":     true,
	})
	s.broadcastGameUpdate(game)
}

// handleStartRound is the player-invoked round start. Known gap carried
// over from the product: there is no readiness quorum before the first
// round begins.
func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request, roomCode string) {
	var req startRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeBadRequest(w, "player_id is required")
		return
	}
	game, err := s.startRoundCommand(roomCode, req.PlayerID)
	if err != nil {
		writeConflict(w, err.Error())
		return
	}
	if err := s.persistPhase(game, "round_started", EventPayload{
		Phase:    game.Phase,
		Round:    game.Round,
		PlayerID: req.PlayerID,
	}); err != nil {
		log.Printf("persist round start failed room_code=%s error=%v", game.RoomCode, err)
	}
	log.Printf("round started room_code=%s round=%d phase=%s", game.RoomCode, game.Round, game.Phase)
	s.scheduleRoomTimer(game)
	writeJSON(w, http.StatusOK, map[string]any{
		"room_code": game.RoomCode,
		"phase":     game.Phase,
		"round":     game.Round,
	})
	s.broadcastGameUpdate(game)
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request, roomCode string) {
	var req guessRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeBadRequest(w, "guess is required")
		return
	}
	// A guess with no selected target never reaches the store.
	if req.GuessedPlayerID <= 0 {
		writeBadRequest(w, "guess target is required")
		return
	}
	game, entry, err := s.submitGuess(roomCode, req.PlayerID, req.GuessedPlayerID, req.Round)
	if err != nil {
		writeConflict(w, err.Error())
		return
	}
	if err := s.persistGuess(game, entry); err != nil {
		log.Printf("persist guess failed room_code=%s player_id=%d error=%v", game.RoomCode, req.PlayerID, err)
	}
	if err := s.persistPhotoUsed(game, entry.PhotoID); err != nil {
		log.Printf("persist photo used failed room_code=%s error=%v", game.RoomCode, err)
	}
	if err := s.persistPhase(game, "round_advanced", EventPayload{
		Phase:    game.Phase,
		Round:    game.Round,
		PlayerID: req.PlayerID,
		Reason:   "guess_submitted",
	}); err != nil {
		log.Printf("persist round advance failed room_code=%s error=%v", game.RoomCode, err)
	}
	log.Printf("guess submitted room_code=%s player_id=%d correct=%t round=%d phase=%s",
		game.RoomCode, req.PlayerID, entry.Correct, game.Round, game.Phase)
	// Replaces the guess countdown with the next phase's timer, or
	// cancels it when the game just ended.
	s.scheduleRoomTimer(game)
	writeJSON(w, http.StatusOK, map[string]any{
		"room_code": game.RoomCode,
		"correct":   entry.Correct,
		"phase":     game.Phase,
		"round":     game.Round,
		"scores":    buildScores(game),
	})
	s.broadcastGameUpdate(game)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request, roomCode string) {
	game, ok := s.store.GetGame(roomCode)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room_code":   game.RoomCode,
		"phase":       game.Phase,
		"round":       game.Round,
		"leaderboard": buildLeaderboard(game),
	})
}

func (s *Server) handlePhotoFile(w http.ResponseWriter, r *http.Request) {
	storagePath, ok := parsePhotoPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	data, err := s.photos.Read(storagePath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = w.Write(data)
}
