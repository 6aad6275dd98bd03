package server

import (
	"encoding/json"
	"errors"
	"time"

	"photo-roulette/internal/db"

	"github.com/jackc/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

// Persistence mirrors in-memory mutations into Postgres. Every helper
// is a no-op without a database connection so the runtime (and the
// tests) work in memory-only mode.

func (s *Server) persistGame(game *Game) error {
	if s.db == nil {
		return nil
	}
	record := db.Game{
		RoomCode:     game.RoomCode,
		Phase:        game.Phase,
		CurrentRound: game.Round,
		RoundLimit:   game.RoundLimit,
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	if record.ID == 0 {
		if err := s.ensureGameDBID(game); err != nil {
			return err
		}
	} else {
		game.DBID = record.ID
	}
	return s.persistEvent(game, "game_created", EventPayload{
		RoomCode: game.RoomCode,
	})
}

func (s *Server) ensureGameDBID(game *Game) error {
	if s.db == nil || game.DBID != 0 {
		return nil
	}
	var record db.Game
	if err := s.db.Where("room_code = ?", game.RoomCode).First(&record).Error; err != nil {
		return nil
	}
	game.DBID = record.ID
	return nil
}

func (s *Server) persistPlayer(game *Game, player *Player) error {
	if s.db == nil {
		return nil
	}
	if player.DBID != 0 {
		return nil
	}
	if game.DBID == 0 {
		if err := s.ensureGameDBID(game); err != nil {
			return err
		}
		if game.DBID == 0 {
			return errors.New("game not found")
		}
	}
	record := db.Player{
		GameID:   game.DBID,
		Name:     player.Name,
		Ready:    player.Ready,
		JoinedAt: time.Now().UTC(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := s.findPlayerDBID(game.DBID, player.Name)
			if lookupErr == nil && existing != 0 {
				player.DBID = existing
				return nil
			}
		}
		return err
	}
	player.DBID = record.ID
	return s.persistEvent(game, "player_joined", EventPayload{
		PlayerName: player.Name,
		PlayerID:   player.ID,
	})
}

func (s *Server) persistPlayerReady(game *Game, player *Player) error {
	if s.db == nil {
		return nil
	}
	if player.DBID == 0 {
		if existing, err := s.findPlayerDBID(game.DBID, player.Name); err == nil {
			player.DBID = existing
		}
	}
	if player.DBID == 0 {
		return errors.New("player not found")
	}
	return s.db.Model(&db.Player{}).
		Where("id = ?", player.DBID).
		Update("ready", player.Ready).Error
}

func (s *Server) persistPhotos(game *Game, player *Player, photoIDs []string) error {
	if s.db == nil {
		return s.persistEvent(game, "photos_uploaded", EventPayload{
			PlayerID: player.ID,
			Count:    len(photoIDs),
		})
	}
	if game.DBID == 0 {
		if err := s.ensureGameDBID(game); err != nil {
			return err
		}
	}
	if game.DBID == 0 || player.DBID == 0 {
		return errors.New("game or player not persisted")
	}
	for _, photoID := range photoIDs {
		entry := findPhoto(game, photoID)
		if entry == nil || entry.DBID != 0 {
			continue
		}
		record := db.Photo{
			GameID:      game.DBID,
			PlayerID:    player.DBID,
			StoragePath: entry.StoragePath,
		}
		if err := s.db.Create(&record).Error; err != nil {
			return err
		}
		entry.DBID = record.ID
	}
	return s.persistEvent(game, "photos_uploaded", EventPayload{
		PlayerID: player.ID,
		Count:    len(photoIDs),
	})
}

func (s *Server) persistPhotoUsed(game *Game, photoID string) error {
	if s.db == nil {
		return nil
	}
	entry := findPhoto(game, photoID)
	if entry == nil || entry.DBID == 0 {
		return nil
	}
	return s.db.Model(&db.Photo{}).
		Where("id = ?", entry.DBID).
		Update("used", true).Error
}

func (s *Server) persistGuess(game *Game, entry *GuessEntry) error {
	if s.db == nil {
		return s.persistEvent(game, "guess_submitted", EventPayload{
			PlayerID:        entry.PlayerID,
			Round:           entry.Round,
			GuessedPlayerID: entry.GuessedPlayerID,
			Correct:         entry.Correct,
		})
	}
	if game.DBID == 0 {
		if err := s.ensureGameDBID(game); err != nil {
			return err
		}
	}
	player, ok := s.store.FindPlayer(game, entry.PlayerID)
	if !ok || player.DBID == 0 {
		return errors.New("player not persisted")
	}
	guessed, ok := s.store.FindPlayer(game, entry.GuessedPlayerID)
	if !ok || guessed.DBID == 0 {
		return errors.New("guessed player not persisted")
	}
	photoDBID := uint(0)
	if photo := findPhoto(game, entry.PhotoID); photo != nil {
		photoDBID = photo.DBID
	}
	record := db.Guess{
		GameID:          game.DBID,
		Round:           entry.Round,
		PlayerID:        player.DBID,
		PhotoID:         photoDBID,
		GuessedPlayerID: guessed.DBID,
		Correct:         entry.Correct,
	}
	if err := s.db.Create(&record).Error; err != nil {
		// The unique (game, round, player) index backs the at-most-one
		// guess invariant across instances.
		if isUniqueViolation(err) {
			return errors.New("guess already submitted")
		}
		return err
	}
	entry.DBID = record.ID
	return s.persistEvent(game, "guess_submitted", EventPayload{
		PlayerID:        entry.PlayerID,
		Round:           entry.Round,
		PhotoID:         entry.PhotoID,
		GuessedPlayerID: entry.GuessedPlayerID,
		Correct:         entry.Correct,
	})
}

func (s *Server) persistPhase(game *Game, eventType string, payload EventPayload) error {
	if s.db == nil {
		return nil
	}
	if game.DBID == 0 {
		if err := s.ensureGameDBID(game); err != nil {
			return err
		}
	}
	if game.DBID == 0 {
		return errors.New("game not found")
	}
	updates := map[string]any{
		"phase":         game.Phase,
		"current_round": game.Round,
	}
	if err := s.db.Model(&db.Game{}).Where("id = ?", game.DBID).Updates(updates).Error; err != nil {
		return err
	}
	return s.persistEvent(game, eventType, payload)
}

func (s *Server) persistEvent(game *Game, eventType string, payload EventPayload) error {
	if s.db == nil {
		return nil
	}
	if game.DBID == 0 {
		if err := s.ensureGameDBID(game); err != nil {
			return err
		}
	}
	if game.DBID == 0 {
		return errors.New("game not found")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := db.Event{
		GameID:   game.DBID,
		PlayerID: s.resolveEventPlayerID(game, payload),
		Type:     eventType,
		Payload:  datatypes.JSON(data),
	}
	return s.db.Create(&event).Error
}

func (s *Server) resolveEventPlayerID(game *Game, payload EventPayload) *uint {
	if payload.PlayerID <= 0 {
		return nil
	}
	player, found := s.store.FindPlayer(game, payload.PlayerID)
	if found && player.DBID != 0 {
		value := player.DBID
		return &value
	}
	return nil
}

func (s *Server) findPlayerDBID(gameDBID uint, name string) (uint, error) {
	var record db.Player
	if err := s.db.Where("game_id = ? AND name = ?", gameDBID, name).First(&record).Error; err != nil {
		return 0, err
	}
	return record.ID, nil
}

func findPhoto(game *Game, photoID string) *PhotoEntry {
	for i := range game.Photos {
		if game.Photos[i].ID == photoID {
			return &game.Photos[i]
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
