package server

import (
	"errors"
	"log"
	"time"
)

// scheduleRoomTimer installs the countdown for the room's current
// phase. A room owns at most one timer: installing a new one always
// stops the previous handle first, so a stale callback from an earlier
// phase can never coexist with the live one.
func (s *Server) scheduleRoomTimer(game *Game) {
	duration := s.phaseDuration(game)
	if duration <= 0 {
		s.cancelRoomTimer(game.RoomCode)
		return
	}
	expectedPhase := game.Phase
	expectedRound := game.Round
	roomCode := game.RoomCode
	s.timersMu.Lock()
	if existing, ok := s.timers[roomCode]; ok {
		existing.Stop()
	}
	timer := time.AfterFunc(duration, func() {
		s.autoAdvancePhase(roomCode, expectedPhase, expectedRound)
	})
	s.timers[roomCode] = timer
	s.timersMu.Unlock()
}

func (s *Server) cancelRoomTimer(roomCode string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if timer, ok := s.timers[roomCode]; ok {
		timer.Stop()
		delete(s.timers, roomCode)
	}
}

func (s *Server) phaseDuration(game *Game) time.Duration {
	if game == nil {
		return 0
	}
	switch game.Phase {
	case phasePlaying:
		return time.Duration(s.cfg.RevealSeconds) * time.Second
	case phaseGuessing:
		return time.Duration(s.cfg.GuessSeconds) * time.Second
	default:
		return 0
	}
}

// autoAdvancePhase is the timer callback. It re-checks the phase and
// round under the store lock before advancing: if a guess already moved
// the room on, the callback is a no-op. Expiry of the guess countdown
// retires the photo as an unanswered round.
func (s *Server) autoAdvancePhase(roomCode string, expectedPhase string, expectedRound int) {
	now := time.Now().UTC()
	var usedPhotoID string
	game, err := s.store.UpdateGame(roomCode, func(game *Game) error {
		if game.Phase != expectedPhase || game.Round != expectedRound {
			return errors.New("phase changed")
		}
		switch expectedPhase {
		case phasePlaying:
			setPhaseAt(game, phaseGuessing, now)
		case phaseGuessing:
			if photo := currentPhoto(game); photo != nil {
				usedPhotoID = photo.ID
			}
			finishRound(game, now)
		default:
			return errors.New("no timed transition for phase")
		}
		return nil
	})
	if err != nil {
		return
	}
	if usedPhotoID != "" {
		if err := s.persistPhotoUsed(game, usedPhotoID); err != nil {
			log.Printf("timeout persist photo used failed room_code=%s error=%v", game.RoomCode, err)
		}
	}
	reason := "reveal_expired"
	if expectedPhase == phaseGuessing {
		reason = "guess_expired"
	}
	if err := s.persistPhase(game, "round_advanced", EventPayload{
		Phase:  game.Phase,
		Round:  game.Round,
		Reason: reason,
	}); err != nil {
		log.Printf("auto-advance persist phase failed room_code=%s error=%v", game.RoomCode, err)
	}
	log.Printf("room auto-advanced room_code=%s from=%s to=%s round=%d", game.RoomCode, expectedPhase, game.Phase, game.Round)
	if game.Phase == phaseResults {
		s.cancelRoomTimer(game.RoomCode)
	} else {
		s.scheduleRoomTimer(game)
	}
	s.broadcastGameUpdate(game)
}
