package server

import (
	"errors"
	"time"
)

// unusedPhoto returns the oldest-inserted photo that has not been shown
// yet. Insertion order doubles as upload order, which keeps selection
// deterministic across restarts of the same room.
func unusedPhoto(game *Game) *PhotoEntry {
	for i := range game.Photos {
		if !game.Photos[i].Used {
			return &game.Photos[i]
		}
	}
	return nil
}

func currentPhoto(game *Game) *PhotoEntry {
	if game.CurrentPhotoID == "" {
		return nil
	}
	for i := range game.Photos {
		if game.Photos[i].ID == game.CurrentPhotoID {
			return &game.Photos[i]
		}
	}
	return nil
}

func setPhase(game *Game, phase string) {
	setPhaseAt(game, phase, time.Now().UTC())
}

func setPhaseAt(game *Game, phase string, at time.Time) {
	game.Phase = phase
	if at.IsZero() {
		at = time.Now().UTC()
	}
	game.PhaseStartedAt = at
}

// startRound selects the next mystery photo and enters the reveal
// phase. With the photo pool exhausted the game ends instead.
func startRound(game *Game, at time.Time) string {
	photo := unusedPhoto(game)
	if photo == nil {
		game.CurrentPhotoID = ""
		setPhaseAt(game, phaseResults, at)
		return phaseResults
	}
	game.CurrentPhotoID = photo.ID
	setPhaseAt(game, phasePlaying, at)
	return phasePlaying
}

// finishRound retires the current photo, bumps the round counter and
// either starts the next round or ends the game at the round limit.
// Callers hold the store lock; the round advances exactly once because
// both the guess path and the timeout path funnel through here after
// checking the round they targeted is still the live one.
func finishRound(game *Game, at time.Time) string {
	if photo := currentPhoto(game); photo != nil {
		photo.Used = true
	}
	game.CurrentPhotoID = ""
	game.Round++
	if game.Round >= game.RoundLimit {
		setPhaseAt(game, phaseResults, at)
		return phaseResults
	}
	return startRound(game, at)
}

func hasGuessForRound(game *Game, round, playerID int) bool {
	for i := range game.Guesses {
		if game.Guesses[i].Round == round && game.Guesses[i].PlayerID == playerID {
			return true
		}
	}
	return false
}

// submitGuess records a guess and advances the round. The round value
// from the request is the round token: submissions carrying a stale
// round are rejected, so a guess can never double-advance past a timer
// that already fired.
func (s *Server) submitGuess(roomCode string, playerID, guessedPlayerID, round int) (*Game, *GuessEntry, error) {
	now := time.Now().UTC()
	var entry GuessEntry
	game, err := s.store.UpdateGame(roomCode, func(game *Game) error {
		if game.Phase != phaseGuessing {
			return errors.New("guesses not accepted in this phase")
		}
		if round != game.Round {
			return errors.New("guess targets a finished round")
		}
		if _, ok := s.store.FindPlayer(game, playerID); !ok {
			return errors.New("player not found")
		}
		if _, ok := s.store.FindPlayer(game, guessedPlayerID); !ok {
			return errors.New("guessed player not found")
		}
		if hasGuessForRound(game, round, playerID) {
			return errors.New("guess already submitted")
		}
		photo := currentPhoto(game)
		if photo == nil {
			return errors.New("no mystery photo in play")
		}
		entry = GuessEntry{
			Round:           round,
			PhotoID:         photo.ID,
			PlayerID:        playerID,
			GuessedPlayerID: guessedPlayerID,
			Correct:         guessedPlayerID == photo.PlayerID,
		}
		game.Guesses = append(game.Guesses, entry)
		finishRound(game, now)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return game, &entry, nil
}

// startRoundCommand is the player-invoked round start. There is no
// readiness quorum: any joined player can start the first round.
func (s *Server) startRoundCommand(roomCode string, playerID int) (*Game, error) {
	now := time.Now().UTC()
	return s.store.UpdateGame(roomCode, func(game *Game) error {
		if _, ok := s.store.FindPlayer(game, playerID); !ok {
			return errors.New("player not found")
		}
		switch game.Phase {
		case phaseResults:
			return errors.New("game already finished")
		case phasePlaying, phaseGuessing:
			return errors.New("round already in progress")
		}
		startRound(game, now)
		return nil
	})
}
