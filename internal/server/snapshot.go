package server

import "time"

// fullPatch carries the complete authoritative state as one state
// patch. Late subscribers receive it on connect; every transition
// rebroadcasts it so projections converge regardless of what they
// missed.
func (s *Server) fullPatch(game *Game) StatePatch {
	phase := game.Phase
	round := game.Round
	remaining := s.timeRemaining(game)
	patch := StatePatch{
		Phase:         &phase,
		Round:         &round,
		TimeRemaining: &remaining,
		Scores:        buildScores(game),
	}
	if photo := currentPhoto(game); photo != nil {
		patch.CurrentPhoto = &PhotoView{
			ID:       photo.ID,
			URL:      photoURL(photo),
			PlayerID: photo.PlayerID,
		}
	}
	return patch
}

// timeRemaining derives the countdown from the shared phase deadline
// rather than a per-client clock.
func (s *Server) timeRemaining(game *Game) int {
	duration := s.phaseDuration(game)
	if duration <= 0 || game.PhaseStartedAt.IsZero() {
		return 0
	}
	remaining := time.Until(game.PhaseStartedAt.Add(duration))
	if remaining < 0 {
		return 0
	}
	return int(remaining.Round(time.Second) / time.Second)
}

func (s *Server) snapshot(game *Game) map[string]any {
	players := make([]map[string]any, 0, len(game.Players))
	scores := buildScores(game)
	for _, player := range game.Players {
		players = append(players, map[string]any{
			"id":    player.ID,
			"name":  player.Name,
			"ready": player.Ready,
			"score": scores[player.ID],
		})
	}
	photosUploaded := 0
	for _, photo := range game.Photos {
		if !photo.Used {
			photosUploaded++
		}
	}
	duration := int(s.phaseDuration(game) / time.Second)
	phaseEndsAt := ""
	if !game.PhaseStartedAt.IsZero() && duration > 0 {
		phaseEndsAt = game.PhaseStartedAt.Add(time.Duration(duration) * time.Second).UTC().Format(time.RFC3339)
	}
	payload := map[string]any{
		"room_code":        game.RoomCode,
		"phase":            game.Phase,
		"round":            game.Round,
		"round_limit":      game.RoundLimit,
		"phase_started_at": game.PhaseStartedAt,
		"phase_duration":   duration,
		"phase_ends_at":    phaseEndsAt,
		"time_remaining":   s.timeRemaining(game),
		"players":          players,
		"max_players":      game.MaxPlayers,
		"scores":           scores,
		"photos_remaining": photosUploaded,
	}
	if photo := currentPhoto(game); photo != nil {
		payload["current_photo"] = map[string]any{
			"id":        photo.ID,
			"url":       photoURL(photo),
			"player_id": photo.PlayerID,
		}
	}
	if game.Phase == phaseResults {
		payload["leaderboard"] = buildLeaderboard(game)
	}
	return payload
}

func photoURL(photo *PhotoEntry) string {
	return "/photos/" + photo.StoragePath
}
