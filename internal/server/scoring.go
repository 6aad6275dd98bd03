package server

import "sort"

// Scores are never stored as counters. They are derived from the guess
// log every time they are needed, so the leaderboard can not drift from
// the recorded guesses.
func buildScores(game *Game) map[int]int {
	scores := make(map[int]int, len(game.Players))
	for _, player := range game.Players {
		scores[player.ID] = 0
	}
	for _, guess := range game.Guesses {
		if guess.Correct {
			scores[guess.PlayerID] += pointsPerCorrectGuess
		}
	}
	return scores
}

type leaderboardEntry struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

func buildLeaderboard(game *Game) []leaderboardEntry {
	scores := buildScores(game)
	entries := make([]leaderboardEntry, 0, len(game.Players))
	for _, player := range game.Players {
		entries = append(entries, leaderboardEntry{
			PlayerID: player.ID,
			Name:     player.Name,
			Score:    scores[player.ID],
		})
	}
	// Stable ranking: score descending, join order breaks ties.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}
