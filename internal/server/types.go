package server

import "time"

const (
	phaseLobby     = "lobby"
	phaseUploading = "uploading"
	phasePlaying   = "playing"
	phaseGuessing  = "guessing"
	phaseResults   = "results"
)

const pointsPerCorrectGuess = 100

type RoomSummary struct {
	RoomCode string `json:"room_code"`
	Phase    string `json:"phase"`
	Round    int    `json:"round"`
	Players  int    `json:"players"`
}

type Game struct {
	RoomCode       string
	DBID           uint
	Phase          string
	PhaseStartedAt time.Time
	Round          int
	RoundLimit     int
	MaxPlayers     int
	CurrentPhotoID string
	Players        []Player
	Photos         []PhotoEntry
	Guesses        []GuessEntry
}

type Player struct {
	ID       int
	DBID     uint
	Name     string
	Ready    bool
	JoinedAt time.Time
}

type PhotoEntry struct {
	ID          string
	DBID        uint
	PlayerID    int
	StoragePath string
	Used        bool
}

type GuessEntry struct {
	DBID            uint
	Round           int
	PhotoID         string
	PlayerID        int
	GuessedPlayerID int
	Correct         bool
}
