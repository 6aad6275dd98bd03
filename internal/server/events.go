package server

type EventPayload struct {
	RoomCode        string `json:"room_code,omitempty"`
	PlayerName      string `json:"player,omitempty"`
	PlayerID        int    `json:"player_id,omitempty"`
	Round           int    `json:"round,omitempty"`
	Phase           string `json:"phase,omitempty"`
	Reason          string `json:"reason,omitempty"`
	PhotoID         string `json:"photo_id,omitempty"`
	GuessedPlayerID int    `json:"guessed_player_id,omitempty"`
	Correct         bool   `json:"correct,omitempty"`
	Count           int    `json:"count,omitempty"`
}
