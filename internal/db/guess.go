package db

import "time"

type Guess struct {
	ID              uint      `gorm:"primaryKey"`
	GameID          uint      `gorm:"index;not null;uniqueIndex:idx_guesses_game_round_player"`
	Round           int       `gorm:"not null;uniqueIndex:idx_guesses_game_round_player"`
	PlayerID        uint      `gorm:"index;not null;uniqueIndex:idx_guesses_game_round_player"`
	PhotoID         uint      `gorm:"index;not null"`
	GuessedPlayerID uint      `gorm:"index;not null"`
	Correct         bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time `gorm:"not null"`
}
