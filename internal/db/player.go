package db

import "time"

type Player struct {
	ID        uint      `gorm:"primaryKey"`
	GameID    uint      `gorm:"index;not null;uniqueIndex:idx_players_game_name"`
	Name      string    `gorm:"size:20;not null;uniqueIndex:idx_players_game_name"`
	Ready     bool      `gorm:"not null;default:false"`
	JoinedAt  time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Photos    []Photo
	Guesses   []Guess
	Events    []Event
}
