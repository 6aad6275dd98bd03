package db

import "time"

type Game struct {
	ID           uint      `gorm:"primaryKey"`
	RoomCode     string    `gorm:"size:6;uniqueIndex;not null"`
	Phase        string    `gorm:"size:32;not null"`
	CurrentRound int       `gorm:"not null;default:0"`
	RoundLimit   int       `gorm:"not null;default:10"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
	Players      []Player
	Photos       []Photo
	Guesses      []Guess
	Events       []Event
}
