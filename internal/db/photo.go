package db

import "time"

type Photo struct {
	ID          uint      `gorm:"primaryKey"`
	GameID      uint      `gorm:"index;not null"`
	PlayerID    uint      `gorm:"index;not null"`
	StoragePath string    `gorm:"size:128;not null;uniqueIndex"`
	Used        bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}
