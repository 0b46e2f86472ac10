package models

import "time"

type Comment struct {
	ID       int64     `gorm:"primaryKey;autoIncrement"`
	Text     string    `gorm:"size:2000;not null"`
	ItemID   int64     `gorm:"not null;index"`
	Item     *Item     `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	AuthorID int64     `gorm:"not null;index"`
	Author   *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Created  time.Time `gorm:"not null"`
}
