package models

import "time"

// ItemRequest is a "wanted" post that other users answer by listing items.
type ItemRequest struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	Description string    `gorm:"size:1000;not null"`
	RequestorID int64     `gorm:"not null;index"`
	Requestor   *User     `gorm:"foreignKey:RequestorID;constraint:OnDelete:CASCADE"`
	Created     time.Time `gorm:"not null;index"`
	Items       []Item    `gorm:"foreignKey:RequestID"`
}
