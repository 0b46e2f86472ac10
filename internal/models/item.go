package models

import "time"

type Item struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:255;not null;index" json:"name" yaml:"name"`
	Description string    `gorm:"size:1000;not null" json:"description" yaml:"description"`
	Available   bool      `gorm:"not null" json:"available" yaml:"available"`
	OwnerID     int64     `gorm:"not null;index" json:"ownerId"`
	Owner       *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	RequestID   *int64    `gorm:"index" json:"requestId,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"-"`
}

// ItemPatch carries a partial item update; nil fields keep their value.
type ItemPatch struct {
	Name        *string
	Description *string
	Available   *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p ItemPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Available == nil
}
