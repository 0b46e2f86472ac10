package models

import "time"

// Booking is a rental request for an item over [Start, End).
type Booking struct {
	ID        int64         `gorm:"primaryKey;autoIncrement"`
	Start     time.Time     `gorm:"column:start_date;not null;index"`
	End       time.Time     `gorm:"column:end_date;not null"`
	ItemID    int64         `gorm:"not null;index"`
	Item      *Item         `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	BookerID  int64         `gorm:"not null;index"`
	Booker    *User         `gorm:"foreignKey:BookerID;constraint:OnDelete:CASCADE"`
	Status    BookingStatus `gorm:"size:16;not null;index"`
	CreatedAt time.Time     `gorm:"autoCreateTime"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime"`
}

// OwnerID returns the owner of the booked item, or 0 if the item was not loaded.
func (b *Booking) OwnerID() int64 {
	if b.Item == nil {
		return 0
	}
	return b.Item.OwnerID
}
