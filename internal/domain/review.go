package domain

import "time"

type Review struct {
	ID        int64
	UserID    int64
	ListingID int64
	Rating    int // 1..5
	Comment   string
	CreatedAt time.Time
}
