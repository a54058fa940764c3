package domain

import (
	"time"

	"github.com/google/uuid"
)

// Bid is an explicit offer on a lot. Bids are append-only.
type Bid struct {
	ID        uuid.UUID
	LotID     uuid.UUID
	AuctionID uuid.UUID
	CreatedBy uuid.UUID
	Cents     int64
	CreatedAt time.Time
}

// AutoBid is a standing ceiling a user is willing to bid up to.
type AutoBid struct {
	ID        uuid.UUID
	LotID     uuid.UUID
	CreatedBy uuid.UUID
	Cents     int64
	CreatedAt time.Time
}
