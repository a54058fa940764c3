package http

import (
	"fmt"
	"time"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/google/uuid"
)

// LotResponse is the public projection of a lot.
type LotResponse struct {
	ID                uuid.UUID          `json:"id"`
	AuctionID         uuid.UUID          `json:"auctionId"`
	CreatedBy         uuid.UUID          `json:"createdBy"`
	CreatedByPublicID string             `json:"createdByPublicId"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Draft             bool               `json:"draft"`
	State             domain.LotState    `json:"state"`
	Bidding           domain.BiddingMode `json:"bidding"`
	Count             int                `json:"count"`
	Platform          domain.Platform    `json:"platform,omitempty"`
	StartPriceCents   int64              `json:"startPriceCents"`
	ReservePriceCents *int64             `json:"reservePriceCents,omitempty"`
	IncrementCents    int64              `json:"incrementCents"`
	Location          *domain.Location   `json:"location,omitempty"`
	Details           map[string]any     `json:"details"`
	Media             []domain.Media     `json:"media"`
	Documents         []domain.Document  `json:"documents"`
	LotMaxSeconds     int                `json:"lotMaxSeconds"`
	FinishAt          *time.Time         `json:"finishAt,omitempty"`
	ShouldClose       *time.Time         `json:"shouldClose,omitempty"`
	Participants      *[]uuid.UUID       `json:"participants,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// PublicID renders a numeric id as the last six digits of its zero padded form.
func PublicID(n *int64) string {
	if n == nil {
		return ""
	}
	s := fmt.Sprintf("%06d", *n)
	return s[len(s)-6:]
}

// toLotResponse hides the reserve price from everyone but the owner and admins.
func toLotResponse(lot *domain.Lot, viewer *domain.Actor) LotResponse {
	r := LotResponse{
		ID:                lot.ID,
		AuctionID:         lot.AuctionID,
		CreatedBy:         lot.CreatedBy,
		CreatedByPublicID: PublicID(lot.SellerNumericID),
		Title:             lot.Title,
		Description:       lot.Description,
		Draft:             lot.Draft,
		State:             lot.State,
		Bidding:           lot.Bidding,
		Count:             lot.Count,
		Platform:          lot.Platform,
		StartPriceCents:   lot.StartPriceCents,
		IncrementCents:    lot.IncrementCents,
		Location:          lot.Location,
		Details:           lot.Details,
		Media:             nonNil(lot.Media),
		Documents:         nonNil(lot.Documents),
		LotMaxSeconds:     lot.LotMaxSeconds,
		FinishAt:          lot.FinishAt,
		ShouldClose:       lot.ShouldClose,
		CreatedAt:         lot.CreatedAt,
		UpdatedAt:         lot.UpdatedAt,
	}
	if lot.CanSeeReserve(viewer) {
		reserve := lot.ReservePriceCents
		r.ReservePriceCents = &reserve
	}
	if lot.Participants != nil {
		participants := lot.Participants
		r.Participants = &participants
	}
	if r.Details == nil {
		r.Details = map[string]any{}
	}
	return r
}

func toLotResponses(lots []*domain.Lot, viewer *domain.Actor) []LotResponse {
	out := make([]LotResponse, 0, len(lots))
	for _, lot := range lots {
		out = append(out, toLotResponse(lot, viewer))
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type AuctionKindResponse struct {
	ID              uuid.UUID            `json:"id"`
	Name            string               `json:"name"`
	BiddingModes    []domain.BiddingMode `json:"biddingModes"`
	RequiredDetails []string             `json:"requiredDetails"`
}

type AuctionResponse struct {
	ID                uuid.UUID                  `json:"id"`
	Title             string                     `json:"title"`
	Kind              *AuctionKindResponse       `json:"kind,omitempty"`
	State             domain.LotState            `json:"state"`
	LiveAt            time.Time                  `json:"liveAt"`
	LotOpeningSeconds int                        `json:"lotOpeningSeconds"`
	LotMaxSeconds     int                        `json:"lotMaxSeconds"`
	AuctionMaxSeconds int                        `json:"auctionMaxSeconds"`
	StandbyTimer      int                        `json:"standbyTimer"`
	Counts            map[domain.BiddingMode]int `json:"counts"`
	CreatedAt         time.Time                  `json:"createdAt"`
	UpdatedAt         time.Time                  `json:"updatedAt"`
}

func toAuctionResponse(a *domain.Auction) AuctionResponse {
	r := AuctionResponse{
		ID:                a.ID,
		Title:             a.Title,
		State:             a.State,
		LiveAt:            a.LiveAt,
		LotOpeningSeconds: a.LotOpeningSeconds,
		LotMaxSeconds:     a.LotMaxSeconds,
		AuctionMaxSeconds: a.AuctionMaxSeconds,
		StandbyTimer:      a.StandbyTimer,
		Counts:            a.Counts,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
	if r.Counts == nil {
		r.Counts = map[domain.BiddingMode]int{}
	}
	if a.Kind != nil {
		r.Kind = &AuctionKindResponse{
			ID:              a.Kind.ID,
			Name:            a.Kind.Name,
			BiddingModes:    nonNil(a.Kind.BiddingModes),
			RequiredDetails: nonNil(a.Kind.RequiredDetails),
		}
	}
	return r
}
