package domain

import (
	"slices"
	"time"

	"github.com/cristianortiz/lotsEngine/internal/shared/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// LotState mirrors the state of the auction the lot belongs to.
type LotState string

const (
	StateFuture LotState = "future"
	StateOpen   LotState = "open"
	StateLive   LotState = "live"
	StateClosed LotState = "closed"
)

// ActiveStates are the states listed by default.
var ActiveStates = []LotState{StateFuture, StateOpen, StateLive}

type BiddingMode string

const (
	BiddingIncrement BiddingMode = "increment"
	BiddingPerHead   BiddingMode = "perHead"
	BiddingPerKg     BiddingMode = "perKg"
	BiddingLump      BiddingMode = "lump"
)

var BiddingModes = []BiddingMode{BiddingIncrement, BiddingPerHead, BiddingPerKg, BiddingLump}

type Platform string

const (
	PlatformWeb    Platform = "web-app"
	PlatformMobile Platform = "mobile"
)

type Location struct {
	Town     string `json:"town"`
	Postcode string `json:"postcode"`
}

// MediaKey is a raw uploaded object.
type MediaKey struct {
	Key       string `json:"key"`
	MediaType string `json:"mediaType"`
	Location  string `json:"location"`
}

// Media is the displayable form of a MediaKey.
type Media struct {
	ID        uuid.UUID `json:"id"`
	Key       string    `json:"key"`
	MediaType string    `json:"mediaType"`
	URL       string    `json:"url"`
	Thumbnail string    `json:"thumbnail,omitempty"`
}

type DocumentKey struct {
	Key      string `json:"key"`
	Location string `json:"location"`
}

type Document struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Lot is an item up for bid inside an auction.
type Lot struct {
	ID                uuid.UUID
	AuctionID         uuid.UUID
	CreatedBy         uuid.UUID
	Title             string
	Description       string
	Draft             bool
	State             LotState
	Bidding           BiddingMode
	Count             int
	Platform          Platform
	StartPriceCents   int64
	ReservePriceCents int64
	IncrementCents    int64
	Location          *Location
	Details           map[string]any
	MediaKeys         []MediaKey
	Media             []Media
	DocumentKeys      []DocumentKey
	Documents         []Document
	LotMaxSeconds     int
	FinishAt          *time.Time
	ShouldClose       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// read-only projections
	SellerNumericID *int64
	Participants    []uuid.UUID
}

// LotChanges holds the caller supplied fields of a create or update.
// Nil fields are left untouched.
type LotChanges struct {
	Title             *string
	Description       *string
	Draft             *bool
	Bidding           *BiddingMode
	Count             *int
	Platform          *Platform
	StartPriceCents   *int64
	ReservePriceCents *int64
	IncrementCents    *int64
	Location          *Location
	Details           map[string]any
}

// Actor is the authenticated caller acting on a lot.
type Actor struct {
	ID    uuid.UUID
	Admin bool
}

func NewLot(createdBy uuid.UUID, changes LotChanges) *Lot {
	lot := &Lot{
		ID:           uuid.New(),
		CreatedBy:    createdBy,
		Details:      map[string]any{},
		MediaKeys:    []MediaKey{},
		Media:        []Media{},
		DocumentKeys: []DocumentKey{},
		Documents:    []Document{},
	}
	lot.Apply(changes)
	return lot
}

func (l *Lot) Apply(c LotChanges) {
	if c.Title != nil {
		l.Title = *c.Title
	}
	if c.Description != nil {
		l.Description = *c.Description
	}
	if c.Draft != nil {
		l.Draft = *c.Draft
	}
	if c.Bidding != nil {
		l.Bidding = *c.Bidding
	}
	if c.Count != nil {
		l.Count = *c.Count
	}
	if c.Platform != nil {
		l.Platform = *c.Platform
	}
	if c.StartPriceCents != nil {
		l.StartPriceCents = *c.StartPriceCents
	}
	if c.ReservePriceCents != nil {
		l.ReservePriceCents = *c.ReservePriceCents
	}
	if c.IncrementCents != nil {
		l.IncrementCents = *c.IncrementCents
	}
	if c.Location != nil {
		loc := *c.Location
		l.Location = &loc
	}
	if c.Details != nil {
		l.Details = c.Details
	}
}

// PlaceInAuction copies the auction state and timing onto a new lot.
func (l *Lot) PlaceInAuction(a *Auction) {
	l.AuctionID = a.ID
	l.State = a.State
	l.LotMaxSeconds = a.LotMaxSeconds

	finishAt := a.LiveAt.Add(time.Duration(a.LotOpeningSeconds) * time.Second)
	shouldClose := a.LiveAt.Add(time.Duration(a.AuctionMaxSeconds) * time.Second)
	l.FinishAt = &finishAt
	l.ShouldClose = &shouldClose
}

func (l *Lot) IsOwnedBy(id uuid.UUID) bool {
	return l.CreatedBy == id
}

// CheckEditable allows the owner or an admin to change a draft lot.
func (l *Lot) CheckEditable(actor *Actor) error {
	if actor == nil || (!l.IsOwnedBy(actor.ID) && !actor.Admin) {
		return ErrNotAuthorized
	}
	if !l.Draft {
		log.Debug("Edit rejected: lot is not a draft", zap.String("lotID", l.ID.String()))
		return ErrLotNotDraft
	}
	return nil
}

// CheckDeletable allows the owner or an admin to remove a lot.
func (l *Lot) CheckDeletable(actor *Actor) error {
	if actor == nil || (!l.IsOwnedBy(actor.ID) && !actor.Admin) {
		return ErrNotAuthorized
	}
	return nil
}

// CanSeeReserve reports whether actor may read the reserve price.
func (l *Lot) CanSeeReserve(actor *Actor) bool {
	return actor != nil && (actor.Admin || l.IsOwnedBy(actor.ID))
}

// AddMedia records an uploaded object and its displayable entry.
func (l *Lot) AddMedia(key, mediaType, location string) Media {
	l.MediaKeys = append(l.MediaKeys, MediaKey{Key: key, MediaType: mediaType, Location: location})
	m := Media{ID: uuid.New(), Key: key, MediaType: mediaType, URL: location}
	l.Media = append(l.Media, m)
	return m
}

func (l *Lot) SetThumbnail(mediaID uuid.UUID, url string) (*Media, error) {
	i := slices.IndexFunc(l.Media, func(m Media) bool { return m.ID == mediaID })
	if i < 0 {
		return nil, ErrMediaNotFound
	}
	l.Media[i].Thumbnail = url
	return &l.Media[i], nil
}

func (l *Lot) HasMedia(mediaID uuid.UUID) bool {
	return slices.ContainsFunc(l.Media, func(m Media) bool { return m.ID == mediaID })
}

func (l *Lot) HasDocument(key string) bool {
	return slices.ContainsFunc(l.DocumentKeys, func(d DocumentKey) bool { return d.Key == key })
}

func (l *Lot) AddDocument(key, name, location string) {
	l.DocumentKeys = append(l.DocumentKeys, DocumentKey{Key: key, Location: location})
	l.Documents = append(l.Documents, Document{Key: key, Name: name, URL: location})
}

// RemoveDocument drops key from both document lists.
func (l *Lot) RemoveDocument(key string) {
	l.DocumentKeys = slices.DeleteFunc(l.DocumentKeys, func(d DocumentKey) bool { return d.Key == key })
	l.Documents = slices.DeleteFunc(l.Documents, func(d Document) bool { return d.Key == key })
}
