package http

import (
	"encoding/json"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/cristianortiz/lotsEngine/internal/shared/validation"
)

type LocationPayload struct {
	Town     *string `json:"town" validate:"omitempty,max=255"`
	Postcode *string `json:"postcode" validate:"omitempty,max=10"`
}

// LotPayload is the writable part of a lot. Media and documents are only
// attached through the upload endpoints.
type LotPayload struct {
	Title             *string          `json:"title" validate:"omitempty,min=1,max=255"`
	Description       *string          `json:"description" validate:"omitempty,max=5000"`
	Draft             *bool            `json:"draft"`
	Bidding           *string          `json:"bidding" validate:"omitempty,oneof=increment perHead perKg lump"`
	Count             *int             `json:"count" validate:"omitempty,min=1"`
	Platform          *string          `json:"platform" validate:"omitempty,oneof=web-app mobile"`
	StartPriceCents   *int64           `json:"startPriceCents" validate:"omitempty,min=0"`
	ReservePriceCents *int64           `json:"reservePriceCents" validate:"omitempty,min=0"`
	IncrementCents    *int64           `json:"incrementCents" validate:"omitempty,min=0"`
	Location          *LocationPayload `json:"location"`
	Details           map[string]any   `json:"details"`
}

// LotRequest is the body of the lot create and update endpoints.
type LotRequest struct {
	Lot *LotPayload `json:"lot"`
}

var locationRequired = []string{"lot.location.town", "lot.location.postcode"}

// LotValidator holds the compiled lot schemas.
type LotValidator struct {
	create      *validation.Schema[LotRequest]
	createWeb   *validation.Schema[LotRequest]
	createDraft *validation.Schema[LotRequest]
	update      *validation.Schema[LotRequest]
	updateWeb   *validation.Schema[LotRequest]
	updateDraft *validation.Schema[LotRequest]
}

func NewLotValidator() *LotValidator {
	published := []string{"lot", "lot.title", "lot.bidding", "lot.count", "lot.startPriceCents"}
	return &LotValidator{
		create: validation.Compile[LotRequest]("lot.create",
			validation.WithRequired(published...),
			validation.WithRequired(locationRequired...),
		),
		createWeb: validation.Compile[LotRequest]("lot.createWeb",
			validation.WithRequired(published...),
			validation.WithRequired("lot.location"),
			validation.WithRequired(locationRequired...),
		),
		createDraft: validation.Compile[LotRequest]("lot.createDraft",
			validation.WithRequired("lot"),
			validation.WithRequired(locationRequired...),
		),
		update: validation.Compile[LotRequest]("lot.update",
			validation.WithRequired("lot"),
			validation.WithRequired(locationRequired...),
		),
		updateWeb: validation.Compile[LotRequest]("lot.updateWeb",
			validation.WithRequired("lot", "lot.location"),
			validation.WithRequired(locationRequired...),
		),
		updateDraft: validation.Compile[LotRequest]("lot.updateDraft",
			validation.WithRequired("lot"),
			validation.WithRequired(locationRequired...),
		),
	}
}

// peek reads lot.draft and lot.platform without validating anything.
func peek(raw []byte) (draft bool, platform string) {
	var doc struct {
		Lot struct {
			Draft    any `json:"draft"`
			Platform any `json:"platform"`
		} `json:"lot"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false, ""
	}
	draft, _ = doc.Lot.Draft.(bool)
	platform, _ = doc.Lot.Platform.(string)
	return draft, platform
}

// ForCreate picks the create variant from the payload's draft and platform.
func (v *LotValidator) ForCreate(raw []byte) *validation.Schema[LotRequest] {
	draft, platform := peek(raw)
	switch {
	case draft:
		return v.createDraft
	case platform == string(domain.PlatformWeb):
		return v.createWeb
	}
	return v.create
}

func (v *LotValidator) ForUpdate(raw []byte) *validation.Schema[LotRequest] {
	draft, platform := peek(raw)
	switch {
	case draft:
		return v.updateDraft
	case platform == string(domain.PlatformWeb):
		return v.updateWeb
	}
	return v.update
}

func (v *LotValidator) ValidateCreate(raw []byte) (*LotPayload, error) {
	req, err := v.ForCreate(raw).Validate(raw)
	if err != nil {
		return nil, err
	}
	return req.Lot, nil
}

func (v *LotValidator) ValidateUpdate(raw []byte) (*LotPayload, error) {
	req, err := v.ForUpdate(raw).Validate(raw)
	if err != nil {
		return nil, err
	}
	return req.Lot, nil
}

// Changes converts a validated payload to domain changes.
func (p *LotPayload) Changes() domain.LotChanges {
	c := domain.LotChanges{
		Title:             p.Title,
		Description:       p.Description,
		Draft:             p.Draft,
		Count:             p.Count,
		StartPriceCents:   p.StartPriceCents,
		ReservePriceCents: p.ReservePriceCents,
		IncrementCents:    p.IncrementCents,
		Details:           p.Details,
	}
	if p.Bidding != nil {
		b := domain.BiddingMode(*p.Bidding)
		c.Bidding = &b
	}
	if p.Platform != nil {
		pl := domain.Platform(*p.Platform)
		c.Platform = &pl
	}
	if p.Location != nil {
		loc := domain.Location{}
		if p.Location.Town != nil {
			loc.Town = *p.Location.Town
		}
		if p.Location.Postcode != nil {
			loc.Postcode = *p.Location.Postcode
		}
		c.Location = &loc
	}
	return c
}
