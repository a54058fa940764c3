package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/cristianortiz/lotsEngine/internal/shared/events"
	"github.com/cristianortiz/lotsEngine/internal/shared/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// fakeTx runs fn without a real transaction.
type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

// memStore is an in-memory implementation of every auction repository.
type memStore struct {
	mu       sync.Mutex
	lots     map[uuid.UUID]*domain.Lot
	auctions map[uuid.UUID]*domain.Auction
	bids     []domain.Bid
	autoBids []domain.AutoBid

	inserted       int
	participantErr map[uuid.UUID]error
	maxBidErr      error
	lastMaxBidLot  *uuid.UUID
	lastMaxBidAuc  *uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		lots:           map[uuid.UUID]*domain.Lot{},
		auctions:       map[uuid.UUID]*domain.Auction{},
		participantErr: map[uuid.UUID]error{},
	}
}

func (m *memStore) repos() Repositories {
	return Repositories{Lots: m, Auctions: auctionView{m}, Bids: m, AutoBids: m}
}

func (m *memStore) addAuction(a *domain.Auction) *domain.Auction {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.auctions[a.ID] = a
	return a
}

func copyLot(l *domain.Lot) *domain.Lot {
	c := *l
	c.Media = slices.Clone(l.Media)
	c.MediaKeys = slices.Clone(l.MediaKeys)
	c.Documents = slices.Clone(l.Documents)
	c.DocumentKeys = slices.Clone(l.DocumentKeys)
	return &c
}

func (m *memStore) matches(q domain.LotQuery, l *domain.Lot) bool {
	switch q.Visibility {
	case domain.VisibilityPublic:
		if l.Draft {
			return false
		}
	case domain.VisibilityPublicOrOwn:
		if l.Draft && l.CreatedBy != q.Owner {
			return false
		}
	case domain.VisibilityOwnDrafts:
		if !l.Draft || l.CreatedBy != q.Owner {
			return false
		}
	}
	if len(q.States) > 0 && !slices.Contains(q.States, l.State) {
		return false
	}
	if q.AuctionID != nil && l.AuctionID != *q.AuctionID {
		return false
	}
	return true
}

func (m *memStore) List(_ context.Context, q domain.LotQuery) ([]*domain.Lot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Lot
	for _, l := range m.lots {
		if m.matches(q, l) {
			out = append(out, copyLot(l))
		}
	}
	slices.SortFunc(out, func(a, b *domain.Lot) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (m *memStore) Count(ctx context.Context, q domain.LotQuery) (int, error) {
	lots, _ := m.List(ctx, q)
	return len(lots), nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Lot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lots[id]
	if !ok {
		return nil, domain.ErrLotNotFound
	}
	return copyLot(l), nil
}

func (m *memStore) Insert(_ context.Context, _ pgx.Tx, lot *domain.Lot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted++
	lot.CreatedAt = time.Date(2026, 1, 1, 0, 0, m.inserted, 0, time.UTC)
	lot.UpdatedAt = lot.CreatedAt
	m.lots[lot.ID] = copyLot(lot)
	return nil
}

func (m *memStore) Update(_ context.Context, _ pgx.Tx, lot *domain.Lot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lots[lot.ID]; !ok {
		return domain.ErrLotNotFound
	}
	m.lots[lot.ID] = copyLot(lot)
	return nil
}

func (m *memStore) Delete(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lots[id]; !ok {
		return domain.ErrLotNotFound
	}
	delete(m.lots, id)
	return nil
}

func (m *memStore) ListForTally(_ context.Context, _ pgx.Tx, auctionID uuid.UUID) ([]*domain.Lot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Lot
	for _, l := range m.lots {
		if l.AuctionID == auctionID {
			out = append(out, copyLot(l))
		}
	}
	return out, nil
}

func (m *memStore) SaveAttachments(_ context.Context, lot *domain.Lot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.lots[lot.ID]
	if !ok {
		return domain.ErrLotNotFound
	}
	c := copyLot(lot)
	stored.Media, stored.MediaKeys = c.Media, c.MediaKeys
	stored.Documents, stored.DocumentKeys = c.Documents, c.DocumentKeys
	return nil
}

// auctionView serves auctions; its GetByID would collide with the lot one.
type auctionView struct{ *memStore }

func (v auctionView) GetByID(_ context.Context, id uuid.UUID) (*domain.Auction, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	a, ok := v.auctions[id]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	c := *a
	return &c, nil
}

func (v auctionView) LockForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	if _, ok := v.auctions[id]; !ok {
		return domain.ErrAuctionNotFound
	}
	return nil
}

func (v auctionView) SaveCounts(_ context.Context, _ pgx.Tx, id uuid.UUID, counts map[domain.BiddingMode]int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	a, ok := v.auctions[id]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	a.Counts = counts
	return nil
}

func (m *memStore) ParticipantRows(_ context.Context, lotID uuid.UUID) ([]domain.ParticipantRow, error) {
	if err := m.participantErr[lotID]; err != nil {
		return nil, err
	}
	var out []domain.ParticipantRow
	for _, b := range m.bids {
		if b.LotID != lotID {
			continue
		}
		row := domain.ParticipantRow{AuctionID: b.AuctionID, Bidder: b.CreatedBy}
		if a, ok := m.auctions[b.AuctionID]; ok {
			s := a.State
			row.AuctionState = &s
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *memStore) MaxBidRows(_ context.Context, userID uuid.UUID, lotID, auctionID *uuid.UUID) ([]domain.BidMaxRow, error) {
	m.lastMaxBidLot, m.lastMaxBidAuc = lotID, auctionID
	if m.maxBidErr != nil {
		return nil, m.maxBidErr
	}
	var out []domain.BidMaxRow
	for _, b := range m.bids {
		if b.CreatedBy != userID {
			continue
		}
		row := domain.BidMaxRow{AuctionID: b.AuctionID, LotID: b.LotID, MaxCents: b.Cents}
		if a, ok := m.auctions[b.AuctionID]; ok {
			s := a.State
			row.AuctionState = &s
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *memStore) GetLatestBidByLotID(_ context.Context, lotID uuid.UUID) (*domain.Bid, error) {
	var latest *domain.Bid
	for i := range m.bids {
		if m.bids[i].LotID == lotID && (latest == nil || m.bids[i].CreatedAt.After(latest.CreatedAt)) {
			latest = &m.bids[i]
		}
	}
	return latest, nil
}

func (m *memStore) MaxAutoBidRows(_ context.Context, userID uuid.UUID, lotID *uuid.UUID) ([]domain.AutoBidMaxRow, error) {
	var out []domain.AutoBidMaxRow
	for _, ab := range m.autoBids {
		if ab.CreatedBy != userID || (lotID != nil && ab.LotID != *lotID) {
			continue
		}
		row := domain.AutoBidMaxRow{LotID: ab.LotID, MaxCents: ab.Cents}
		if l, ok := m.lots[ab.LotID]; ok {
			ls := l.State
			row.LotState = &ls
			if a, ok := m.auctions[l.AuctionID]; ok {
				as := a.State
				row.AuctionState = &as
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// recordingPublisher keeps published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// fakeObjectStore keeps uploads in memory.
type fakeObjectStore struct {
	objects   map[string][]byte
	uploadErr error
	deleteErr error
	uploads   int
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (s *fakeObjectStore) Upload(_ context.Context, body io.Reader, contentType, prefix string) (*storage.Object, error) {
	s.uploads++
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return nil, err
	}
	key := prefix + uuid.NewString()
	s.objects[key] = buf.Bytes()
	return &storage.Object{Key: key, ContentType: contentType, Location: "http://cdn.test/" + key}, nil
}

func (s *fakeObjectStore) Delete(_ context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.objects[key]; !ok {
		return errors.New("no such key")
	}
	delete(s.objects, key)
	return nil
}
