package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/cristianortiz/lotsEngine/internal/shared/events"
	"github.com/cristianortiz/lotsEngine/internal/shared/validation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	store     *memStore
	objects   *fakeObjectStore
	publisher *recordingPublisher
	svc       LotService
	auction   *domain.Auction
	seller    domain.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	objects := newFakeObjectStore()
	pub := &recordingPublisher{}

	auction := store.addAuction(&domain.Auction{
		Title:             "Spring cattle sale",
		State:             domain.StateFuture,
		LiveAt:            time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
		LotOpeningSeconds: 60,
		LotMaxSeconds:     180,
		AuctionMaxSeconds: 7200,
		Kind: &domain.AuctionKind{
			Name:            "cattle",
			BiddingModes:    []domain.BiddingMode{domain.BiddingIncrement, domain.BiddingPerHead},
			RequiredDetails: []string{"breed"},
		},
	})

	return &fixture{
		store:     store,
		objects:   objects,
		publisher: pub,
		svc:       NewLotService(store.repos(), fakeTx{}, objects, pub),
		auction:   auction,
		seller:    domain.Actor{ID: uuid.New()},
	}
}

func (f *fixture) create(t *testing.T, changes domain.LotChanges) *domain.Lot {
	t.Helper()
	lot, err := f.svc.CreateLot(context.Background(), CreateLotDTO{
		AuctionID: f.auction.ID,
		Actor:     f.seller,
		Changes:   changes,
	})
	require.NoError(t, err)
	return lot
}

func increment(count int) domain.LotChanges {
	return domain.LotChanges{
		Title:           ptr("Heifers"),
		Bidding:         ptr(domain.BiddingIncrement),
		Count:           ptr(count),
		StartPriceCents: ptr(int64(150000)),
		Details:         map[string]any{"breed": "Hereford"},
	}
}

func TestCreateLot_RecomputesCounts(t *testing.T) {
	f := newFixture(t)

	f.create(t, increment(3))
	f.create(t, increment(2))

	assert.Equal(t, 5, f.store.auctions[f.auction.ID].Counts[domain.BiddingIncrement])
	assert.Equal(t, []events.Type{events.LotEdited, events.LotEdited}, f.publisher.types())
}

func TestCreateLot_DraftsAreNotCounted(t *testing.T) {
	f := newFixture(t)

	f.create(t, increment(3))
	draft := increment(10)
	draft.Draft = ptr(true)
	f.create(t, draft)

	assert.Equal(t, map[domain.BiddingMode]int{domain.BiddingIncrement: 3}, f.store.auctions[f.auction.ID].Counts)
}

func TestCreateLot_RoundTrip(t *testing.T) {
	f := newFixture(t)

	created := f.create(t, domain.LotChanges{
		Title:             ptr("Merino ewes"),
		Description:       ptr("Mixed age"),
		Bidding:           ptr(domain.BiddingPerHead),
		Count:             ptr(120),
		Platform:          ptr(domain.PlatformWeb),
		StartPriceCents:   ptr(int64(9000)),
		ReservePriceCents: ptr(int64(12000)),
		Location:          &domain.Location{Town: "Wagga Wagga", Postcode: "2650"},
		Details:           map[string]any{"breed": "Merino"},
	})

	fetched, err := f.svc.GetLot(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)

	assert.Equal(t, f.auction.ID, fetched.AuctionID)
	assert.Equal(t, domain.StateFuture, fetched.State)
	assert.Equal(t, f.seller.ID, fetched.CreatedBy)
	assert.Equal(t, f.auction.LiveAt.Add(time.Minute), *fetched.FinishAt)
	assert.Equal(t, f.auction.LiveAt.Add(2*time.Hour), *fetched.ShouldClose)
}

func TestCreateLot_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateLot(ctx, CreateLotDTO{AuctionID: uuid.New(), Actor: f.seller, Changes: increment(1)})
	assert.ErrorIs(t, err, domain.ErrAuctionNotFound)

	bad := increment(1)
	bad.Bidding = ptr(domain.BiddingLump)
	bad.Details = map[string]any{}
	_, err = f.svc.CreateLot(ctx, CreateLotDTO{AuctionID: f.auction.ID, Actor: f.seller, Changes: bad})
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "lot.bidding")
	assert.Contains(t, verrs, "lot.details.breed")

	f.store.auctions[f.auction.ID].State = domain.StateClosed
	_, err = f.svc.CreateLot(ctx, CreateLotDTO{AuctionID: f.auction.ID, Actor: f.seller, Changes: increment(1)})
	assert.ErrorIs(t, err, domain.ErrAuctionClosed)

	assert.Empty(t, f.store.lots)
	assert.Empty(t, f.publisher.types())
}

func TestUpdateLot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft := increment(4)
	draft.Draft = ptr(true)
	lot := f.create(t, draft)
	assert.Empty(t, f.store.auctions[f.auction.ID].Counts)

	_, err := f.svc.UpdateLot(ctx, UpdateLotDTO{LotID: lot.ID, Actor: domain.Actor{ID: uuid.New()}, Changes: domain.LotChanges{Title: ptr("x")}})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	updated, err := f.svc.UpdateLot(ctx, UpdateLotDTO{
		LotID:   lot.ID,
		Actor:   f.seller,
		Changes: domain.LotChanges{Title: ptr("Weaner heifers"), Draft: ptr(false)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Weaner heifers", updated.Title)
	assert.False(t, updated.Draft)
	assert.Equal(t, 4, f.store.auctions[f.auction.ID].Counts[domain.BiddingIncrement])

	_, err = f.svc.UpdateLot(ctx, UpdateLotDTO{LotID: lot.ID, Actor: f.seller, Changes: domain.LotChanges{Count: ptr(1)}})
	assert.ErrorIs(t, err, domain.ErrLotNotDraft)

	_, err = f.svc.UpdateLot(ctx, UpdateLotDTO{LotID: uuid.New(), Actor: f.seller})
	assert.ErrorIs(t, err, domain.ErrLotNotFound)
}

func TestUpdateLot_PublishingChecksKind(t *testing.T) {
	f := newFixture(t)

	draft := domain.LotChanges{Title: ptr("Bulls"), Draft: ptr(true), Bidding: ptr(domain.BiddingPerHead)}
	lot := f.create(t, draft)

	_, err := f.svc.UpdateLot(context.Background(), UpdateLotDTO{LotID: lot.ID, Actor: f.seller, Changes: domain.LotChanges{Draft: ptr(false)}})
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, []string{"is required"}, verrs["lot.details.breed"])

	stored, _ := f.store.GetByID(context.Background(), lot.ID)
	assert.True(t, stored.Draft)
}

func TestDeleteLot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	keep := f.create(t, increment(3))
	gone := f.create(t, increment(2))

	err := f.svc.DeleteLot(ctx, DeleteLotDTO{LotID: gone.ID, Actor: domain.Actor{ID: uuid.New()}})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	require.NoError(t, f.svc.DeleteLot(ctx, DeleteLotDTO{LotID: gone.ID, Actor: domain.Actor{ID: uuid.New(), Admin: true}}))
	assert.Equal(t, 3, f.store.auctions[f.auction.ID].Counts[domain.BiddingIncrement])
	assert.Contains(t, f.store.lots, keep.ID)
	assert.NotContains(t, f.store.lots, gone.ID)
	assert.Equal(t, events.LotDeleted, f.publisher.types()[len(f.publisher.types())-1])

	err = f.svc.DeleteLot(ctx, DeleteLotDTO{LotID: gone.ID, Actor: f.seller})
	assert.ErrorIs(t, err, domain.ErrLotNotFound)
}

func TestListLots_Pagination(t *testing.T) {
	f := newFixture(t)
	for range 5 {
		f.create(t, increment(1))
	}
	draft := increment(1)
	draft.Draft = ptr(true)
	f.create(t, draft)

	page, err := f.svc.ListLots(context.Background(), ListLotsDTO{Params: domain.ListParams{Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 1, page.Page)

	page, err = f.svc.ListLots(context.Background(), ListLotsDTO{
		Params: domain.ListParams{Filters: "{broken"},
		Viewer: &f.seller,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, page.Total)
}

func TestListAuctionLots_Participants(t *testing.T) {
	f := newFixture(t)
	closed := f.store.addAuction(&domain.Auction{State: domain.StateClosed})

	l1 := f.create(t, increment(1))
	l2 := f.create(t, increment(1))
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	f.store.bids = []domain.Bid{
		{LotID: l1.ID, AuctionID: f.auction.ID, CreatedBy: bob},
		{LotID: l1.ID, AuctionID: closed.ID, CreatedBy: carol},
		{LotID: l1.ID, AuctionID: f.auction.ID, CreatedBy: alice},
		{LotID: l1.ID, AuctionID: f.auction.ID, CreatedBy: bob},
		{LotID: l2.ID, AuctionID: f.auction.ID, CreatedBy: carol},
	}
	f.store.participantErr[l2.ID] = errors.New("connection reset")

	lots, err := f.svc.ListAuctionLots(context.Background(), ListAuctionLotsDTO{AuctionID: f.auction.ID})
	require.NoError(t, err)
	require.Len(t, lots, 2)

	byID := map[uuid.UUID]*domain.Lot{lots[0].ID: lots[0], lots[1].ID: lots[1]}
	assert.Equal(t, []uuid.UUID{bob, alice}, byID[l1.ID].Participants)
	assert.Equal(t, []uuid.UUID{}, byID[l2.ID].Participants)
}

func TestListAuctionLots_Results(t *testing.T) {
	f := newFixture(t)
	open := f.create(t, increment(1))
	done := f.create(t, increment(1))
	f.store.lots[done.ID].State = domain.StateClosed

	lots, err := f.svc.ListAuctionLots(context.Background(), ListAuctionLotsDTO{AuctionID: f.auction.ID, Results: true})
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, done.ID, lots[0].ID)
	assert.NotEqual(t, open.ID, lots[0].ID)
	assert.Nil(t, lots[0].Participants)
}

func TestMaxBids(t *testing.T) {
	f := newFixture(t)
	buyer := uuid.New()
	closed := f.store.addAuction(&domain.Auction{State: domain.StateClosed})
	lot := f.create(t, increment(1))
	otherLot := uuid.New()

	f.store.bids = []domain.Bid{
		{LotID: lot.ID, AuctionID: f.auction.ID, CreatedBy: buyer, Cents: 100},
		{LotID: lot.ID, AuctionID: f.auction.ID, CreatedBy: buyer, Cents: 250},
		{LotID: otherLot, AuctionID: closed.ID, CreatedBy: buyer, Cents: 900},
	}
	f.store.autoBids = []domain.AutoBid{
		{LotID: lot.ID, CreatedBy: buyer, Cents: 400},
		{LotID: lot.ID, CreatedBy: buyer, Cents: 300},
	}

	res, err := f.svc.MaxBids(context.Background(), MaxBidsDTO{UserID: buyer, LotID: lot.ID, AuctionID: f.auction.ID, OnlyAuction: true})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]map[uuid.UUID]int64{f.auction.ID: {lot.ID: 250}}, res.Bids)
	assert.Equal(t, map[uuid.UUID]int64{lot.ID: 400}, res.AutoBids)
	assert.Nil(t, f.store.lastMaxBidLot)
	require.NotNil(t, f.store.lastMaxBidAuc)
	assert.Equal(t, f.auction.ID, *f.store.lastMaxBidAuc)

	f.store.maxBidErr = errors.New("timeout")
	_, err = f.svc.MaxBids(context.Background(), MaxBidsDTO{UserID: buyer})
	assert.ErrorIs(t, err, f.store.maxBidErr)
}

func TestAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := increment(1)
	draft.Draft = ptr(true)
	lot := f.create(t, draft)

	media, err := f.svc.AddMedia(ctx, UploadDTO{LotID: lot.ID, Actor: f.seller, Body: strings.NewReader("img"), ContentType: "image/jpeg"})
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.True(t, strings.HasPrefix(media[0].Key, mediaPrefix))

	_, err = f.svc.AddThumbnail(ctx, UploadDTO{LotID: lot.ID, Actor: f.seller, MediaID: uuid.New(), Body: strings.NewReader("t")})
	assert.ErrorIs(t, err, domain.ErrMediaNotFound)
	assert.Equal(t, 1, f.objects.uploads, "no upload for unknown media")

	thumb, err := f.svc.AddThumbnail(ctx, UploadDTO{LotID: lot.ID, Actor: f.seller, MediaID: media[0].ID, Body: strings.NewReader("t"), ContentType: "image/png"})
	require.NoError(t, err)
	assert.Contains(t, thumb.Thumbnail, thumbnailPrefix)

	docs, err := f.svc.AddDocument(ctx, UploadDTO{LotID: lot.ID, Actor: f.seller, Body: strings.NewReader("%PDF"), ContentType: "application/pdf", FileName: "vendor-declaration.pdf"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "vendor-declaration.pdf", docs[0].Name)

	f.objects.deleteErr = errors.New("access denied")
	_, err = f.svc.DeleteDocument(ctx, DeleteDocumentDTO{LotID: lot.ID, Actor: f.seller, Key: docs[0].Key})
	assert.ErrorIs(t, err, f.objects.deleteErr)
	stored, _ := f.store.GetByID(ctx, lot.ID)
	assert.Len(t, stored.Documents, 1)

	f.objects.deleteErr = nil
	docs, err = f.svc.DeleteDocument(ctx, DeleteDocumentDTO{LotID: lot.ID, Actor: f.seller, Key: docs[0].Key})
	require.NoError(t, err)
	assert.Empty(t, docs)
	stored, _ = f.store.GetByID(ctx, lot.ID)
	assert.Empty(t, stored.Documents)
	assert.Empty(t, stored.DocumentKeys)
	assert.Len(t, stored.Media, 1)

	_, err = f.svc.AddMedia(ctx, UploadDTO{LotID: lot.ID, Actor: domain.Actor{ID: uuid.New()}, Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestDeleteDocument_OnlyKeysOfTheLot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := increment(1)
	draft.Draft = ptr(true)
	victim := f.create(t, draft)

	docs, err := f.svc.AddDocument(ctx, UploadDTO{LotID: victim.ID, Actor: f.seller, Body: strings.NewReader("%PDF"), FileName: "nvd.pdf"})
	require.NoError(t, err)
	victimKey := docs[0].Key

	other := domain.Actor{ID: uuid.New()}
	own, err := f.svc.CreateLot(ctx, CreateLotDTO{AuctionID: f.auction.ID, Actor: other, Changes: draft})
	require.NoError(t, err)

	_, err = f.svc.DeleteDocument(ctx, DeleteDocumentDTO{LotID: own.ID, Actor: other, Key: victimKey})
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	assert.Contains(t, f.objects.objects, victimKey, "object of another lot must survive")

	stored, _ := f.store.GetByID(ctx, victim.ID)
	assert.Len(t, stored.Documents, 1)

	_, err = f.svc.DeleteDocument(ctx, DeleteDocumentDTO{LotID: victim.ID, Actor: f.seller, Key: "media-unknown"})
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestGetLotState(t *testing.T) {
	f := newFixture(t)
	lot := f.create(t, increment(7))
	buyer := uuid.New()
	f.store.bids = []domain.Bid{
		{LotID: lot.ID, CreatedBy: uuid.New(), Cents: 100, CreatedAt: time.Unix(100, 0)},
		{LotID: lot.ID, CreatedBy: buyer, Cents: 200, CreatedAt: time.Unix(200, 0)},
	}

	state, err := f.svc.GetLotState(context.Background(), lot.ID)
	require.NoError(t, err)
	assert.Equal(t, lot.ID, state.LotID)
	assert.Equal(t, 7, state.Count)
	assert.Equal(t, int64(200), state.LastBidCents)
	assert.Equal(t, buyer, *state.LastBidUserID)
}
