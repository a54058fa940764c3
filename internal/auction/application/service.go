package application

import (
	"context"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/cristianortiz/lotsEngine/internal/shared/db"
	"github.com/cristianortiz/lotsEngine/internal/shared/events"
	"github.com/google/uuid"
)

// LotService defines application interface layer of the auction module,
// exposes use cases to the infra layer
type LotService interface {
	ListLots(ctx context.Context, dto ListLotsDTO) (*LotPage, error)
	ListAuctionLots(ctx context.Context, dto ListAuctionLotsDTO) ([]*domain.Lot, error)
	GetAuction(ctx context.Context, auctionID uuid.UUID) (*domain.Auction, error)
	GetLot(ctx context.Context, lotID uuid.UUID) (*domain.Lot, error)
	CreateLot(ctx context.Context, dto CreateLotDTO) (*domain.Lot, error)
	UpdateLot(ctx context.Context, dto UpdateLotDTO) (*domain.Lot, error)
	DeleteLot(ctx context.Context, dto DeleteLotDTO) error
	AddMedia(ctx context.Context, dto UploadDTO) ([]domain.Media, error)
	AddThumbnail(ctx context.Context, dto UploadDTO) (*domain.Media, error)
	AddDocument(ctx context.Context, dto UploadDTO) ([]domain.Document, error)
	DeleteDocument(ctx context.Context, dto DeleteDocumentDTO) ([]domain.Document, error)
	MaxBids(ctx context.Context, dto MaxBidsDTO) (*MaxBidsResult, error)
	GetLotState(ctx context.Context, lotID uuid.UUID) (*LotStateDTO, error)
}

// Repositories groups the storage ports the service depends on.
type Repositories struct {
	Lots     domain.LotRepository
	Auctions domain.AuctionRepository
	Bids     domain.BidRepository
	AutoBids domain.AutoBidRepository
}

// concrete implementation of LotService
type lotService struct {
	listLotsUC        *ListLotsUseCase
	listAuctionLotsUC *ListAuctionLotsUseCase
	getAuctionUC      *GetAuctionUseCase
	getLotUC          *GetLotUseCase
	createLotUC       *CreateLotUseCase
	updateLotUC       *UpdateLotUseCase
	deleteLotUC       *DeleteLotUseCase
	attachmentsUC     *AttachmentsUseCase
	maxBidsUC         *MaxBidsUseCase
	getLotStateUC     *GetLotStateUseCase
}

func NewLotService(repos Repositories, txManager db.TxManager, store ObjectStore, publisher events.Publisher) LotService {
	counts := NewCountsRecomputer(repos.Lots, repos.Auctions)
	return &lotService{
		listLotsUC:        NewListLotsUseCase(repos.Lots),
		listAuctionLotsUC: NewListAuctionLotsUseCase(repos.Lots, NewParticipantsLoader(repos.Bids)),
		getAuctionUC:      NewGetAuctionUseCase(repos.Auctions),
		getLotUC:          NewGetLotUseCase(repos.Lots),
		createLotUC:       NewCreateLotUseCase(repos.Lots, repos.Auctions, counts, txManager, publisher),
		updateLotUC:       NewUpdateLotUseCase(repos.Lots, repos.Auctions, counts, txManager, publisher),
		deleteLotUC:       NewDeleteLotUseCase(repos.Lots, counts, txManager, publisher),
		attachmentsUC:     NewAttachmentsUseCase(repos.Lots, store),
		maxBidsUC:         NewMaxBidsUseCase(repos.Bids, repos.AutoBids),
		getLotStateUC:     NewGetLotStateUseCase(repos.Lots, repos.Bids),
	}
}

func (s *lotService) ListLots(ctx context.Context, dto ListLotsDTO) (*LotPage, error) {
	return s.listLotsUC.Execute(ctx, dto)
}

func (s *lotService) ListAuctionLots(ctx context.Context, dto ListAuctionLotsDTO) ([]*domain.Lot, error) {
	return s.listAuctionLotsUC.Execute(ctx, dto)
}

func (s *lotService) GetAuction(ctx context.Context, auctionID uuid.UUID) (*domain.Auction, error) {
	return s.getAuctionUC.Execute(ctx, auctionID)
}

func (s *lotService) GetLot(ctx context.Context, lotID uuid.UUID) (*domain.Lot, error) {
	return s.getLotUC.Execute(ctx, lotID)
}

func (s *lotService) CreateLot(ctx context.Context, dto CreateLotDTO) (*domain.Lot, error) {
	return s.createLotUC.Execute(ctx, dto)
}

func (s *lotService) UpdateLot(ctx context.Context, dto UpdateLotDTO) (*domain.Lot, error) {
	return s.updateLotUC.Execute(ctx, dto)
}

func (s *lotService) DeleteLot(ctx context.Context, dto DeleteLotDTO) error {
	return s.deleteLotUC.Execute(ctx, dto)
}

func (s *lotService) AddMedia(ctx context.Context, dto UploadDTO) ([]domain.Media, error) {
	return s.attachmentsUC.AddMedia(ctx, dto)
}

func (s *lotService) AddThumbnail(ctx context.Context, dto UploadDTO) (*domain.Media, error) {
	return s.attachmentsUC.AddThumbnail(ctx, dto)
}

func (s *lotService) AddDocument(ctx context.Context, dto UploadDTO) ([]domain.Document, error) {
	return s.attachmentsUC.AddDocument(ctx, dto)
}

func (s *lotService) DeleteDocument(ctx context.Context, dto DeleteDocumentDTO) ([]domain.Document, error) {
	return s.attachmentsUC.DeleteDocument(ctx, dto)
}

func (s *lotService) MaxBids(ctx context.Context, dto MaxBidsDTO) (*MaxBidsResult, error) {
	return s.maxBidsUC.Execute(ctx, dto)
}

func (s *lotService) GetLotState(ctx context.Context, lotID uuid.UUID) (*LotStateDTO, error) {
	return s.getLotStateUC.Execute(ctx, lotID)
}
