package application

import (
	"context"
	"fmt"
	"io"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/cristianortiz/lotsEngine/internal/shared/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	mediaPrefix     = "media-"
	thumbnailPrefix = "thumb-"
	documentPrefix  = "doc-"
)

// ObjectStore is the blob storage used for lot attachments.
type ObjectStore interface {
	Upload(ctx context.Context, body io.Reader, contentType, prefix string) (*storage.Object, error)
	Delete(ctx context.Context, key string) error
}

// UploadDTO carries one attachment upload. MediaID is only used for thumbnails
// and FileName only for documents.
type UploadDTO struct {
	LotID       uuid.UUID
	Actor       domain.Actor
	Body        io.Reader
	ContentType string
	FileName    string
	MediaID     uuid.UUID
}

type DeleteDocumentDTO struct {
	LotID uuid.UUID
	Actor domain.Actor
	Key   string
}

// AttachmentsUseCase manages media and documents of editable lots.
type AttachmentsUseCase struct {
	lotRepo domain.LotRepository
	store   ObjectStore
}

func NewAttachmentsUseCase(lotRepo domain.LotRepository, store ObjectStore) *AttachmentsUseCase {
	return &AttachmentsUseCase{lotRepo: lotRepo, store: store}
}

func (uc *AttachmentsUseCase) editableLot(ctx context.Context, lotID uuid.UUID, actor *domain.Actor) (*domain.Lot, error) {
	lot, err := uc.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if err := lot.CheckEditable(actor); err != nil {
		return nil, err
	}
	return lot, nil
}

func (uc *AttachmentsUseCase) AddMedia(ctx context.Context, dto UploadDTO) ([]domain.Media, error) {
	lot, err := uc.editableLot(ctx, dto.LotID, &dto.Actor)
	if err != nil {
		return nil, err
	}
	obj, err := uc.store.Upload(ctx, dto.Body, dto.ContentType, mediaPrefix)
	if err != nil {
		return nil, err
	}

	lot.AddMedia(obj.Key, obj.ContentType, obj.Location)
	if err := uc.lotRepo.SaveAttachments(ctx, lot); err != nil {
		return nil, fmt.Errorf("save lot media: %w", err)
	}
	log.Info("Lot media added",
		zap.String("lotID", lot.ID.String()),
		zap.String("key", obj.Key),
		zap.String("contentType", obj.ContentType),
	)
	return lot.Media, nil
}

func (uc *AttachmentsUseCase) AddThumbnail(ctx context.Context, dto UploadDTO) (*domain.Media, error) {
	lot, err := uc.editableLot(ctx, dto.LotID, &dto.Actor)
	if err != nil {
		return nil, err
	}
	if !lot.HasMedia(dto.MediaID) {
		return nil, domain.ErrMediaNotFound
	}
	obj, err := uc.store.Upload(ctx, dto.Body, dto.ContentType, thumbnailPrefix)
	if err != nil {
		return nil, err
	}

	media, err := lot.SetThumbnail(dto.MediaID, obj.Location)
	if err != nil {
		return nil, err
	}
	if err := uc.lotRepo.SaveAttachments(ctx, lot); err != nil {
		return nil, fmt.Errorf("save lot thumbnail: %w", err)
	}
	return media, nil
}

func (uc *AttachmentsUseCase) AddDocument(ctx context.Context, dto UploadDTO) ([]domain.Document, error) {
	lot, err := uc.editableLot(ctx, dto.LotID, &dto.Actor)
	if err != nil {
		return nil, err
	}
	obj, err := uc.store.Upload(ctx, dto.Body, dto.ContentType, documentPrefix)
	if err != nil {
		return nil, err
	}

	lot.AddDocument(obj.Key, dto.FileName, obj.Location)
	if err := uc.lotRepo.SaveAttachments(ctx, lot); err != nil {
		return nil, fmt.Errorf("save lot documents: %w", err)
	}
	log.Info("Lot document added",
		zap.String("lotID", lot.ID.String()),
		zap.String("key", obj.Key),
		zap.String("name", dto.FileName),
	)
	return lot.Documents, nil
}

// DeleteDocument removes the stored object first; the lot is only changed
// when that succeeds. Only keys attached to the lot can be deleted.
func (uc *AttachmentsUseCase) DeleteDocument(ctx context.Context, dto DeleteDocumentDTO) ([]domain.Document, error) {
	lot, err := uc.editableLot(ctx, dto.LotID, &dto.Actor)
	if err != nil {
		return nil, err
	}
	if !lot.HasDocument(dto.Key) {
		return nil, domain.ErrDocumentNotFound
	}
	if err := uc.store.Delete(ctx, dto.Key); err != nil {
		return nil, err
	}

	lot.RemoveDocument(dto.Key)
	if err := uc.lotRepo.SaveAttachments(ctx, lot); err != nil {
		return nil, fmt.Errorf("save lot documents: %w", err)
	}
	return lot.Documents, nil
}
