package http

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/cristianortiz/lotsEngine/internal/auction/application"
	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/cristianortiz/lotsEngine/internal/shared/apperr"
	"github.com/cristianortiz/lotsEngine/internal/shared/auth"
	"github.com/cristianortiz/lotsEngine/internal/shared/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	HeaderTotalCount  = "X-Total-Count"
	HeaderTotalPages  = "X-Total-Pages"
	HeaderCurrentPage = "X-Current-Page"
	HeaderFileName    = "File-Name"
)

var errEmptyBody = errors.New("empty upload body")

// LotHandler serves the lot endpoints of the auction module.
type LotHandler struct {
	service   application.LotService
	validator *LotValidator
}

func NewLotHandler(service application.LotService, validator *LotValidator) *LotHandler {
	return &LotHandler{service: service, validator: validator}
}

// RegisterRoutes mounts the lot endpoints on r.
func (h *LotHandler) RegisterRoutes(r fiber.Router, mw *auth.Middleware) {
	r.Get("/lots", mw.AllowAnonymous, h.ListLots)
	r.Get("/lots/bids/:lotId/:auctionId", mw.Authenticate, h.MaxBids)
	r.Get("/lots/:lotId", mw.Authenticate, h.GetLot)
	r.Put("/lots/:lotId", mw.Authenticate, h.UpdateLot)
	r.Delete("/lots/:lotId", mw.Authenticate, h.DeleteLot)
	r.Post("/lots/:lotId/media", mw.Authenticate, h.AddMedia)
	r.Post("/lots/:lotId/media/:mediaId/thumbnail", mw.Authenticate, h.AddThumbnail)
	r.Post("/lots/:lotId/documents", mw.Authenticate, h.AddDocument)
	r.Delete("/lots/:lotId/documents/:documentKey", mw.Authenticate, h.DeleteDocument)

	r.Get("/auctions/:auctionId", mw.AllowAnonymous, h.GetAuction)
	r.Get("/auctions/:auctionId/lots", mw.AllowAnonymous, h.ListAuctionLots)
	r.Get("/auctions/:auctionId/results", mw.AllowAnonymous, h.ListAuctionResults)
	r.Post("/auctions/:auctionId/lots", mw.Authenticate, h.CreateLot)
}

// viewer returns the caller as an Actor, nil for anonymous requests.
func viewer(c *fiber.Ctx) *domain.Actor {
	p, ok := auth.PrincipalFromCtx(c)
	if !ok {
		return nil
	}
	return &domain.Actor{ID: p.ID, Admin: p.IsAdmin()}
}

func actor(c *fiber.Ctx) (domain.Actor, error) {
	a := viewer(c)
	if a == nil {
		return domain.Actor{}, apperr.Unauthenticated(auth.ErrUnauthenticated)
	}
	return *a, nil
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Validation(err, map[string][]string{name: {"must be a valid id"}})
	}
	return id, nil
}

func listParams(c *fiber.Ctx) domain.ListParams {
	return domain.ListParams{
		Filters:       c.Query("filters"),
		Draft:         c.Query("draft"),
		Page:          c.QueryInt("page"),
		Limit:         c.QueryInt("limit"),
		SortField:     c.Query("sortField"),
		SortDirection: c.Query("sortDirection"),
	}
}

func (h *LotHandler) ListLots(c *fiber.Ctx) error {
	v := viewer(c)
	page, err := h.service.ListLots(c.UserContext(), application.ListLotsDTO{Params: listParams(c), Viewer: v})
	if err != nil {
		return toAPIError(err)
	}

	c.Set(HeaderTotalCount, strconv.Itoa(page.Total))
	c.Set(HeaderTotalPages, strconv.Itoa(page.TotalPages))
	c.Set(HeaderCurrentPage, strconv.Itoa(page.Page))
	return c.JSON(fiber.Map{"lots": toLotResponses(page.Lots, v)})
}

func (h *LotHandler) ListAuctionLots(c *fiber.Ctx) error {
	return h.listAuction(c, false)
}

func (h *LotHandler) ListAuctionResults(c *fiber.Ctx) error {
	return h.listAuction(c, true)
}

func (h *LotHandler) listAuction(c *fiber.Ctx, results bool) error {
	auctionID, err := paramID(c, "auctionId")
	if err != nil {
		return err
	}
	v := viewer(c)
	lots, err := h.service.ListAuctionLots(c.UserContext(), application.ListAuctionLotsDTO{
		AuctionID: auctionID,
		Params:    listParams(c),
		Viewer:    v,
		Results:   results,
	})
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(fiber.Map{"lots": toLotResponses(lots, v)})
}

func (h *LotHandler) GetAuction(c *fiber.Ctx) error {
	auctionID, err := paramID(c, "auctionId")
	if err != nil {
		return err
	}
	auction, err := h.service.GetAuction(c.UserContext(), auctionID)
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(fiber.Map{"auction": toAuctionResponse(auction)})
}

func (h *LotHandler) CreateLot(c *fiber.Ctx) error {
	auctionID, err := paramID(c, "auctionId")
	if err != nil {
		return err
	}
	a, err := actor(c)
	if err != nil {
		return err
	}
	payload, err := h.validator.ValidateCreate(c.Body())
	if err != nil {
		return toAPIError(err)
	}

	lot, err := h.service.CreateLot(c.UserContext(), application.CreateLotDTO{
		AuctionID: auctionID,
		Actor:     a,
		Changes:   payload.Changes(),
	})
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(fiber.Map{"lot": toLotResponse(lot, &a)})
}

func (h *LotHandler) GetLot(c *fiber.Ctx) error {
	lotID, err := paramID(c, "lotId")
	if err != nil {
		return err
	}
	lot, err := h.service.GetLot(c.UserContext(), lotID)
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(fiber.Map{"lot": toLotResponse(lot, viewer(c))})
}

func (h *LotHandler) UpdateLot(c *fiber.Ctx) error {
	lotID, err := paramID(c, "lotId")
	if err != nil {
		return err
	}
	a, err := actor(c)
	if err != nil {
		return err
	}
	payload, err := h.validator.ValidateUpdate(c.Body())
	if err != nil {
		return toAPIError(err)
	}

	lot, err := h.service.UpdateLot(c.UserContext(), application.UpdateLotDTO{
		LotID:   lotID,
		Actor:   a,
		Changes: payload.Changes(),
	})
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(fiber.Map{"lot": toLotResponse(lot, &a)})
}

func (h *LotHandler) DeleteLot(c *fiber.Ctx) error {
	lotID, err := paramID(c, "lotId")
	if err != nil {
		return err
	}
	a, err := actor(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteLot(c.UserContext(), application.DeleteLotDTO{LotID: lotID, Actor: a}); err != nil {
		return toAPIError(err)
	}
	return c.JSON(nil)
}

// upload builds the DTO for the raw-body upload endpoints.
func upload(c *fiber.Ctx) (application.UploadDTO, error) {
	lotID, err := paramID(c, "lotId")
	if err != nil {
		return application.UploadDTO{}, err
	}
	a, err := actor(c)
	if err != nil {
		return application.UploadDTO{}, err
	}
	body := c.Body()
	if len(body) == 0 {
		return application.UploadDTO{}, apperr.Validation(errEmptyBody, map[string][]string{"body": {"is required"}})
	}
	return application.UploadDTO{
		LotID:       lotID,
		Actor:       a,
		Body:        bytes.NewReader(body),
		ContentType: c.Get(fiber.HeaderContentType),
	}, nil
}

func (h *LotHandler) AddMedia(c *fiber.Ctx) error {
	dto, err := upload(c)
	if err != nil {
		return err
	}
	media, err := h.service.AddMedia(c.UserContext(), dto)
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(media)
}

func (h *LotHandler) AddThumbnail(c *fiber.Ctx) error {
	dto, err := upload(c)
	if err != nil {
		return err
	}
	if dto.MediaID, err = paramID(c, "mediaId"); err != nil {
		return err
	}
	media, err := h.service.AddThumbnail(c.UserContext(), dto)
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(media)
}

func (h *LotHandler) AddDocument(c *fiber.Ctx) error {
	dto, err := upload(c)
	if err != nil {
		return err
	}
	dto.FileName = c.Get(HeaderFileName)
	docs, err := h.service.AddDocument(c.UserContext(), dto)
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(fiber.Map{"documents": docs})
}

func (h *LotHandler) DeleteDocument(c *fiber.Ctx) error {
	lotID, err := paramID(c, "lotId")
	if err != nil {
		return err
	}
	a, err := actor(c)
	if err != nil {
		return err
	}
	docs, err := h.service.DeleteDocument(c.UserContext(), application.DeleteDocumentDTO{
		LotID: lotID,
		Actor: a,
		Key:   c.Params("documentKey"),
	})
	if err != nil {
		log.Warn("Failed to delete lot document",
			zap.String("lotID", lotID.String()),
			zap.String("key", c.Params("documentKey")),
			zap.Error(err),
		)
		return toAPIError(err)
	}
	return c.JSON(fiber.Map{"documents": docs})
}

// MaxBids reports the caller's highest bids and auto-bids. ?lot and ?auction
// narrow the result to the path ids.
func (h *LotHandler) MaxBids(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	dto := application.MaxBidsDTO{
		UserID:      a.ID,
		OnlyLot:     c.Query("lot") != "",
		OnlyAuction: c.Query("auction") != "",
	}
	if dto.OnlyLot {
		if dto.LotID, err = paramID(c, "lotId"); err != nil {
			return err
		}
	}
	if dto.OnlyAuction {
		if dto.AuctionID, err = paramID(c, "auctionId"); err != nil {
			return err
		}
	}

	res, err := h.service.MaxBids(c.UserContext(), dto)
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(res)
}
