package http

import (
	"bytes"
	"errors"
	"strconv"
	"time"

	"github.com/cristianortiz/lotsEngine/internal/shared/apperr"
	"github.com/cristianortiz/lotsEngine/internal/shared/auth"
	"github.com/cristianortiz/lotsEngine/internal/shared/validation"
	"github.com/cristianortiz/lotsEngine/internal/user/application"
	"github.com/cristianortiz/lotsEngine/internal/user/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UserResponse is the account as returned to its owner or an admin.
type UserResponse struct {
	ID                uuid.UUID                 `json:"id"`
	ShortID           string                    `json:"shortId"`
	Name              string                    `json:"name"`
	FirstName         string                    `json:"firstName"`
	LastName          string                    `json:"lastName"`
	Email             string                    `json:"email"`
	Website           string                    `json:"website"`
	Phone             string                    `json:"phone"`
	SecondaryPhone    string                    `json:"secondaryPhone"`
	Role              string                    `json:"role"`
	Type              string                    `json:"type"`
	SellerType        string                    `json:"sellerType"`
	AgencyName        string                    `json:"agencyName"`
	PIC               string                    `json:"PIC"`
	ABN               string                    `json:"ABN"`
	SSPermitNumber    string                    `json:"SSPermitNumber"`
	SSPermitNumberAge string                    `json:"SSPermitNumberAge"`
	TradingName       string                    `json:"tradingName"`
	SaleConditions    string                    `json:"saleConditions"`
	Settings          map[string]any            `json:"settings"`
	WatchList         map[uuid.UUID][]uuid.UUID `json:"watchList"`
	PropertyAddress   *domain.Address           `json:"propertyAddress,omitempty"`
	PostalAddress     *domain.Address           `json:"postalAddress,omitempty"`
	APIKey            string                    `json:"apiKey"`
	Files             []domain.File             `json:"files"`
	CreatedAt         time.Time                 `json:"createdAt"`
}

func toUserResponse(u *domain.User) UserResponse {
	r := UserResponse{
		ID:                u.ID,
		ShortID:           u.ShortID(),
		Name:              u.Name,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Email:             u.Email,
		Website:           u.Website,
		Phone:             u.Phone,
		SecondaryPhone:    u.SecondaryPhone,
		Role:              u.Role,
		Type:              u.Type,
		SellerType:        u.SellerType,
		AgencyName:        u.AgencyName,
		PIC:               u.PIC,
		ABN:               u.ABN,
		SSPermitNumber:    u.SSPermitNumber,
		SSPermitNumberAge: u.SSPermitNumberAge,
		TradingName:       u.TradingName,
		SaleConditions:    u.SaleConditions,
		Settings:          u.Settings,
		WatchList:         u.WatchList,
		PropertyAddress:   u.PropertyAddress,
		PostalAddress:     u.PostalAddress,
		APIKey:            u.APIKey,
		Files:             u.Files,
		CreatedAt:         u.CreatedAt,
	}
	if r.Files == nil {
		r.Files = []domain.File{}
	}
	return r
}

var errEmptyBody = errors.New("empty upload body")

func toAPIError(err error) error {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return apperr.Validation(err, verrs)
	case errors.Is(err, domain.ErrUserNotFound):
		return apperr.NotFound(err)
	case errors.Is(err, domain.ErrEmailTaken):
		e := apperr.Conflict(err)
		e.Fields = map[string][]string{"email": {"is already taken"}}
		return e
	case errors.Is(err, domain.ErrInvalidCredentials):
		return apperr.Unauthenticated(err)
	case errors.Is(err, domain.ErrNotAuthorized):
		return apperr.NotAuthorized(err)
	case errors.Is(err, domain.ErrUnknownFileKind):
		return apperr.Validation(err, map[string][]string{"kind": {"is not a known file kind"}})
	}
	return err
}

type UserHandler struct {
	service   application.UserService
	validator *UserValidator
}

func NewUserHandler(service application.UserService, validator *UserValidator) *UserHandler {
	return &UserHandler{service: service, validator: validator}
}

func (h *UserHandler) RegisterRoutes(r fiber.Router, mw *auth.Middleware) {
	r.Post("/users", mw.AllowAnonymous, h.Register)
	r.Post("/users/login", h.Login)
	r.Post("/users/forgot-password", h.ForgotPassword)
	r.Get("/users/me", mw.Authenticate, h.Me)
	r.Put("/users/me/password", mw.Authenticate, h.ChangePassword)
	r.Post("/users/me/files/:kind", mw.Authenticate, h.UploadFile)
	r.Get("/users", mw.Authenticate, auth.AdminOnly, h.List)
	r.Get("/users/:userId", mw.Authenticate, h.Get)
	r.Put("/users/:userId", mw.Authenticate, h.Update)
}

// caller is the authenticated principal as a user the service can authorize.
func caller(c *fiber.Ctx) (*domain.User, error) {
	p, ok := auth.PrincipalFromCtx(c)
	if !ok {
		return nil, apperr.Unauthenticated(auth.ErrUnauthenticated)
	}
	return &domain.User{ID: p.ID, Role: p.Role}, nil
}

func isAdmin(c *fiber.Ctx) bool {
	p, ok := auth.PrincipalFromCtx(c)
	return ok && p.IsAdmin()
}

func (h *UserHandler) Register(c *fiber.Ctx) error {
	req, err := h.validator.Create(isAdmin(c)).Validate(c.Body())
	if err != nil {
		return toAPIError(err)
	}
	user, err := h.service.Register(c.UserContext(), req.User.Changes())
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(fiber.Map{"user": toUserResponse(user)})
}

func (h *UserHandler) Login(c *fiber.Ctx) error {
	req, err := h.validator.Login.Validate(c.Body())
	if err != nil {
		return toAPIError(err)
	}
	res, err := h.service.Login(c.UserContext(), *req.Email, *req.Password)
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(fiber.Map{"token": res.Token, "user": toUserResponse(res.User)})
}

func (h *UserHandler) ForgotPassword(c *fiber.Ctx) error {
	req, err := h.validator.ForgotPassword.Validate(c.Body())
	if err != nil {
		return toAPIError(err)
	}
	if err := h.service.ForgotPassword(c.UserContext(), *req.Email); err != nil {
		return toAPIError(err)
	}
	return c.JSON(fiber.Map{"message": "If the address is registered a reset link has been sent"})
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return err
	}
	user, err := h.service.GetUser(c.UserContext(), me, me.ID)
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(fiber.Map{"user": toUserResponse(user)})
}

func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return err
	}
	req, err := h.validator.ChangePassword.Validate(c.Body())
	if err != nil {
		return toAPIError(err)
	}
	if err := h.service.ChangePassword(c.UserContext(), me, *req.Password); err != nil {
		return toAPIError(err)
	}
	return c.JSON(nil)
}

func (h *UserHandler) UploadFile(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return err
	}
	body := c.Body()
	if len(body) == 0 {
		return apperr.Validation(errEmptyBody, map[string][]string{"body": {"is required"}})
	}
	file, err := h.service.UploadFile(c.UserContext(), application.UploadFileDTO{
		Actor:       me,
		Kind:        c.Params("kind"),
		Body:        bytes.NewReader(body),
		ContentType: c.Get(fiber.HeaderContentType),
	})
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(fiber.Map{"file": file})
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	page, err := h.service.ListUsers(c.UserContext(), c.QueryInt("page"), c.QueryInt("limit"))
	if err != nil {
		return toAPIError(err)
	}
	users := make([]UserResponse, 0, len(page.Users))
	for _, u := range page.Users {
		users = append(users, toUserResponse(u))
	}
	c.Set("X-Total-Count", strconv.Itoa(page.Total))
	c.Set("X-Total-Pages", strconv.Itoa(page.TotalPages))
	c.Set("X-Current-Page", strconv.Itoa(page.Page))
	return c.JSON(fiber.Map{"users": users})
}

func userID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return uuid.Nil, apperr.Validation(err, map[string][]string{"userId": {"must be a valid id"}})
	}
	return id, nil
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return err
	}
	id, err := userID(c)
	if err != nil {
		return err
	}
	user, err := h.service.GetUser(c.UserContext(), me, id)
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(fiber.Map{"user": toUserResponse(user)})
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return err
	}
	id, err := userID(c)
	if err != nil {
		return err
	}
	req, err := h.validator.Update(me.IsAdmin()).Validate(c.Body())
	if err != nil {
		return toAPIError(err)
	}
	user, err := h.service.UpdateUser(c.UserContext(), me, id, req.User.Changes())
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(fiber.Map{"user": toUserResponse(user)})
}
