package http

import (
	"slices"
	"strings"

	"github.com/cristianortiz/lotsEngine/internal/shared/validation"
	"github.com/cristianortiz/lotsEngine/internal/user/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type AddressPayload struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	Town     *string `json:"town"`
	Postcode *string `json:"postcode"`
}

type UserPayload struct {
	Name              *string             `json:"name"`
	FirstName         *string             `json:"firstName" validate:"omitempty,max=255"`
	LastName          *string             `json:"lastName"`
	Email             *string             `json:"email" validate:"omitempty,email"`
	Website           *string             `json:"website"`
	Password          *string             `json:"password" validate:"omitempty,min=6,max=50"`
	Phone             *string             `json:"phone"`
	SecondaryPhone    *string             `json:"secondaryPhone"`
	Role              *string             `json:"role" validate:"omitempty,role"`
	Type              *string             `json:"type" validate:"omitempty,oneof=seller buyer"`
	SellerType        *string             `json:"sellerType" validate:"omitempty,oneof=independent agency"`
	AgencyName        *string             `json:"agencyName"`
	PIC               *string             `json:"PIC"`
	ABN               *string             `json:"ABN"`
	SSPermitNumber    *string             `json:"SSPermitNumber"`
	SSPermitNumberAge *string             `json:"SSPermitNumberAge"`
	Settings          map[string]any      `json:"settings"`
	TradingName       *string             `json:"tradingName"`
	SaleConditions    *string             `json:"saleConditions"`
	WatchList         map[string][]string `json:"watchList" validate:"omitempty,dive,keys,uuid,endkeys,dive,uuid"`
	PropertyAddress   *AddressPayload     `json:"propertyAddress"`
	PostalAddress     *AddressPayload     `json:"postalAddress"`
}

type UserRequest struct {
	User *UserPayload `json:"user"`
}

type ChangePasswordRequest struct {
	Password *string `json:"password" validate:"omitempty,min=6,max=50"`
}

type ForgotPasswordRequest struct {
	Email *string `json:"email" validate:"omitempty,email"`
}

type LoginRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password"`
}

var addressRequired = []string{
	"user.propertyAddress.town", "user.propertyAddress.postcode",
	"user.postalAddress.town", "user.postalAddress.postcode",
}

// UserValidator holds the compiled user schemas. The admin variants accept
// the admin role.
type UserValidator struct {
	create, createAdmin *validation.Schema[UserRequest]
	update, updateAdmin *validation.Schema[UserRequest]
	ChangePassword      *validation.Schema[ChangePasswordRequest]
	ForgotPassword      *validation.Schema[ForgotPasswordRequest]
	Login               *validation.Schema[LoginRequest]
}

func roleRule(roles ...string) validation.Option {
	return validation.WithRule("role", func(fl validator.FieldLevel) bool {
		return slices.Contains(roles, fl.Field().String())
	}, "must be one of: "+strings.Join(roles, ", "))
}

func NewUserValidator() *UserValidator {
	createRequired := validation.WithRequired("user", "user.firstName", "user.lastName", "user.email", "user.password")
	return &UserValidator{
		create: validation.Compile[UserRequest]("user.create",
			createRequired, validation.WithRequired(addressRequired...), roleRule(domain.RoleUser)),
		createAdmin: validation.Compile[UserRequest]("user.createAdmin",
			createRequired, validation.WithRequired(addressRequired...), roleRule(domain.RoleUser, domain.RoleAdmin)),
		update: validation.Compile[UserRequest]("user.update",
			validation.WithRequired("user"), validation.WithRequired(addressRequired...), roleRule(domain.RoleUser)),
		updateAdmin: validation.Compile[UserRequest]("user.updateAdmin",
			validation.WithRequired("user"), validation.WithRequired(addressRequired...), roleRule(domain.RoleUser, domain.RoleAdmin)),
		ChangePassword: validation.Compile[ChangePasswordRequest]("user.changePassword",
			validation.WithRequired("password")),
		ForgotPassword: validation.Compile[ForgotPasswordRequest]("user.forgotPassword",
			validation.WithRequired("email")),
		Login: validation.Compile[LoginRequest]("user.login",
			validation.WithRequired("email", "password")),
	}
}

func (v *UserValidator) Create(isAdmin bool) *validation.Schema[UserRequest] {
	if isAdmin {
		return v.createAdmin
	}
	return v.create
}

func (v *UserValidator) Update(isAdmin bool) *validation.Schema[UserRequest] {
	if isAdmin {
		return v.updateAdmin
	}
	return v.update
}

func address(p *AddressPayload) *domain.Address {
	if p == nil {
		return nil
	}
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	return &domain.Address{
		Name:     deref(p.Name),
		Address:  deref(p.Address),
		Town:     deref(p.Town),
		Postcode: deref(p.Postcode),
	}
}

// Changes converts a validated payload to domain changes. Watch list ids
// were checked by the schema.
func (p *UserPayload) Changes() domain.UserChanges {
	c := domain.UserChanges{
		Name:              p.Name,
		FirstName:         p.FirstName,
		LastName:          p.LastName,
		Email:             p.Email,
		Website:           p.Website,
		Password:          p.Password,
		Phone:             p.Phone,
		SecondaryPhone:    p.SecondaryPhone,
		Role:              p.Role,
		Type:              p.Type,
		SellerType:        p.SellerType,
		AgencyName:        p.AgencyName,
		PIC:               p.PIC,
		ABN:               p.ABN,
		SSPermitNumber:    p.SSPermitNumber,
		SSPermitNumberAge: p.SSPermitNumberAge,
		TradingName:       p.TradingName,
		SaleConditions:    p.SaleConditions,
		Settings:          p.Settings,
		PropertyAddress:   address(p.PropertyAddress),
		PostalAddress:     address(p.PostalAddress),
	}
	if p.WatchList != nil {
		c.WatchList = make(map[uuid.UUID][]uuid.UUID, len(p.WatchList))
		for auction, lots := range p.WatchList {
			ids := make([]uuid.UUID, 0, len(lots))
			for _, l := range lots {
				ids = append(ids, uuid.MustParse(l))
			}
			c.WatchList[uuid.MustParse(auction)] = ids
		}
	}
	return c
}
