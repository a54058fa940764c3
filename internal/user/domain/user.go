package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	TypeSeller = "seller"
	TypeBuyer  = "buyer"

	SellerIndependent = "independent"
	SellerAgency      = "agency"
)

// FileKinds are the profile documents a user can upload.
var FileKinds = []string{"ss-permit", "identity-policy", "other"}

type Address struct {
	Name     string `json:"name,omitempty"`
	Address  string `json:"address,omitempty"`
	Town     string `json:"town"`
	Postcode string `json:"postcode"`
}

type File struct {
	Key      string `json:"key"`
	Kind     string `json:"kind"`
	Location string `json:"location"`
}

type User struct {
	ID                   uuid.UUID
	NumericID            *int64
	Name                 string
	FirstName            string
	LastName             string
	Email                string
	Website              string
	PasswordHash         string
	Phone                string
	SecondaryPhone       string
	Role                 string
	Type                 string
	SellerType           string
	AgencyName           string
	PIC                  string
	ABN                  string
	SSPermitNumber       string
	SSPermitNumberAge    string
	TradingName          string
	SaleConditions       string
	Settings             map[string]any
	WatchList            map[uuid.UUID][]uuid.UUID
	PropertyAddress      *Address
	PostalAddress        *Address
	APIKey               string
	ResetPasswordToken   string
	ResetPasswordExpires *time.Time
	Files                []File
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ShortID is the last six digits of the zero padded numeric id, "" when the
// user has none yet.
func (u *User) ShortID() string {
	if u.NumericID == nil {
		return ""
	}
	s := fmt.Sprintf("%06d", *u.NumericID)
	return s[len(s)-6:]
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DefaultSettings enables every push notification.
func DefaultSettings() map[string]any {
	return map[string]any{
		"pushPermissions": map[string]any{
			"lot_closed": true,
			"lot_lost":   true,
		},
	}
}

// UserChanges holds the caller supplied profile fields. Nil fields are left
// untouched. Password is the plain text value.
type UserChanges struct {
	Name              *string
	FirstName         *string
	LastName          *string
	Email             *string
	Website           *string
	Password          *string
	Phone             *string
	SecondaryPhone    *string
	Role              *string
	Type              *string
	SellerType        *string
	AgencyName        *string
	PIC               *string
	ABN               *string
	SSPermitNumber    *string
	SSPermitNumberAge *string
	TradingName       *string
	SaleConditions    *string
	Settings          map[string]any
	WatchList         map[uuid.UUID][]uuid.UUID
	PropertyAddress   *Address
	PostalAddress     *Address
}

func NewUser(c UserChanges) *User {
	u := &User{
		ID:         uuid.New(),
		Role:       RoleUser,
		SellerType: SellerIndependent,
		Settings:   DefaultSettings(),
		WatchList:  map[uuid.UUID][]uuid.UUID{},
		APIKey:     uuid.NewString(),
		Files:      []File{},
	}
	u.Apply(c)
	return u
}

// Apply copies the profile fields. The password is handled by the caller.
func (u *User) Apply(c UserChanges) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.Name, c.Name)
	set(&u.FirstName, c.FirstName)
	set(&u.LastName, c.LastName)
	set(&u.Email, c.Email)
	set(&u.Website, c.Website)
	set(&u.Phone, c.Phone)
	set(&u.SecondaryPhone, c.SecondaryPhone)
	set(&u.Role, c.Role)
	set(&u.Type, c.Type)
	set(&u.SellerType, c.SellerType)
	set(&u.AgencyName, c.AgencyName)
	set(&u.PIC, c.PIC)
	set(&u.ABN, c.ABN)
	set(&u.SSPermitNumber, c.SSPermitNumber)
	set(&u.SSPermitNumberAge, c.SSPermitNumberAge)
	set(&u.TradingName, c.TradingName)
	set(&u.SaleConditions, c.SaleConditions)

	if c.Settings != nil {
		u.Settings = c.Settings
	}
	if c.WatchList != nil {
		u.WatchList = c.WatchList
	}
	if c.PropertyAddress != nil {
		a := *c.PropertyAddress
		u.PropertyAddress = &a
	}
	if c.PostalAddress != nil {
		a := *c.PostalAddress
		u.PostalAddress = &a
	}
}

// CanManage reports whether actor may read or change u.
func (u *User) CanManage(actor *User) bool {
	return actor != nil && (actor.ID == u.ID || actor.IsAdmin())
}
