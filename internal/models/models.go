package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleAdmin            = "admin"
	RoleAdminDescription = "Admin role"

	OrderStatusNew = "new"
)

type Product struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey"          json:"id"`
	Name        string              `gorm:"not null"                      json:"name"`
	Slug        string              `gorm:"not null;index"                json:"slug"`
	Description string              `gorm:"type:text;not null;default:''" json:"description"`
	Price       decimal.Decimal     `gorm:"type:numeric(12,2);not null"   json:"price"`
	ImageURL    string              `gorm:"not null;default:''"           json:"image_url"`
	IsOnOffer   bool                `gorm:"not null"                      json:"is_on_offer"`
	OfferPrice  decimal.NullDecimal `gorm:"type:numeric(12,2)"            json:"offer_price"`
	IsActive    bool                `gorm:"not null;index"                json:"is_active"`
	CreatedAt   time.Time           `gorm:"index"                         json:"created_at"`
	UpdatedAt   time.Time           `                                     json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// UnitPrice is the price a cart line is charged at right now.
func (p *Product) UnitPrice() decimal.Decimal {
	if p.IsOnOffer && p.OfferPrice.Valid && p.OfferPrice.Decimal.IsPositive() {
		return p.OfferPrice.Decimal
	}
	return p.Price
}

type Category struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;not null"     json:"name"`
}

type ProductCategory struct {
	ProductID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"product_id"`
	CategoryID uint      `gorm:"primaryKey"           json:"category_id"`
}

func (ProductCategory) TableName() string {
	return "product_categories"
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"  json:"email"`
	PasswordHash string    `gorm:"not null"              json:"-"`
	FullName     string    `gorm:"not null;default:''"   json:"full_name"`
	IsActive     bool      `gorm:"not null"              json:"is_active"`
	CreatedAt    time.Time `                             json:"created_at"`
	UpdatedAt    time.Time `                             json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// DisplayName is what the storefront greets the user with.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

type Role struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"uniqueIndex;not null"     json:"name"`
	Description string `gorm:"not null;default:''"      json:"description"`
}

type UserRole struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	RoleID uint      `gorm:"primaryKey"           json:"role_id"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

type Order struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"        json:"id"`
	UserID    uuid.UUID       `gorm:"type:uuid;index;not null"    json:"user_id"`
	Status    string          `gorm:"not null"                    json:"status"`
	Subtotal  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Tax       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax"`
	Total     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Currency  string          `gorm:"size:3;not null"             json:"currency"`
	CreatedAt time.Time       `gorm:"index"                       json:"created_at"`
	Items     []OrderItem     `gorm:"foreignKey:OrderID"          json:"items"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type OrderItem struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;index;not null"    json:"order_id"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;index"             json:"product_id"`
	ProductName string          `gorm:"not null"                    json:"product_name"`
	Quantity    int             `gorm:"not null;check:quantity>0"   json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"line_total"`
}

func All() []any {
	return []any{
		&Product{}, &Category{}, &ProductCategory{},
		&User{}, &Role{}, &UserRole{},
		&Order{}, &OrderItem{},
	}
}
