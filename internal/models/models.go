package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type Product struct {
	ID            uint            `gorm:"primaryKey;autoIncrement"        json:"id"`
	Name          string          `gorm:"not null"                        json:"name"`
	Description   string          `gorm:"type:text"                       json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null"     json:"price"`
	Stock         int             `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Category      string          `gorm:"index;not null"                  json:"category"`
	Brand         string          `json:"brand"`
	AverageRating float64         `gorm:"not null;default:0"              json:"average_rating"`
	ReviewCount   int             `gorm:"not null;default:0"              json:"review_count"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"     json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         Role      `gorm:"not null;default:customer" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type CartItem struct {
	ID        uint            `gorm:"primaryKey"                            json:"id"`
	UserID    uint            `gorm:"uniqueIndex:idx_cart_user_product;not null" json:"user_id"`
	ProductID uint            `gorm:"uniqueIndex:idx_cart_user_product;not null" json:"product_id"`
	Quantity  int             `gorm:"not null;check:quantity > 0"           json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"           json:"price"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey"                                    json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_review_user_product;not null"  json:"user_id"`
	ProductID uint      `gorm:"uniqueIndex:idx_review_user_product;not null;index" json:"product_id"`
	Rating    int       `gorm:"not null;check:rating BETWEEN 1 AND 5"         json:"rating"`
	Comment   string    `gorm:"size:1000"                                     json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type Address struct {
	ID        uint   `gorm:"primaryKey"     json:"id"`
	UserID    uint   `gorm:"index;not null" json:"user_id"`
	Street    string `gorm:"not null"       json:"street"`
	City      string `gorm:"not null"       json:"city"`
	State     string `gorm:"not null"       json:"state"`
	Country   string `gorm:"not null"       json:"country"`
	ZipCode   string `gorm:"not null"       json:"zip_code"`
	IsDefault bool   `gorm:"not null;default:false" json:"is_default"`
}

// CreditCard is never serialised directly; transport.CardResponse masks it.
type CreditCard struct {
	ID              uint   `gorm:"primaryKey"     json:"-"`
	UserID          uint   `gorm:"index;not null" json:"-"`
	CardNumber      string `gorm:"size:16;not null" json:"-"`
	CardHolderName  string `gorm:"not null"       json:"-"`
	ExpirationMonth int    `gorm:"not null"       json:"-"`
	ExpirationYear  int    `gorm:"not null"       json:"-"`
	CVV             string `gorm:"size:4;not null" json:"-"`
	IsDefault       bool   `gorm:"not null;default:false" json:"-"`
}

func (c CreditCard) LastFour() string {
	if len(c.CardNumber) < 4 {
		return c.CardNumber
	}
	return c.CardNumber[len(c.CardNumber)-4:]
}

// All is the list handed to AutoMigrate.
func All() []any {
	return []any{
		&User{}, &Product{}, &CartItem{}, &Order{}, &OrderItem{},
		&Payment{}, &Review{}, &Address{}, &CreditCard{},
	}
}
