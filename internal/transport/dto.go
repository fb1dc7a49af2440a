package transport

import (
	"time"

	"github.com/shopspring/decimal"
)

type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type UpdateUserRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
}

// PatchProductRequest leaves stock out; stock only moves through AdjustStock.
type PatchProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Brand       *string          `json:"brand"`
}

type AdjustStockRequest struct {
	Delta int `json:"delta"`
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type CartLine struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type CartResponse struct {
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

type CreateOrderRequest struct {
	ShippingAddress string `json:"shipping_address"`
	PaymentMethod   string `json:"payment_method"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type OrderSummaryItem struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type OrderSummary struct {
	OrderID         uint               `json:"order_id"`
	OrderDate       time.Time          `json:"order_date"`
	Status          string             `json:"status"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	ShippingAddress string             `json:"shipping_address"`
	Items           []OrderSummaryItem `json:"items"`
}

type PaymentRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// PaymentResponse carries Error only for FAILED payments.
type PaymentResponse struct {
	PaymentID     uint            `json:"payment_id"`
	OrderID       uint            `json:"order_id"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   time.Time       `json:"payment_date"`
	Error         string          `json:"error,omitempty"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type AddressRequest struct {
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
	ZipCode   string `json:"zip_code"`
	IsDefault bool   `json:"is_default"`
}

type CardRequest struct {
	CardNumber      string `json:"card_number"`
	CardHolderName  string `json:"card_holder_name"`
	ExpirationMonth int    `json:"expiration_month"`
	ExpirationYear  int    `json:"expiration_year"`
	CVV             string `json:"cvv"`
	IsDefault       bool   `json:"is_default"`
}

type CardResponse struct {
	ID              uint   `json:"id"`
	MaskedNumber    string `json:"masked_number"`
	CardHolderName  string `json:"card_holder_name"`
	ExpirationMonth int    `json:"expiration_month"`
	ExpirationYear  int    `json:"expiration_year"`
	IsDefault       bool   `json:"is_default"`
}

type SweepResponse struct {
	Expired int64 `json:"expired"`
}
