package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Store is one sales channel of a merchant. A user may own several.
type Store struct {
	ID          int64          `json:"id" db:"id"`
	OwnerID     int64          `json:"ownerId" db:"owner_id"`
	Name        string         `json:"name" db:"name"`
	Slug        string         `json:"slug" db:"slug"`
	Description string         `json:"description" db:"description"`
	Currency    string         `json:"currency" db:"currency"`
	Payment     PaymentConfig  `json:"payment" db:"payment"`
	Delivery    DeliveryConfig `json:"delivery" db:"delivery"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
}

type PaymentConfig struct {
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	PayOnDelivery bool   `json:"payOnDelivery"`
}

type DeliveryConfig struct {
	Fee          decimal.Decimal `json:"fee"`
	Regions      []string        `json:"regions"`
	Pickup       bool            `json:"pickupAvailable"`
	LeadTimeDays int             `json:"leadTimeDays"`
}

// StoreInput is the onboarding payload for a new store.
type StoreInput struct {
	Name        string         `json:"name" validate:"required,max=120"`
	Slug        string         `json:"slug" validate:"omitempty,max=60"`
	Description string         `json:"description"`
	Currency    string         `json:"currency" validate:"required,len=3"`
	Payment     PaymentConfig  `json:"payment"`
	Delivery    DeliveryConfig `json:"delivery"`
}

// User is the authenticated merchant.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResult is returned by the login endpoint.
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

const (
	CurrencyNGN = "NGN"
	CurrencyUSD = "USD"
)
