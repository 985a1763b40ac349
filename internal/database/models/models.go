package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

type Company struct {
	ID               string          `gorm:"type:uuid;primaryKey"`
	Name             string          `gorm:"type:varchar(255);not null"`
	Username         string          `gorm:"type:varchar(255);uniqueIndex;not null"`
	Password         string          `gorm:"type:varchar(128);not null"`
	MaxSale          decimal.Decimal `gorm:"type:decimal(3,2);not null"`
	BonusPointsRatio decimal.Decimal `gorm:"type:decimal(3,2);not null"`
	Description      *string         `gorm:"type:text"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Cashiers []Cashier `gorm:"foreignKey:CompanyID"`
	Items    []Item    `gorm:"foreignKey:CompanyID"`
}

type Cashier struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	CompanyID string `gorm:"type:uuid;index;not null"`
	Username  string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Password  string `gorm:"type:varchar(128);not null"`
	IsFired   bool   `gorm:"not null;default:false"`
	Status    string `gorm:"type:varchar(8);not null;default:'ACTIVE'"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Company *Company `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
}

// Client ids are supplied by the caller, not generated.
type Client struct {
	ID        int64  `gorm:"primaryKey;autoIncrement:false"`
	FirstName string `gorm:"type:varchar(255);not null"`
}

type ClientLoyalty struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	ClientID  int64  `gorm:"not null;uniqueIndex:idx_client_company"`
	CompanyID string `gorm:"type:uuid;not null;uniqueIndex:idx_client_company"`
	Points    int64  `gorm:"not null;default:0"`
	Status    string `gorm:"type:varchar(8);not null;default:'ACTIVE'"`

	Client  *Client  `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
	Company *Company `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
}

type Item struct {
	ID          string          `gorm:"type:uuid;primaryKey"`
	CompanyID   string          `gorm:"type:uuid;index;not null"`
	Name        string          `gorm:"type:varchar(255);not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status      string          `gorm:"type:varchar(8);not null;default:'ACTIVE'"`
	Description *string         `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Company *Company `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
}

// Transaction rows are written once by the sale committer and never mutated.
type Transaction struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	ClientID      *int64          `gorm:"index"`
	CompanyID     string          `gorm:"type:uuid;index;not null"`
	CashierID     string          `gorm:"type:uuid;index;not null"`
	Price         decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	PriceWithSale decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	PointsUsed    int64           `gorm:"not null"`
	PointsEarned  int64           `gorm:"not null"`
	CreatedAt     time.Time       `gorm:"index"`

	Client           *Client           `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
	Company          *Company          `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
	Cashier          *Cashier          `gorm:"foreignKey:CashierID;constraint:OnDelete:CASCADE"`
	TransactionItems []TransactionItem `gorm:"foreignKey:TransactionID"`
}

type TransactionItem struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	TransactionID int64           `gorm:"index;not null"`
	ItemID        string          `gorm:"type:uuid;not null"`
	Quantity      int32           `gorm:"not null"`
	SellPrice     decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	OriginPrice   decimal.Decimal `gorm:"type:decimal(8,2);not null"`

	Transaction *Transaction `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
	Item        *Item        `gorm:"foreignKey:ItemID"`
}
