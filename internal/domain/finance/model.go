package finance

import "time"

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

// Amounts are stored in cents so installment math stays exact.

type Currency struct {
	ID     int64  `gorm:"primaryKey"`
	Code   string `gorm:"size:3;not null;uniqueIndex"`
	Symbol string `gorm:"size:8;not null"`
}

func (Currency) TableName() string { return "finance_currency" }

type Category struct {
	ID       int64  `gorm:"primaryKey"`
	Name     string `gorm:"not null"`
	ParentID *int64 `gorm:"index"`
}

func (Category) TableName() string { return "finance_category" }

// CostCenter groups entries for reporting (household budget areas).
type CostCenter struct {
	ID          int64   `gorm:"primaryKey"`
	Name        string  `gorm:"not null"`
	Description *string `gorm:"type:text"`
}

func (CostCenter) TableName() string { return "finance_cc" }

type Payer struct {
	ID     int64  `gorm:"primaryKey"`
	Name   string `gorm:"not null"`
	UserID *int64 `gorm:"index"`
}

func (Payer) TableName() string { return "finance_payer" }

type Entry struct {
	ID           int64     `gorm:"primaryKey"`
	Description  string    `gorm:"not null"`
	AmountCents  int64     `gorm:"not null"`
	Income       bool      `gorm:"not null;default:false"`
	CurrencyID   int64     `gorm:"not null;index"`
	CategoryID   int64     `gorm:"not null;index"`
	CostCenterID *int64    `gorm:"index"`
	PayerID      int64     `gorm:"not null;index"`
	StartDate    time.Time `gorm:"not null"`
	Installments int       `gorm:"not null;default:1"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (Entry) TableName() string { return "finance_entries" }

type Transaction struct {
	ID          int64     `gorm:"primaryKey"`
	EntryID     int64     `gorm:"not null;index"`
	Installment int       `gorm:"not null"`
	AmountCents int64     `gorm:"not null"`
	DueDate     time.Time `gorm:"not null;index"`
	Status      string    `gorm:"type:varchar(16);not null;default:pending"`
	PaidAt      *time.Time
}

func (Transaction) TableName() string { return "finance_transactions" }

type TransactionFilter struct {
	Status  string
	EntryID int64
}

type CategoryTotal struct {
	CategoryID   int64
	CategoryName string
	TotalCents   int64
}

type Summary struct {
	PendingCents int64
	PaidCents    int64
	ByCategory   []CategoryTotal
}

type CreateEntryInput struct {
	Description  string
	AmountCents  int64
	Income       bool
	CurrencyID   int64
	CategoryID   int64
	CostCenterID *int64
	PayerID      int64
	StartDate    time.Time
	Installments int
}
