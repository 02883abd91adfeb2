package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cash flow types observed in the data. Storage does not restrict the column to these.
const (
	TypeIncome  = "PEMASUKAN"
	TypeExpense = "PENGELUARAN"
)

// CashFlow is a single income or expense entry belonging to one user.
type CashFlow struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`
	Type        string    `gorm:"size:32;not null" json:"type"`
	Source      string    `gorm:"size:255;not null" json:"source"`
	Label       string    `gorm:"size:255;not null" json:"label"`
	Amount      int64     `gorm:"not null" json:"amount"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" json:"updatedAt"`
}

func (CashFlow) TableName() string {
	return "cash_flows"
}

// BeforeCreate assigns a random id when the caller did not set one.
func (cf *CashFlow) BeforeCreate(tx *gorm.DB) error {
	if cf.ID == uuid.Nil {
		cf.ID = uuid.New()
	}
	return nil
}

// IsIncome reports whether the entry adds to the balance.
func (cf CashFlow) IsIncome() bool {
	return cf.Type == TypeIncome
}
