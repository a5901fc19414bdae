package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is applied to expenses created without a currency code.
const DefaultCurrency = "USD"

// DefaultExpenseCategory is applied to expenses created without a category.
const DefaultExpenseCategory = "other"

// Expense is money spent on a trip. Date is a calendar day ("2006-01-02").
type Expense struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ExpenseInput carries the fields accepted when recording an expense.
type ExpenseInput struct {
	Title       string
	Amount      decimal.Decimal
	Currency    string
	Category    string
	Date        string
	Description string
}

// ExpenseSummary aggregates a trip's expenses. Amounts are summed without
// currency conversion.
type ExpenseSummary struct {
	Total      decimal.Decimal            `json:"total"`
	Count      int                        `json:"count"`
	ByCategory map[string]decimal.Decimal `json:"by_category"`
	Average    decimal.Decimal            `json:"average"`
}
