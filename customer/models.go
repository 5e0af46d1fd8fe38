package customer

import (
	"github.com/shopspring/decimal"

	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/types"
)

// Customer is the billing entity invoices are issued to, one invoice per
// calendar month. Customers are never deleted while invoices reference
// them.
type Customer struct {
	types.Entity
	ID       id.CustomerID     `json:"id"`
	Name     string            `json:"name"`
	Currency string            `json:"currency"`
	// TaxPercent is copied onto each new invoice for the customer.
	TaxPercent decimal.Decimal   `json:"tax_percent"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
