/*
Package pos provides the bar point-of-sale core: the item catalog, the
stock ledger, the sale log and the logic that keeps them consistent.

PURPOSE:
  Staff log sales against an item catalog. Every sale decrements the
  item's stock counter and every deleted sale restores it. Daily sheets
  record opening and closing counts so shrinkage can be detected.

KEY CONCEPTS IN THIS FILE (types.go):
  - Item:       Catalog entry with a unit price
  - StockLevel: Running on-hand counter per item (canonical stock model)
  - DailyStock: Opening/closing sheet per item per calendar day
  - Sale:       One logged sale, price snapshotted at creation
  - Shortage:   Cash-register deficit attributed to a staff member
  - Change:     Notification published after a committed write

DESIGN PRINCIPLES:
  1. Money uses decimal.Decimal, never float64
  2. Totals are derived at read time, never stored
  3. Stock is only written by the Coordinator (coordinator.go)
  4. Timestamps are UTC instants; calendar days are Day values

SEE ALSO:
  - reconcile.go:   Pure aggregation over items, sales and stock
  - coordinator.go: Paired sale/stock writes
  - rollover.go:    Daily opening-stock initialization
  - store.go:       Repository interfaces
*/
package pos

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnknownItemName labels sales and stock rows whose item no longer exists.
const UnknownItemName = "Unknown"

// =============================================================================
// CATALOG
// =============================================================================

type Item struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// =============================================================================
// STOCK LEDGER
// =============================================================================

// StockLevel is the running on-hand counter for one item.
// Decremented by sales, incremented by restocks and sale deletions.
type StockLevel struct {
	ID       string `json:"id"`
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// DailyStock is the opening/closing sheet of one item for one day.
// Closing is nil until someone enters a manual count.
type DailyStock struct {
	ID      string `json:"id"`
	ItemID  string `json:"itemId"`
	Day     Day    `json:"date"`
	Opening int    `json:"openingStock"`
	Closing *int   `json:"closingStock,omitempty"`
}

// =============================================================================
// SALE LOG
// =============================================================================

type Sale struct {
	ID       string `json:"id"`
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
	// UnitPrice is the item price when the sale was recorded.
	// Zero for rows written before prices were snapshotted.
	UnitPrice decimal.Decimal `json:"unitPrice"`
	SaleDate  time.Time       `json:"saleDate"`
}

// Price returns the unit price the sale should be valued at.
func (s Sale) Price(item Item) decimal.Decimal {
	if s.UnitPrice.IsPositive() {
		return s.UnitPrice
	}
	return item.UnitPrice
}

// SaleFilter narrows ListSales. Zero fields match everything.
// From is inclusive, To is exclusive.
type SaleFilter struct {
	ItemID string
	From   time.Time
	To     time.Time
}

// Match reports whether the sale passes the filter.
func (f SaleFilter) Match(s Sale) bool {
	if f.ItemID != "" && s.ItemID != f.ItemID {
		return false
	}
	return InRange(s.SaleDate, f.From, f.To)
}

// InRange reports whether t is in [from, to). Zero bounds are open.
func InRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

// =============================================================================
// SHORTAGES
// =============================================================================

type Shortage struct {
	ID           string          `json:"id"`
	StaffName    string          `json:"staffName"`
	Amount       decimal.Decimal `json:"amount"`
	ShortageDate time.Time       `json:"shortageDate"`
}

// =============================================================================
// CHANGE NOTIFICATIONS
// =============================================================================

type Collection string

const (
	CollectionItems      Collection = "items"
	CollectionStock      Collection = "stockLevels"
	CollectionDailyStock Collection = "dailyStock"
	CollectionSales      Collection = "sales"
	CollectionShortages  Collection = "shortages"
)

type ChangeOp string

const (
	OpCreate ChangeOp = "create"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
)

// Change describes one committed document write.
type Change struct {
	Collection Collection `json:"collection"`
	Op         ChangeOp   `json:"op"`
	DocID      string     `json:"docId"`
	At         time.Time  `json:"at"`
}

// Publisher receives changes after their transaction commits.
type Publisher interface {
	Publish(Change)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Change) {}
