/*
reconcile.go - Sales and stock aggregation

PURPOSE:
  Pure, side-effect-free aggregation over a snapshot of items, sales and
  stock. Produces per-item sales, stock summaries (opening, sold,
  expected, closing, discrepancy) and the dashboard totals.

FAILURE SEMANTICS:
  Nothing here returns an error. Sales and stock rows whose item has
  been deleted are labelled "Unknown" and valued at zero. Their
  quantities still count towards items sold.

ORDERING:
  Per-item sales are grouped by item ID (never by name) and returned in
  the order each item is first seen in the sale list. The best seller
  is the first item with the highest quantity, so ties resolve the same
  way for the same input order.

FORMULAS:
  revenue     = Σ sale.Quantity × sale price
  expected    = opening − sold
  discrepancy = closing − expected   (only when a closing count exists)

SEE ALSO:
  - coordinator.go: Keeps the inputs consistent
  - live/watch.go:  Recomputes reports when data changes
*/
package pos

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

type ItemSales struct {
	ItemID       string          `json:"itemId"`
	Name         string          `json:"name"`
	QuantitySold int             `json:"quantitySold"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

type StockSummary struct {
	ItemID   string `json:"itemId"`
	Name     string `json:"name"`
	Opening  int    `json:"opening"`
	Sold     int    `json:"sold"`
	Expected int    `json:"expected"`
	// Closing and Discrepancy are nil unless a manual closing count exists.
	Closing     *int `json:"closing,omitempty"`
	Discrepancy *int `json:"discrepancy,omitempty"`
}

type Dashboard struct {
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	TotalItemsSold int             `json:"totalItemsSold"`
	// BestSeller is nil when there are no sales.
	BestSeller *ItemSales  `json:"bestSeller,omitempty"`
	Items      []ItemSales `json:"items"`
}

// DailyReport is everything the dashboard shows for one day.
type DailyReport struct {
	Day              Day             `json:"date"`
	Dashboard        Dashboard       `json:"dashboard"`
	Stock            []StockSummary  `json:"stock"`
	TotalDiscrepancy int             `json:"totalDiscrepancy"`
	Shortages        []Shortage      `json:"shortages"`
	TotalShortage    decimal.Decimal `json:"totalShortage"`
}

// =============================================================================
// SALES
// =============================================================================

// SummarizeSalesByItem returns one row per item with at least one sale.
func SummarizeSalesByItem(items []Item, sales []Sale) []ItemSales {
	catalog := indexItems(items)
	idx := make(map[string]int)
	out := make([]ItemSales, 0)

	for _, s := range sales {
		i, seen := idx[s.ItemID]
		if !seen {
			row := ItemSales{ItemID: s.ItemID, Name: UnknownItemName, TotalRevenue: decimal.Zero}
			if item, ok := catalog[s.ItemID]; ok {
				row.Name = item.Name
			}
			out = append(out, row)
			i = len(out) - 1
			idx[s.ItemID] = i
		}

		out[i].QuantitySold += s.Quantity
		if item, ok := catalog[s.ItemID]; ok {
			line := s.Price(item).Mul(decimal.NewFromInt(int64(s.Quantity)))
			out[i].TotalRevenue = out[i].TotalRevenue.Add(line)
		}
	}
	return out
}

// DashboardTotals computes revenue, items sold and the best seller.
func DashboardTotals(items []Item, sales []Sale) Dashboard {
	summary := SummarizeSalesByItem(items, sales)
	d := Dashboard{TotalRevenue: decimal.Zero, Items: summary}

	for _, s := range sales {
		d.TotalItemsSold += s.Quantity
	}
	for i := range summary {
		d.TotalRevenue = d.TotalRevenue.Add(summary[i].TotalRevenue)
		if d.BestSeller == nil || summary[i].QuantitySold > d.BestSeller.QuantitySold {
			best := summary[i]
			d.BestSeller = &best
		}
	}
	return d
}

// FilterSales returns the sales matching f, preserving order.
func FilterSales(sales []Sale, f SaleFilter) []Sale {
	out := make([]Sale, 0, len(sales))
	for _, s := range sales {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

// FilterShortages returns the shortages in [from, to), preserving order.
func FilterShortages(shortages []Shortage, from, to time.Time) []Shortage {
	out := make([]Shortage, 0, len(shortages))
	for _, s := range shortages {
		if InRange(s.ShortageDate, from, to) {
			out = append(out, s)
		}
	}
	return out
}

// =============================================================================
// STOCK
// =============================================================================

// SummarizeStock reconciles the running counters against sales matching
// f. Opening is the counter as given. A zero filter counts every sale.
//
// The counter is already net of every sale, so Expected here is the
// counter minus sales counted a second time. It is a reconciliation
// figure, not stock on hand: the counter itself is what is on hand.
// Use SummarizeDailyStock for a physical expected count.
func SummarizeStock(items []Item, sales []Sale, levels []StockLevel, f SaleFilter) []StockSummary {
	rows := make([]stockRow, len(levels))
	for i, l := range levels {
		rows[i] = stockRow{itemID: l.ItemID, opening: l.Quantity}
	}
	return summarize(items, soldByItem(sales, f), rows)
}

// SummarizeDailyStock reconciles daily sheets against the sales matching
// f, normally the sheet's day.
func SummarizeDailyStock(items []Item, sales []Sale, sheets []DailyStock, f SaleFilter) []StockSummary {
	rows := make([]stockRow, len(sheets))
	for i, s := range sheets {
		rows[i] = stockRow{itemID: s.ItemID, opening: s.Opening, closing: s.Closing}
	}
	return summarize(items, soldByItem(sales, f), rows)
}

// BuildDailyReport assembles the dashboard for one day.
func BuildDailyReport(items []Item, sales []Sale, sheets []DailyStock, shortages []Shortage, day Day, loc *time.Location) DailyReport {
	f := day.Filter(loc)
	todays := FilterSales(sales, f)

	report := DailyReport{
		Day:           day,
		Dashboard:     DashboardTotals(items, todays),
		Stock:         SummarizeDailyStock(items, todays, sheets, SaleFilter{}),
		Shortages:     FilterShortages(shortages, f.From, f.To),
		TotalShortage: decimal.Zero,
	}
	for _, s := range report.Stock {
		if s.Discrepancy != nil {
			report.TotalDiscrepancy += *s.Discrepancy
		}
	}
	for _, s := range report.Shortages {
		report.TotalShortage = report.TotalShortage.Add(s.Amount)
	}
	return report
}

type stockRow struct {
	itemID  string
	opening int
	closing *int
}

// summarize emits one row per catalog item, in catalog order, then one
// row per stock record whose item is gone.
func summarize(items []Item, sold map[string]int, rows []stockRow) []StockSummary {
	byItem := make(map[string]stockRow, len(rows))
	for _, r := range rows {
		byItem[r.itemID] = r
	}

	out := make([]StockSummary, 0, len(items))
	known := make(map[string]bool, len(items))
	for _, item := range items {
		known[item.ID] = true
		out = append(out, reconcileRow(item.ID, item.Name, byItem[item.ID], sold[item.ID]))
	}
	for _, r := range rows {
		if !known[r.itemID] {
			out = append(out, reconcileRow(r.itemID, UnknownItemName, r, sold[r.itemID]))
		}
	}
	return out
}

func reconcileRow(itemID, name string, r stockRow, sold int) StockSummary {
	s := StockSummary{
		ItemID:   itemID,
		Name:     name,
		Opening:  r.opening,
		Sold:     sold,
		Expected: r.opening - sold,
	}
	if r.closing != nil {
		closing := *r.closing
		diff := closing - s.Expected
		s.Closing = &closing
		s.Discrepancy = &diff
	}
	return s
}

func soldByItem(sales []Sale, f SaleFilter) map[string]int {
	sold := make(map[string]int)
	for _, s := range sales {
		if f.Match(s) {
			sold[s.ItemID] += s.Quantity
		}
	}
	return sold
}

func indexItems(items []Item) map[string]Item {
	m := make(map[string]Item, len(items))
	for _, it := range items {
		m[it.ID] = it
	}
	return m
}
