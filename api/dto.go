/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types from
  package pos are returned as-is where their JSON shape is already the
  API contract (items, stock levels, reports). Sales get a DTO because
  the client wants the item name and line total next to each row.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  decimal.Decimal marshals as a JSON string ("3.50") and accepts either
  a string or a number on input.

VALIDATION:
  Validation is done by the Coordinator, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/taproom/pos"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

type CreateItemRequest struct {
	Name            string          `json:"name"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	InitialQuantity int             `json:"initialQuantity"`
}

type UpdateItemRequest struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// StockRequest sets or adds to a stock counter.
type StockRequest struct {
	Quantity int `json:"quantity"`
}

// DailyStockRequest updates a daily sheet. Nil fields are left alone.
type DailyStockRequest struct {
	Opening *int `json:"openingStock"`
	Closing *int `json:"closingStock"`
}

type SaleRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

type ShortageRequest struct {
	StaffName string          `json:"staffName"`
	Amount    decimal.Decimal `json:"amount"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type ItemDTO struct {
	pos.Item
	Stock *int `json:"stock,omitempty"`
}

type SaleDTO struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"itemId"`
	ItemName  string          `json:"itemName"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
	SaleDate  string          `json:"saleDate"`
}

type DeleteSaleDTO struct {
	Sale     SaleDTO         `json:"sale"`
	Restored bool            `json:"restored"`
	Stock    *pos.StockLevel `json:"stock,omitempty"`
}

type DailyStockDTO struct {
	Date   pos.Day          `json:"date"`
	Sheets []pos.DailyStock `json:"sheets"`
}

type RolloverDTO struct {
	Date   pos.Day `json:"date"`
	Sheets int     `json:"sheets"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toSaleDTO(s pos.Sale, item pos.Item, known bool) SaleDTO {
	dto := SaleDTO{
		ID:        s.ID,
		ItemID:    s.ItemID,
		ItemName:  pos.UnknownItemName,
		Quantity:  s.Quantity,
		UnitPrice: s.UnitPrice,
		Total:     decimal.Zero,
		SaleDate:  s.SaleDate.Format(time.RFC3339),
	}
	if known {
		price := s.Price(item)
		dto.ItemName = item.Name
		dto.UnitPrice = price
		dto.Total = price.Mul(decimal.NewFromInt(int64(s.Quantity)))
	}
	return dto
}

func toSaleDTOs(items []pos.Item, sales []pos.Sale) []SaleDTO {
	byID := make(map[string]pos.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	dtos := make([]SaleDTO, len(sales))
	for i, s := range sales {
		item, ok := byID[s.ItemID]
		dtos[i] = toSaleDTO(s, item, ok)
	}
	return dtos
}
