package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/taproom/pos"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn implements pos.Store against either the pool or a transaction.
type conn struct {
	q querier
	d Dialect
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := c.q.ExecContext(ctx, c.d.rebind(query), args...)
	return res, c.d.translate(err)
}

func (c conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := c.q.QueryContext(ctx, c.d.rebind(query), args...)
	return rows, c.d.translate(err)
}

func (c conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.d.rebind(query), args...)
}

// execOne runs a write that must touch exactly one row.
func (c conn) execOne(ctx context.Context, notFound error, query string, args ...any) error {
	res, err := c.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nanos(t time.Time) int64 { return t.UTC().UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

// =============================================================================
// ITEMS
// =============================================================================

func (c conn) CreateItem(ctx context.Context, item pos.Item) error {
	_, err := c.exec(ctx, `INSERT INTO items (id, name, unit_price) VALUES (?, ?, ?)`,
		item.ID, item.Name, item.UnitPrice)
	return err
}

func (c conn) GetItem(ctx context.Context, id string) (pos.Item, error) {
	var item pos.Item
	err := c.queryRow(ctx, `SELECT id, name, unit_price FROM items WHERE id = ?`, id).
		Scan(&item.ID, &item.Name, &item.UnitPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return pos.Item{}, pos.ErrItemNotFound
	}
	return item, c.d.translate(err)
}

func (c conn) ListItems(ctx context.Context) ([]pos.Item, error) {
	rows, err := c.query(ctx, `SELECT id, name, unit_price FROM items ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]pos.Item, 0)
	for rows.Next() {
		var item pos.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (c conn) UpdateItem(ctx context.Context, item pos.Item) error {
	return c.execOne(ctx, pos.ErrItemNotFound,
		`UPDATE items SET name = ?, unit_price = ? WHERE id = ?`, item.Name, item.UnitPrice, item.ID)
}

func (c conn) DeleteItem(ctx context.Context, id string) error {
	return c.execOne(ctx, pos.ErrItemNotFound, `DELETE FROM items WHERE id = ?`, id)
}

// =============================================================================
// STOCK LEVELS
// =============================================================================

func (c conn) CreateStockLevel(ctx context.Context, level pos.StockLevel) error {
	_, err := c.exec(ctx, `INSERT INTO stock_levels (id, item_id, quantity) VALUES (?, ?, ?)`,
		level.ID, level.ItemID, level.Quantity)
	return err
}

func (c conn) GetStockLevel(ctx context.Context, itemID string) (pos.StockLevel, error) {
	var l pos.StockLevel
	err := c.queryRow(ctx, `SELECT id, item_id, quantity FROM stock_levels WHERE item_id = ?`, itemID).
		Scan(&l.ID, &l.ItemID, &l.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return pos.StockLevel{}, pos.ErrStockNotFound
	}
	return l, c.d.translate(err)
}

func (c conn) ListStockLevels(ctx context.Context) ([]pos.StockLevel, error) {
	rows, err := c.query(ctx, `SELECT id, item_id, quantity FROM stock_levels ORDER BY item_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	levels := make([]pos.StockLevel, 0)
	for rows.Next() {
		var l pos.StockLevel
		if err := rows.Scan(&l.ID, &l.ItemID, &l.Quantity); err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

func (c conn) AdjustStock(ctx context.Context, itemID string, delta int) (pos.StockLevel, error) {
	res, err := c.exec(ctx,
		`UPDATE stock_levels SET quantity = quantity + ? WHERE item_id = ? AND quantity + ? >= 0`,
		delta, itemID, delta)
	if err != nil {
		return pos.StockLevel{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return pos.StockLevel{}, err
	}

	level, err := c.GetStockLevel(ctx, itemID)
	if err != nil {
		return pos.StockLevel{}, err
	}
	if n == 0 {
		return pos.StockLevel{}, pos.ErrInsufficientStock
	}
	return level, nil
}

func (c conn) SetStock(ctx context.Context, itemID string, quantity int) (pos.StockLevel, error) {
	if err := c.execOne(ctx, pos.ErrStockNotFound,
		`UPDATE stock_levels SET quantity = ? WHERE item_id = ?`, quantity, itemID); err != nil {
		return pos.StockLevel{}, err
	}
	return c.GetStockLevel(ctx, itemID)
}

func (c conn) DeleteStockLevel(ctx context.Context, itemID string) error {
	_, err := c.exec(ctx, `DELETE FROM stock_levels WHERE item_id = ?`, itemID)
	return err
}

// =============================================================================
// DAILY SHEETS
// =============================================================================

func (c conn) CreateDailyStockIfAbsent(ctx context.Context, ds pos.DailyStock) (bool, error) {
	res, err := c.exec(ctx,
		`INSERT INTO daily_stock (id, item_id, day, opening, closing) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (item_id, day) DO NOTHING`,
		ds.ID, ds.ItemID, string(ds.Day), ds.Opening, nullInt(ds.Closing))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (c conn) GetDailyStock(ctx context.Context, itemID string, day pos.Day) (pos.DailyStock, error) {
	row := c.queryRow(ctx,
		`SELECT id, item_id, day, opening, closing FROM daily_stock WHERE item_id = ? AND day = ?`,
		itemID, string(day))
	ds, err := scanDaily(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pos.DailyStock{}, pos.ErrDailyNotFound
	}
	return ds, c.d.translate(err)
}

func (c conn) ListDailyStock(ctx context.Context, day pos.Day) ([]pos.DailyStock, error) {
	rows, err := c.query(ctx,
		`SELECT id, item_id, day, opening, closing FROM daily_stock WHERE day = ? ORDER BY item_id`,
		string(day))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sheets := make([]pos.DailyStock, 0)
	for rows.Next() {
		ds, err := scanDaily(rows)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, ds)
	}
	return sheets, rows.Err()
}

func (c conn) UpdateDailyStock(ctx context.Context, ds pos.DailyStock) error {
	return c.execOne(ctx, pos.ErrDailyNotFound,
		`UPDATE daily_stock SET opening = ?, closing = ? WHERE item_id = ? AND day = ?`,
		ds.Opening, nullInt(ds.Closing), ds.ItemID, string(ds.Day))
}

func (c conn) DeleteDailyStockForItem(ctx context.Context, itemID string) error {
	_, err := c.exec(ctx, `DELETE FROM daily_stock WHERE item_id = ?`, itemID)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDaily(s scanner) (pos.DailyStock, error) {
	var (
		ds      pos.DailyStock
		day     string
		closing sql.NullInt64
	)
	if err := s.Scan(&ds.ID, &ds.ItemID, &day, &ds.Opening, &closing); err != nil {
		return pos.DailyStock{}, err
	}
	ds.Day = pos.Day(day)
	if closing.Valid {
		v := int(closing.Int64)
		ds.Closing = &v
	}
	return ds, nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

// =============================================================================
// SALES
// =============================================================================

const saleColumns = `id, item_id, quantity, unit_price, sale_date`

func (c conn) CreateSale(ctx context.Context, sale pos.Sale) error {
	_, err := c.exec(ctx, `INSERT INTO sales (`+saleColumns+`) VALUES (?, ?, ?, ?, ?)`,
		sale.ID, sale.ItemID, sale.Quantity, sale.UnitPrice, nanos(sale.SaleDate))
	return err
}

func (c conn) GetSale(ctx context.Context, id string) (pos.Sale, error) {
	sale, err := scanSale(c.queryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return pos.Sale{}, pos.ErrSaleNotFound
	}
	return sale, c.d.translate(err)
}

func (c conn) ListSales(ctx context.Context, f pos.SaleFilter) ([]pos.Sale, error) {
	var (
		where []string
		args  []any
	)
	if f.ItemID != "" {
		where = append(where, "item_id = ?")
		args = append(args, f.ItemID)
	}
	if !f.From.IsZero() {
		where = append(where, "sale_date >= ?")
		args = append(args, nanos(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "sale_date < ?")
		args = append(args, nanos(f.To))
	}

	query := `SELECT ` + saleColumns + ` FROM sales`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY sale_date, id"

	rows, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]pos.Sale, 0)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func (c conn) UpdateSale(ctx context.Context, sale pos.Sale) error {
	return c.execOne(ctx, pos.ErrSaleNotFound,
		`UPDATE sales SET item_id = ?, quantity = ?, unit_price = ?, sale_date = ? WHERE id = ?`,
		sale.ItemID, sale.Quantity, sale.UnitPrice, nanos(sale.SaleDate), sale.ID)
}

func (c conn) DeleteSale(ctx context.Context, id string) error {
	return c.execOne(ctx, pos.ErrSaleNotFound, `DELETE FROM sales WHERE id = ?`, id)
}

func scanSale(s scanner) (pos.Sale, error) {
	var (
		sale  pos.Sale
		price decimal.Decimal
		at    int64
	)
	if err := s.Scan(&sale.ID, &sale.ItemID, &sale.Quantity, &price, &at); err != nil {
		return pos.Sale{}, err
	}
	sale.UnitPrice = price
	sale.SaleDate = fromNanos(at)
	return sale, nil
}

// =============================================================================
// SHORTAGES
// =============================================================================

func (c conn) CreateShortage(ctx context.Context, s pos.Shortage) error {
	_, err := c.exec(ctx,
		`INSERT INTO shortages (id, staff_name, amount, shortage_date) VALUES (?, ?, ?, ?)`,
		s.ID, s.StaffName, s.Amount, nanos(s.ShortageDate))
	return err
}

func (c conn) ListShortages(ctx context.Context, from, to time.Time) ([]pos.Shortage, error) {
	var (
		where []string
		args  []any
	)
	if !from.IsZero() {
		where = append(where, "shortage_date >= ?")
		args = append(args, nanos(from))
	}
	if !to.IsZero() {
		where = append(where, "shortage_date < ?")
		args = append(args, nanos(to))
	}

	query := `SELECT id, staff_name, amount, shortage_date FROM shortages`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY shortage_date DESC, id"

	rows, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pos.Shortage, 0)
	for rows.Next() {
		var (
			s  pos.Shortage
			at int64
		)
		if err := rows.Scan(&s.ID, &s.StaffName, &s.Amount, &at); err != nil {
			return nil, fmt.Errorf("scan shortage: %w", err)
		}
		s.ShortageDate = fromNanos(at)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c conn) DeleteShortage(ctx context.Context, id string) error {
	return c.execOne(ctx, pos.ErrShortageNotFound, `DELETE FROM shortages WHERE id = ?`, id)
}
