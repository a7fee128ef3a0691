package pos

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATALOG
// =============================================================================

// CreateItem adds an item and its stock counter in one transaction.
func (c *Coordinator) CreateItem(ctx context.Context, name string, unitPrice decimal.Decimal, initialQuantity int) (Item, StockLevel, error) {
	name = strings.TrimSpace(name)
	if err := validateItem(name, unitPrice); err != nil {
		return Item{}, StockLevel{}, err
	}
	if initialQuantity < 0 {
		return Item{}, StockLevel{}, validation("quantity", "cannot be negative, got %d", initialQuantity)
	}

	item := Item{ID: c.newID(), Name: name, UnitPrice: unitPrice}
	level := StockLevel{ID: c.newID(), ItemID: item.ID, Quantity: initialQuantity}
	err := c.commit(ctx, "create item", func(tx Store, cs *changeSet) error {
		if err := tx.CreateItem(ctx, item); err != nil {
			return err
		}
		if err := tx.CreateStockLevel(ctx, level); err != nil {
			return err
		}
		cs.add(CollectionItems, OpCreate, item.ID)
		cs.add(CollectionStock, OpCreate, level.ID)
		return nil
	})
	if err != nil {
		return Item{}, StockLevel{}, err
	}

	c.logger.Info("item created", "item_id", item.ID, "name", item.Name)
	return item, level, nil
}

// UpdateItem renames or reprices an item. Existing sales keep the price
// they were recorded at.
func (c *Coordinator) UpdateItem(ctx context.Context, id, name string, unitPrice decimal.Decimal) (Item, error) {
	name = strings.TrimSpace(name)
	if err := validateItem(name, unitPrice); err != nil {
		return Item{}, err
	}

	var item Item
	err := c.commit(ctx, "update item", func(tx Store, cs *changeSet) error {
		var err error
		if item, err = tx.GetItem(ctx, id); err != nil {
			return err
		}
		item.Name = name
		item.UnitPrice = unitPrice
		if err := tx.UpdateItem(ctx, item); err != nil {
			return err
		}
		cs.add(CollectionItems, OpUpdate, item.ID)
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	return item, nil
}

// DeleteItem removes an item with its stock counter and daily sheets.
// Its sales stay in the log and report as "Unknown".
func (c *Coordinator) DeleteItem(ctx context.Context, id string) error {
	err := c.commit(ctx, "delete item", func(tx Store, cs *changeSet) error {
		level, err := tx.GetStockLevel(ctx, id)
		hasLevel := err == nil
		if err != nil && !errors.Is(err, ErrStockNotFound) {
			return err
		}

		if err := tx.DeleteItem(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteStockLevel(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteDailyStockForItem(ctx, id); err != nil {
			return err
		}

		cs.add(CollectionItems, OpDelete, id)
		if hasLevel {
			cs.add(CollectionStock, OpDelete, level.ID)
		}
		cs.add(CollectionDailyStock, OpDelete, id)
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info("item deleted", "item_id", id)
	return nil
}

func (c *Coordinator) GetItem(ctx context.Context, id string) (Item, error) {
	item, err := c.store.GetItem(ctx, id)
	return item, storeErr("get item", err)
}

func (c *Coordinator) ListItems(ctx context.Context) ([]Item, error) {
	items, err := c.store.ListItems(ctx)
	return items, storeErr("list items", err)
}

func validateItem(name string, unitPrice decimal.Decimal) error {
	if name == "" {
		return validation("name", "is required")
	}
	if !unitPrice.IsPositive() {
		return validation("unitPrice", "must be greater than zero, got %s", unitPrice)
	}
	return nil
}
