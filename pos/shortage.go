package pos

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// LogShortage records a cash deficit against a staff member. The name
// must match the roster case-insensitively and is stored with the
// roster's spelling. An empty roster accepts any non-empty name.
func (c *Coordinator) LogShortage(ctx context.Context, staffName string, amount decimal.Decimal) (Shortage, error) {
	name, err := c.staffMember(staffName)
	if err != nil {
		return Shortage{}, err
	}
	if !amount.IsPositive() {
		return Shortage{}, validation("amount", "must be greater than zero, got %s", amount)
	}

	var s Shortage
	err = c.commit(ctx, "log shortage", func(tx Store, cs *changeSet) error {
		s = Shortage{ID: c.newID(), StaffName: name, Amount: amount, ShortageDate: c.now().UTC()}
		if err := tx.CreateShortage(ctx, s); err != nil {
			return err
		}
		cs.add(CollectionShortages, OpCreate, s.ID)
		return nil
	})
	if err != nil {
		return Shortage{}, err
	}

	c.logger.Info("shortage logged", "shortage_id", s.ID, "staff", s.StaffName, "amount", s.Amount.String())
	return s, nil
}

// ListShortages returns the day's shortages newest first, or every
// shortage when day is nil.
func (c *Coordinator) ListShortages(ctx context.Context, day *Day) ([]Shortage, error) {
	f := c.filterFor(day)
	out, err := c.store.ListShortages(ctx, f.From, f.To)
	return out, storeErr("list shortages", err)
}

func (c *Coordinator) DeleteShortage(ctx context.Context, id string) error {
	return c.commit(ctx, "delete shortage", func(tx Store, cs *changeSet) error {
		if err := tx.DeleteShortage(ctx, id); err != nil {
			return err
		}
		cs.add(CollectionShortages, OpDelete, id)
		return nil
	})
}

// Roster returns the configured staff names.
func (c *Coordinator) Roster() []string {
	return append([]string(nil), c.roster...)
}

func (c *Coordinator) staffMember(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validation("staffName", "is required")
	}
	if len(c.roster) == 0 {
		return name, nil
	}
	for _, member := range c.roster {
		if strings.EqualFold(member, name) {
			return member, nil
		}
	}
	return "", validation("staffName", "%q is not on the staff roster", name)
}
