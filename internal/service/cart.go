package service

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/repo"
)

// Cart maps a product id to a quantity. Quantities are always positive.
type Cart map[string]int

// Count is the number of units in the cart, stale lines included.
func (c Cart) Count() int {
	n := 0
	for _, q := range c {
		if q > 0 {
			n += q
		}
	}
	return n
}

type CartLine struct {
	ProductID uuid.UUID
	Name      string
	ImageURL  string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

type Snapshot struct {
	Items    []CartLine
	Subtotal decimal.Decimal
	Count    int
}

func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Items) == 0
}

type CartService struct {
	Repo *repo.GormRepo
}

func parseProductID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, invalid("product_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalid("invalid product_id")
	}
	return id, nil
}

// Add increments the line. A missing, unparseable or non-positive quantity counts as 1.
func (s *CartService) Add(ctx context.Context, cart Cart, productID, rawQty string) error {
	id, err := parseProductID(productID)
	if err != nil {
		return err
	}

	found, err := s.Repo.ProductsByIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return err
	}
	if len(found) == 0 || !found[0].IsActive {
		return invalid("product not found")
	}

	qty, err := strconv.Atoi(strings.TrimSpace(rawQty))
	if err != nil || qty <= 0 {
		qty = 1
	}
	cart[id.String()] += qty
	return nil
}

// Update overwrites the line; zero or less removes it.
func (s *CartService) Update(cart Cart, productID, rawQty string) error {
	id, err := parseProductID(productID)
	if err != nil {
		return err
	}
	qty, err := strconv.Atoi(strings.TrimSpace(rawQty))
	if err != nil {
		return invalid("quantity must be a whole number")
	}

	if qty <= 0 {
		delete(cart, id.String())
		return nil
	}
	cart[id.String()] = qty
	return nil
}

func (s *CartService) Remove(cart Cart, productID string) error {
	id, err := parseProductID(productID)
	if err != nil {
		return err
	}
	delete(cart, id.String())
	return nil
}

// Snapshot prices the cart against current catalog rows. Lines whose product
// was deleted or deactivated are left out without error.
func (s *CartService) Snapshot(ctx context.Context, cart Cart) (*Snapshot, error) {
	snap := &Snapshot{Subtotal: decimal.Zero}

	ids := make([]uuid.UUID, 0, len(cart))
	for key, qty := range cart {
		if qty <= 0 {
			continue
		}
		id, err := uuid.Parse(key)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return snap, nil
	}

	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range products {
		p := &products[i]
		if !p.IsActive {
			continue
		}
		qty := cart[p.ID.String()]
		unit := p.UnitPrice()
		line := CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			ImageURL:  p.ImageURL,
			Quantity:  qty,
			UnitPrice: unit,
			LineTotal: unit.Mul(decimal.NewFromInt(int64(qty))),
		}
		snap.Items = append(snap.Items, line)
		snap.Subtotal = snap.Subtotal.Add(line.LineTotal)
		snap.Count += qty
	}

	sort.Slice(snap.Items, func(i, j int) bool {
		a, b := snap.Items[i], snap.Items[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ProductID.String() < b.ProductID.String()
	})
	return snap, nil
}
