package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

// Tax is not computed yet; every order carries a zero tax line.
var taxRate = decimal.Zero

type OrderService struct {
	Repo     *repo.GormRepo
	Events   events.Publisher
	Currency string
}

// Checkout persists snap as a new order. Unit prices and names come from the
// snapshot, never from a fresh product read.
func (s *OrderService) Checkout(ctx context.Context, userID string, snap *Snapshot) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.checkout")

	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrLoginRequired
	}
	if snap.Empty() {
		return nil, ErrEmptyCart
	}

	tax := snap.Subtotal.Mul(taxRate).Round(2)
	order := &models.Order{
		UserID:   uid,
		Status:   models.OrderStatusNew,
		Subtotal: snap.Subtotal,
		Tax:      tax,
		Total:    snap.Subtotal.Add(tax),
		Currency: s.Currency,
		Items:    make([]models.OrderItem, 0, len(snap.Items)),
	}
	for _, line := range snap.Items {
		if line.Quantity <= 0 {
			continue
		}
		pid := line.ProductID
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   &pid,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
		})
	}

	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		l.Error("checkout_error", "status", 500, "reason", "cannot create order", "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicOrders, events.New(events.OrderCreated, order.ID.String(), map[string]any{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    formatMoney(order.Total),
		"currency": order.Currency,
		"items":    len(order.Items),
	}))
	l.Info("checkout_success", "order_id", order.ID, "items", len(order.Items))
	return order, nil
}

// GetOrder returns ErrNotFound for ids that are malformed, missing or owned by someone else.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, ErrNotFound
	}

	order, err := s.Repo.GetOrder(ctx, uid, oid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return order, err
}
