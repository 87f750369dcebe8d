package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
)

func TestOrderService_CheckoutPreconditions(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	p := seedProduct(t, r, "Mug", "4.50")
	user := seedUser(t, r, "buyer@shop.co")
	svc := &OrderService{Repo: r, Currency: "EUR"}

	snap, err := (&CartService{Repo: r}).Snapshot(ctx, Cart{p.ID.String(): 1})
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, "", snap)
	assert.ErrorIs(t, err, ErrLoginRequired)

	_, err = svc.Checkout(ctx, user.ID.String(), &Snapshot{})
	assert.ErrorIs(t, err, ErrEmptyCart)
	_, err = svc.Checkout(ctx, user.ID.String(), nil)
	assert.ErrorIs(t, err, ErrEmptyCart)

	n, err := r.CountOrders(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOrderService_CheckoutFreezesPrices(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	p := seedProduct(t, r, "Mug", "4.50")
	user := seedUser(t, r, "buyer@shop.co")
	pub := &recordingPublisher{}
	svc := &OrderService{Repo: r, Events: pub, Currency: "EUR"}

	snap, err := (&CartService{Repo: r}).Snapshot(ctx, Cart{p.ID.String(): 2})
	require.NoError(t, err)

	p.Price = decimal.RequireFromString("99.00")
	p.Name = "Renamed mug"
	require.NoError(t, r.UpdateProduct(ctx, p, ""))

	order, err := svc.Checkout(ctx, user.ID.String(), snap)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusNew, order.Status)
	assert.Equal(t, "EUR", order.Currency)
	assert.True(t, order.Tax.IsZero())
	assert.Equal(t, "9.00", order.Total.StringFixed(2))

	got, err := svc.GetOrder(ctx, user.ID.String(), order.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "4.50", got.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "9.00", got.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, "Mug", got.Items[0].ProductName)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, []string{events.OrderCreated}, pub.types())
}

func TestOrderService_GetOrderOwnership(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	p := seedProduct(t, r, "Mug", "4.50")
	owner := seedUser(t, r, "owner@shop.co")
	svc := &OrderService{Repo: r, Currency: "EUR"}

	snap, err := (&CartService{Repo: r}).Snapshot(ctx, Cart{p.ID.String(): 1})
	require.NoError(t, err)
	order, err := svc.Checkout(ctx, owner.ID.String(), snap)
	require.NoError(t, err)

	_, err = svc.GetOrder(ctx, uuid.NewString(), order.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetOrder(ctx, owner.ID.String(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
