package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/db/dbtest"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	return &repo.GormRepo{DB: dbtest.New(t)}
}

func seedProduct(t *testing.T, r *repo.GormRepo, name, price string, mutate ...func(*models.Product)) *models.Product {
	t.Helper()

	p := &models.Product{
		Name:     name,
		Slug:     Slugify(name),
		Price:    decimal.RequireFromString(price),
		IsActive: true,
	}
	for _, m := range mutate {
		m(p)
	}
	require.NoError(t, r.CreateProduct(context.Background(), p, ""))
	return p
}

func seedUser(t *testing.T, r *repo.GormRepo, email string) *models.User {
	t.Helper()

	u := &models.User{Email: email, PasswordHash: "x", FullName: "Test User", IsActive: true}
	require.NoError(t, r.CreateUser(context.Background(), u, false))
	return u
}
