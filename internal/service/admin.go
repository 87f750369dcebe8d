package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/util"
)

const recentOrdersOnDashboard = 5

type AdminService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Search search.Index
}

// ProductForm holds the submitted admin form exactly as typed so it can be
// rendered back on a validation error.
type ProductForm struct {
	Name        string
	Description string
	Price       string
	OfferPrice  string
	ImageURL    string
	Category    string
	IsOnOffer   bool
	IsActive    bool
}

func ProductFormFrom(row *repo.ProductRow) ProductForm {
	f := ProductForm{
		Name:        row.Name,
		Description: row.Description,
		Price:       row.Price.StringFixed(2),
		ImageURL:    row.ImageURL,
		IsOnOffer:   row.IsOnOffer,
		IsActive:    row.IsActive,
	}
	if row.OfferPrice.Valid {
		f.OfferPrice = row.OfferPrice.Decimal.StringFixed(2)
	}
	if row.CategoryName != nil {
		f.Category = *row.CategoryName
	}
	return f
}

func parseMoney(raw, field string, required bool) (decimal.NullDecimal, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		if required {
			return decimal.NullDecimal{}, invalid(field + " is required")
		}
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, invalid(field + " must be a number")
	}
	if d.IsNegative() {
		return decimal.NullDecimal{}, invalid(field + " must not be negative")
	}
	return decimal.NewNullDecimal(d.Round(2)), nil
}

// apply validates f and copies it onto p.
func (f ProductForm) apply(p *models.Product) error {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return invalid("name is required")
	}
	price, err := parseMoney(f.Price, "price", true)
	if err != nil {
		return err
	}
	offer, err := parseMoney(f.OfferPrice, "offer price", false)
	if err != nil {
		return err
	}

	p.Name = name
	p.Slug = Slugify(name)
	p.Description = strings.TrimSpace(f.Description)
	p.Price = price.Decimal
	p.OfferPrice = offer
	p.ImageURL = strings.TrimSpace(f.ImageURL)
	p.IsOnOffer = f.IsOnOffer
	p.IsActive = f.IsActive
	return nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, ErrNotFound
	}
	return id, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *AdminService) ListProducts(ctx context.Context, page, size int) (util.Page, []ProductView, error) {
	offset, limit := util.Calculate(page, size)
	total, rows, err := s.Repo.ListAllProducts(ctx, offset, limit)
	if err != nil {
		return util.Page{}, nil, err
	}
	views := make([]ProductView, 0, len(rows))
	for i := range rows {
		views = append(views, NewProductView(&rows[i]))
	}
	return util.NewPage(page, size, total), views, nil
}

func (s *AdminService) GetProduct(ctx context.Context, id string) (*repo.ProductRow, error) {
	pid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	row, err := s.Repo.GetProduct(ctx, pid)
	if err != nil {
		return nil, notFound(err)
	}
	return row, nil
}

func (s *AdminService) CreateProduct(ctx context.Context, form ProductForm) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "admin.create_product")

	var p models.Product
	if err := form.apply(&p); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateProduct(ctx, &p, form.Category); err != nil {
		l.Error("product_create_error", "status", 500, "error", err)
		return nil, err
	}

	s.indexProduct(ctx, &p, form.Category)
	publish(ctx, s.Events, events.TopicProducts, events.New(events.ProductCreated, p.ID.String(), productPayload(&p)))
	return &p, nil
}

func (s *AdminService) UpdateProduct(ctx context.Context, id string, form ProductForm) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "admin.update_product")

	row, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	p := row.Product
	if err := form.apply(&p); err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateProduct(ctx, &p, form.Category); err != nil {
		l.Error("product_update_error", "status", 500, "product_id", p.ID, "error", err)
		return nil, notFound(err)
	}

	s.indexProduct(ctx, &p, form.Category)
	publish(ctx, s.Events, events.TopicProducts, events.New(events.ProductUpdated, p.ID.String(), productPayload(&p)))
	return &p, nil
}

func (s *AdminService) DeleteProduct(ctx context.Context, id string) error {
	pid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteProduct(ctx, pid); err != nil {
		return notFound(err)
	}

	if s.Search != nil {
		if err := s.Search.DeleteProduct(ctx, pid); err != nil {
			logging.FromContext(ctx).Warn("search_delete_failed", "product_id", pid, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProducts, events.New(events.ProductDeleted, pid.String(), map[string]any{"product_id": pid}))
	return nil
}

func (s *AdminService) indexProduct(ctx context.Context, p *models.Product, category string) {
	if s.Search == nil {
		return
	}
	doc := search.Document{
		ID:          p.ID,
		Name:        p.Name,
		Description: StripQuantityPrefix(p.Description),
		Category:    strings.TrimSpace(category),
		Price:       formatMoney(p.UnitPrice()),
		IsActive:    p.IsActive,
	}
	if err := s.Search.IndexProduct(ctx, doc); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "product_id", p.ID, "error", err)
	}
}

func productPayload(p *models.Product) map[string]any {
	return map[string]any{
		"product_id": p.ID,
		"name":       p.Name,
		"price":      formatMoney(p.Price),
		"is_active":  p.IsActive,
	}
}

type UserForm struct {
	Email    string
	Password string
	FullName string
	IsActive bool
	IsAdmin  bool
}

type UserDetail struct {
	models.User
	IsAdmin bool
}

func UserFormFrom(u *UserDetail) UserForm {
	return UserForm{
		Email:    u.Email,
		FullName: u.FullName,
		IsActive: u.IsActive,
		IsAdmin:  u.IsAdmin,
	}
}

func (f UserForm) validate(creating bool) (string, error) {
	email := NormalizeEmail(f.Email)
	if email == "" {
		return "", invalid("email is required")
	}
	if !validEmail(email) {
		return "", invalid(msgInvalidEmail)
	}
	if creating && f.Password == "" {
		return "", invalid("password is required")
	}
	if creating && strings.TrimSpace(f.FullName) == "" {
		return "", invalid("full name is required")
	}
	if f.Password != "" && len(f.Password) < MinPasswordLength {
		return "", invalid(msgShortPassword)
	}
	return email, nil
}

func (s *AdminService) ListUsers(ctx context.Context, page, size int) (util.Page, []repo.UserRow, error) {
	offset, limit := util.Calculate(page, size)
	total, rows, err := s.Repo.ListUsers(ctx, offset, limit)
	if err != nil {
		return util.Page{}, nil, err
	}
	return util.NewPage(page, size, total), rows, nil
}

func (s *AdminService) GetUser(ctx context.Context, id string) (*UserDetail, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	user, err := s.Repo.GetUser(ctx, uid)
	if err != nil {
		return nil, notFound(err)
	}
	admin, err := s.Repo.IsAdmin(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &UserDetail{User: *user, IsAdmin: admin}, nil
}

func (s *AdminService) CreateUser(ctx context.Context, form UserForm) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "admin.create_user")

	email, err := form.validate(true)
	if err != nil {
		return nil, err
	}
	taken, err := s.Repo.EmailTaken(ctx, email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflict(msgEmailExists)
	}

	pwHash, err := hash.HashPassword(form.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        email,
		PasswordHash: pwHash,
		FullName:     strings.TrimSpace(form.FullName),
		IsActive:     form.IsActive,
	}
	if err := s.Repo.CreateUser(ctx, user, form.IsAdmin); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, conflict(msgEmailExists)
		}
		l.Error("user_create_error", "status", 500, "error", err)
		return nil, err
	}
	return user, nil
}

// UpdateUser keeps the current password when form.Password is blank.
func (s *AdminService) UpdateUser(ctx context.Context, id string, form UserForm) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "admin.update_user")

	detail, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	email, err := form.validate(false)
	if err != nil {
		return nil, err
	}
	taken, err := s.Repo.EmailTaken(ctx, email, detail.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflict(msgEmailExists)
	}

	user := detail.User
	user.Email = email
	user.FullName = strings.TrimSpace(form.FullName)
	user.IsActive = form.IsActive
	if form.Password != "" {
		if user.PasswordHash, err = hash.HashPassword(form.Password); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.UpdateUser(ctx, &user, form.IsAdmin); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, conflict(msgEmailExists)
		}
		l.Error("user_update_error", "status", 500, "user_id", user.ID, "error", err)
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	err = s.Repo.DeleteUser(ctx, uid)
	if errors.Is(err, repo.ErrUserHasOrders) {
		return conflict("user has orders and cannot be deleted")
	}
	return notFound(err)
}

type Dashboard struct {
	Products       int64
	ActiveProducts int64
	Users          int64
	Orders         int64
	RecentOrders   []models.Order
}

func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	var err error

	if d.Products, d.ActiveProducts, err = s.Repo.CountProducts(ctx); err != nil {
		return nil, err
	}
	if d.Users, err = s.Repo.CountUsers(ctx); err != nil {
		return nil, err
	}
	if d.Orders, err = s.Repo.CountOrders(ctx); err != nil {
		return nil, err
	}
	if d.RecentOrders, err = s.Repo.RecentOrders(ctx, recentOrdersOnDashboard); err != nil {
		return nil, err
	}
	return &d, nil
}
