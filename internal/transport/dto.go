package transport

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/service"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// QuantityInput accepts a JSON number or string and keeps the raw text;
// the cart rules decide what an unparseable value means.
type QuantityInput string

func (q *QuantityInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*q = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*q = QuantityInput(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("quantity must be a number or a string: %w", err)
	}
	*q = QuantityInput(n.String())
	return nil
}

type CartRequest struct {
	ProductID string        `json:"product_id" form:"product_id"`
	Quantity  QuantityInput `json:"quantity"   form:"quantity"`
}

type CartItemResponse struct {
	ProductID uuid.UUID   `json:"product_id"`
	Name      string      `json:"name"`
	Quantity  int         `json:"quantity"`
	UnitPrice json.Number `json:"unit_price"`
	LineTotal json.Number `json:"line_total"`
}

type CartResponse struct {
	Status    string             `json:"status"`
	CartCount int                `json:"cart_count"`
	Subtotal  json.Number        `json:"subtotal"`
	Items     []CartItemResponse `json:"items"`
}

func NewCartResponse(snap *service.Snapshot) CartResponse {
	resp := CartResponse{
		Status:   StatusOK,
		Subtotal: json.Number(snap.Subtotal.StringFixed(2)),
		Items:    make([]CartItemResponse, 0, len(snap.Items)),
	}
	for _, it := range snap.Items {
		resp.CartCount += it.Quantity
		resp.Items = append(resp.Items, CartItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: json.Number(it.UnitPrice.StringFixed(2)),
			LineTotal: json.Number(it.LineTotal.StringFixed(2)),
		})
	}
	return resp
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func Error(msg string) ErrorResponse {
	return ErrorResponse{Status: StatusError, Message: msg}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Result  int    `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}
