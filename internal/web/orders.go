// ABOUTME: Checkout handler recording the browser cart as an order
// ABOUTME: Totals are recomputed server-side from the catalog prices

package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/floreria/margarita/internal/session"
	"github.com/floreria/margarita/internal/store"
)

// cartItem is one line of the submitted cart.
type cartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// checkoutRequest is the JSON body cart.js submits.
type checkoutRequest struct {
	CustomerName string     `json:"customer_name"`
	Items        []cartItem `json:"items"`
}

// handleCheckout records the cart as an order. Guests can check out;
// logged-in customers get the order attached to their account.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid cart payload")
		return
	}
	if len(req.Items) == 0 {
		writeJSONError(w, http.StatusBadRequest, "cart is empty")
		return
	}

	// Prices come from the catalog, never from the client.
	var total float64
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid quantity")
			return
		}
		p, err := s.store.GetProduct(r.Context(), item.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeJSONError(w, http.StatusBadRequest, "unknown product in cart")
				return
			}
			s.logger.Error("failed to load product", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "internal error")
			return
		}
		total += p.Price * float64(item.Quantity)
	}

	order := &store.Order{
		ID:           uuid.NewString(),
		CustomerName: strings.TrimSpace(req.CustomerName),
		Total:        total,
		CreatedAt:    time.Now().UTC(),
	}

	if acct, err := s.sessions.Current(r.Context(), r); err == nil {
		order.AccountID = acct.ID
		if order.CustomerName == "" {
			order.CustomerName = acct.Name
		}
	} else if !errors.Is(err, session.ErrNoSession) {
		s.logger.Error("failed to resolve session", "error", err)
	}

	itemsJSON, err := json.Marshal(req.Items)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid cart payload")
		return
	}
	order.ItemsJSON = string(itemsJSON)

	if err := s.store.CreateOrder(r.Context(), order); err != nil {
		s.logger.Error("failed to create order", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"order":  order.ID,
		"total":  order.Total,
	})
}
