// ============================================================================
// backend/internal/gateway/handlers/finance_handler.go
// HTTP handlers for fee payments and balances
// ============================================================================

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolhub/backend/internal/finance"
	"schoolhub/backend/internal/gateway/util"
)

// FinanceHandler exposes the finance service over REST.
type FinanceHandler struct {
	Finance *finance.Service
}

// SetChargesRequest mirrors the JSON input for PUT /finance/charges/{student_id}
type SetChargesRequest struct {
	Charged float64 `json:"charged"`
}

// RecordPayment handles POST /finance/payments
func (h *FinanceHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	// 1. Authenticated actor
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	// 2. Decode body
	var req finance.RecordPaymentInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// 3. Call the finance service
	payment, err := h.Finance.RecordPayment(r.Context(), actor, req)
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}

	// 4. Respond
	util.WriteJSON(w, http.StatusCreated, payment)
}

// SetCharges handles PUT /finance/charges/{student_id}
func (h *FinanceHandler) SetCharges(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req SetChargesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Finance.SetCharges(r.Context(), actor, chi.URLParam(r, "student_id"), req.Charged); err != nil {
		util.HandleDomainError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": "charges updated"})
}

// GetBalance handles GET /finance/balance/{student_id}
func (h *FinanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	balance, err := h.Finance.GetBalance(r.Context(), actor, chi.URLParam(r, "student_id"))
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"balance":     balance,
		"outstanding": balance.Outstanding(),
	})
}

// ListPayments handles GET /finance/payments/{student_id}
func (h *FinanceHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	payments, err := h.Finance.ListPayments(r.Context(), actor, chi.URLParam(r, "student_id"))
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"payments": payments})
}
