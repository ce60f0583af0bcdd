package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"smart-international-shipping/internal/domain"
	"smart-international-shipping/internal/lifecycle"
)

type Orders struct {
	Svc *lifecycle.Service
	Log zerolog.Logger
}

type submitOrderReq struct {
	GroupOrderID string `json:"groupOrder_id"`
	Name         string `json:"name"`
	Weight       int    `json:"weight"`
	Price        int    `json:"price"`
}

type editOrderReq struct {
	Name   *string `json:"name"`
	Weight *int    `json:"weight"`
	Price  *int    `json:"price"`
}

func (h *Orders) Submit(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req submitOrderReq
	if !decode(w, r, &req) {
		return
	}
	if req.GroupOrderID == "" {
		WriteError(w, r, h.Log, domain.ErrValidation("groupOrder_id", "is required"))
		return
	}
	o, err := h.Svc.SubmitOrder(r.Context(), p.UserID, req.GroupOrderID, lifecycle.OrderInput{
		Name:   req.Name,
		Weight: req.Weight,
		Price:  req.Price,
	})
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusCreated, o)
}

func (h *Orders) Edit(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req editOrderReq
	if !decode(w, r, &req) {
		return
	}
	o, err := h.Svc.EditOrder(r.Context(), p.UserID, chi.URLParam(r, "id"), domain.OrderPatch{
		Name:   req.Name,
		Weight: req.Weight,
		Price:  req.Price,
	})
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusOK, o)
}

func (h *Orders) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Svc.ApproveOrder)
}

func (h *Orders) Cancel(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Svc.CancelOrder)
}

func (h *Orders) decide(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actorID, orderID string) (*domain.Order, error)) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	o, err := fn(r.Context(), p.UserID, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusOK, o)
}
