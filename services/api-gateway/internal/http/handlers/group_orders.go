package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"smart-international-shipping/internal/domain"
	"smart-international-shipping/internal/lifecycle"
)

type GroupOrders struct {
	Svc *lifecycle.Service
	Log zerolog.Logger
}

type createGroupReq struct {
	Name     string     `json:"name"`
	Country  string     `json:"country"`
	Deadline *time.Time `json:"deadline"`
}

type updateGroupReq struct {
	Name     *string             `json:"name"`
	Country  *string             `json:"country"`
	Deadline *time.Time          `json:"deadline"`
	Status   *domain.GroupStatus `json:"status"`
}

type inviteReq struct {
	UserEmail string `json:"userEmail"`
}

type detailResp struct {
	GroupOrder      *domain.GroupOrderDetail `json:"GroupOrder"`
	OrderStatusList []domain.StatusOption    `json:"OrderStatusList"`
}

type notificationResp struct {
	Notification *domain.Notification `json:"notification"`
}

func (h *GroupOrders) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	l, err := h.Svc.List(r.Context(), p)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusOK, l)
}

func (h *GroupOrders) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req createGroupReq
	if !decode(w, r, &req) {
		return
	}
	g, err := h.Svc.Create(r.Context(), p.UserID, lifecycle.CreateInput{
		Name:     req.Name,
		Country:  req.Country,
		Deadline: req.Deadline,
	})
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusCreated, g)
}

func (h *GroupOrders) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	d, err := h.Svc.Detail(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusOK, detailResp{GroupOrder: d, OrderStatusList: domain.OrderStatusList()})
}

func (h *GroupOrders) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req updateGroupReq
	if !decode(w, r, &req) {
		return
	}
	g, err := h.Svc.Update(r.Context(), p.UserID, chi.URLParam(r, "id"), domain.GroupOrderPatch{
		Name:     req.Name,
		Country:  req.Country,
		Deadline: req.Deadline,
		Status:   req.Status,
	})
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusOK, g)
}

func (h *GroupOrders) Disband(w http.ResponseWriter, r *http.Request) {
	h.groupAction(w, r, func(p domain.Principal, id string) (*domain.GroupOrder, error) {
		return h.Svc.Disband(r.Context(), p.UserID, id)
	})
}

func (h *GroupOrders) Invite(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req inviteReq
	if !decode(w, r, &req) {
		return
	}
	n, err := h.Svc.Invite(r.Context(), p.UserID, chi.URLParam(r, "id"), req.UserEmail)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusCreated, notificationResp{Notification: n})
}

func (h *GroupOrders) Join(w http.ResponseWriter, r *http.Request) {
	h.groupAction(w, r, func(p domain.Principal, id string) (*domain.GroupOrder, error) {
		return h.Svc.AddMember(r.Context(), p.UserID, id)
	})
}

func (h *GroupOrders) RemoveMember(w http.ResponseWriter, r *http.Request) {
	h.groupAction(w, r, func(p domain.Principal, id string) (*domain.GroupOrder, error) {
		return h.Svc.RemoveMember(r.Context(), p.UserID, id, chi.URLParam(r, "memberId"))
	})
}

func (h *GroupOrders) Accept(w http.ResponseWriter, r *http.Request) {
	h.groupAction(w, r, func(p domain.Principal, id string) (*domain.GroupOrder, error) {
		return h.Svc.AcceptShipment(r.Context(), p, id)
	})
}

func (h *GroupOrders) Complete(w http.ResponseWriter, r *http.Request) {
	h.groupAction(w, r, func(p domain.Principal, id string) (*domain.GroupOrder, error) {
		return h.Svc.CompleteShipment(r.Context(), p, id)
	})
}

// groupAction covers the body-less mutations addressed by {id}.
func (h *GroupOrders) groupAction(w http.ResponseWriter, r *http.Request, fn func(domain.Principal, string) (*domain.GroupOrder, error)) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	g, err := fn(p, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusOK, g)
}
