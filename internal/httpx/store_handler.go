package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ariefcatur/go-pack-store/internal/checkout"
	"github.com/ariefcatur/go-pack-store/internal/payment"
	"github.com/ariefcatur/go-pack-store/internal/redisx"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

type StoreHandler struct {
	Svc      *checkout.Service
	Payments payment.Provider // webhook verification; nil disables the webhook
	Dedup    redisx.Deduper   // optional, drops provider retries of one event
	Log      *zap.Logger
}

type createPaymentIntentReq struct {
	Email  string   `json:"email" validate:"required,email"`
	Name   string   `json:"name" validate:"max=200"`
	Items  []string `json:"items" validate:"required,min=1,dive,required"`
	Amount int64    `json:"amount" validate:"gte=0"`
}

type createOrderReq struct {
	Email           string              `json:"email" validate:"required,email"`
	Name            string              `json:"name" validate:"max=200"`
	Selections      map[string][]string `json:"selections" validate:"required,min=1,dive,keys,required,endkeys,min=1,dive,required"`
	PaymentIntentID string              `json:"paymentIntentId" validate:"omitempty,max=255"`
}

type createOrderResp struct {
	PurchaseID  string `json:"purchaseId"`
	OrderNumber string `json:"orderNumber"`
	Status      string `json:"status"`
}

func (h *StoreHandler) Register(r chi.Router) {
	r.Get("/categories", h.categories)
	r.Get("/products", h.products)
	r.Post("/create-payment-intent", h.createPaymentIntent)
	r.Post("/create-order", h.createOrder)
	r.Post("/generate-pack/{purchaseId}", h.generatePack)
	r.Get("/pack-status/{purchaseId}", h.packStatus)
	r.Get("/download/{ref}", h.download)
	r.Post("/webhooks/stripe", h.stripeWebhook)
}

func (h *StoreHandler) categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	cats, err := h.Svc.Categories(ctx)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

func (h *StoreHandler) products(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	v, err := h.Svc.Products(ctx, r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *StoreHandler) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req createPaymentIntentReq
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	v, err := h.Svc.CreatePaymentIntent(ctx, checkout.PaymentIntentInput{
		Email:       req.Email,
		Name:        req.Name,
		Items:       req.Items,
		AmountCents: req.Amount,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *StoreHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.Svc.CreateOrder(ctx, checkout.CreateOrderInput{
		Email:           req.Email,
		Name:            req.Name,
		Selections:      req.Selections,
		PaymentIntentID: req.PaymentIntentID,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, createOrderResp{PurchaseID: o.ID, OrderNumber: o.OrderNumber, Status: string(o.Status)})
}

func (h *StoreHandler) generatePack(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	v, err := h.Svc.GeneratePack(ctx, chi.URLParam(r, "purchaseId"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, v)
}

func (h *StoreHandler) packStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	v, err := h.Svc.Status(ctx, chi.URLParam(r, "purchaseId"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *StoreHandler) download(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	url, err := h.Svc.ResolveDownload(ctx, chi.URLParam(r, "ref"))
	switch {
	case errors.Is(err, checkout.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Pack introuvable", Message: "unknown download reference"})
	case errors.Is(err, checkout.ErrExpired):
		writeJSON(w, http.StatusGone, errorBody{Error: "Le lien a expiré", Message: "this pack is no longer available"})
	case err != nil:
		writeError(w, h.Log, err)
	default:
		http.Redirect(w, r, url, http.StatusFound)
	}
}

func (h *StoreHandler) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.Payments == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "webhook disabled"})
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		badRequest(w, "unreadable body")
		return
	}
	ev, err := h.Payments.ParseWebhook(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.Log.Warn("webhook rejected", zap.Error(err))
		badRequest(w, "invalid signature")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if h.Dedup != nil {
		seen, err := h.Dedup.Seen(ctx, ev.ID)
		if err != nil {
			h.Log.Warn("webhook dedup unavailable", zap.Error(err))
		} else if seen {
			writeJSON(w, http.StatusOK, map[string]bool{"received": true})
			return
		}
	}
	if err := h.Svc.HandlePaymentEvent(ctx, ev); err != nil {
		if h.Dedup != nil {
			_ = h.Dedup.Forget(ctx, ev.ID)
		}
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
