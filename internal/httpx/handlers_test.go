package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ariefcatur/go-pack-store/internal/checkout"
	"github.com/ariefcatur/go-pack-store/internal/checkout/checkouttest"
	"github.com/ariefcatur/go-pack-store/internal/orders"
	"github.com/ariefcatur/go-pack-store/internal/pack"
	"github.com/ariefcatur/go-pack-store/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const adminToken = "s3cret"

type harness struct {
	router   *chi.Mux
	kit      *checkouttest.Kit
	store    *storage.Memory
	payments *checkouttest.Payments
	now      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		kit:      checkouttest.New(),
		store:    storage.NewMemory("packs"),
		payments: checkouttest.NewPayments(),
		now:      time.Now().UTC(),
	}
	svc := &checkout.Service{
		Orders:    h.kit.Orders,
		Packs:     h.kit.Packs,
		Catalog:   h.kit.Catalog,
		Store:     h.store,
		Assembler: pack.New(h.store, time.Minute, zap.NewNop()),
		Payments:  h.payments,
		Notifier:  &checkouttest.Notifier{},
		Cfg:       checkout.Config{Currency: "eur", PackExpiry: 48 * time.Hour, DownloadURLTTL: time.Minute, PublicBaseURL: "http://shop.test"},
		Log:       zap.NewNop(),
		Now:       func() time.Time { return h.now },
	}
	svc.Dispatcher = &checkouttest.SyncDispatcher{Build: svc.Build}

	h.kit.Seed(orders.Product{ID: "temp1", Name: "Landing", Category: orders.CategoryTemplates, StorageKey: "templates/temp1.zip", SizeBytes: 10 << 20, PriceCents: 500, Active: true})
	_, err := h.store.Put(context.Background(), "templates/temp1.zip", []byte("template bytes"), "application/zip")
	require.NoError(t, err)

	h.router = NewRouter("*")
	(&StoreHandler{Svc: svc, Payments: h.payments, Dedup: &checkouttest.Dedup{}, Log: zap.NewNop()}).Register(h.router)
	(&AdminHandler{Svc: svc, Token: adminToken, Log: zap.NewNop()}).Register(h.router)
	return h
}

func (h *harness) do(t *testing.T, method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestCategories(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/categories", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Categories []checkout.CategoryView `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Categories)
	assert.Equal(t, "templates", body.Categories[0].ID)
	require.Len(t, body.Categories[0].Files, 1)
	assert.Equal(t, "10.00 MB", body.Categories[0].Files[0].Size)
}

func TestCreateOrder_Validation(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/create-order", `{"email":"not-an-email","selections":{"templates":["temp1"]}}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "validation_error", body["error"])
	assert.Contains(t, body["message"], "email")

	rec = h.do(t, http.MethodPost, "/create-order", `{"email":"a@example.com","selections":{}}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/create-order", `{`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/create-order", `{"email":"a@example.com","selections":{"templates":["ghost"]}}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderFlow_GenerateStatusDownload(t *testing.T) {
	h := newHarness(t)
	h.payments.Succeed("pi_1", 500)

	rec := h.do(t, http.MethodPost, "/create-order", map[string]any{
		"email":           "buyer@example.com",
		"selections":      map[string][]string{"templates": {"temp1"}},
		"paymentIntentId": "pi_1",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	purchaseID := decodeBody(t, rec)["purchaseId"].(string)

	rec = h.do(t, http.MethodPost, "/generate-pack/"+purchaseID, nil, nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	gen := decodeBody(t, rec)
	assert.Equal(t, "processing", gen["status"])
	packID := gen["packId"].(string)

	rec = h.do(t, http.MethodGet, "/pack-status/"+purchaseID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decodeBody(t, rec)
	assert.Equal(t, "completed", st["status"])
	assert.Equal(t, packID, st["packId"])

	p, err := h.kit.Packs.GetByRef(context.Background(), packID)
	require.NoError(t, err)
	rec = h.do(t, http.MethodGet, "/download/"+p.DownloadToken, nil, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "memory://packs/"+p.StorageKey))

	h.now = p.ExpiresAt.Add(time.Minute)
	rec = h.do(t, http.MethodGet, "/download/"+p.DownloadToken, nil, nil)
	require.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, "Le lien a expiré", decodeBody(t, rec)["error"])
}

func TestDownload_Unknown(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/download/unknown-token", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Pack introuvable", decodeBody(t, rec)["error"])
}

func TestPackStatus_UnknownOrder(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/pack-status/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = h.do(t, http.MethodPost, "/generate-pack/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePaymentIntent_UpstreamFailureIsSanitised(t *testing.T) {
	h := newHarness(t)
	h.payments.FailCreate = assert.AnError

	rec := h.do(t, http.MethodPost, "/create-payment-intent", `{"email":"a@example.com","items":["temp1"]}`, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "upstream_error", body["error"])
	assert.NotContains(t, body["message"], assert.AnError.Error())
}

func TestStripeWebhook(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/create-payment-intent", `{"email":"a@example.com","items":["temp1"],"amount":500}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	intent := decodeBody(t, rec)
	ref := intent["paymentIntentId"].(string)

	rec = h.do(t, http.MethodPost, "/webhooks/stripe", ref, map[string]string{"Stripe-Signature": "forged"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for i := 0; i < 2; i++ {
		rec = h.do(t, http.MethodPost, "/webhooks/stripe", ref, map[string]string{"Stripe-Signature": "valid"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodGet, "/pack-status/"+intent["purchaseId"].(string), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", decodeBody(t, rec)["status"])
}

func TestAdmin_RequiresToken(t *testing.T) {
	h := newHarness(t)
	for _, hdr := range []map[string]string{nil, {"Authorization": "Bearer wrong"}, {"Authorization": adminToken}} {
		rec := h.do(t, http.MethodGet, "/admin/stats", nil, hdr)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	assert.Equal(t, http.StatusUnauthorized, httpStatus(RequireToken(""), "Bearer "))
}

func httpStatus(mw func(http.Handler) http.Handler, auth string) int {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", auth)
	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })).ServeHTTP(rec, req)
	return rec.Code
}

func TestAdmin_UploadListDeleteStats(t *testing.T) {
	h := newHarness(t)
	auth := map[string]string{"Authorization": "Bearer " + adminToken}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("category", "plugins"))
	require.NoError(t, mw.WriteField("price", "700"))
	fw, err := mw.CreateFormFile("file", "seo-tool.zip")
	require.NoError(t, err)
	_, err = fw.Write([]byte("PK\x03\x04 plugin"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	up := decodeBody(t, rec)
	assert.Equal(t, "plugins/seo-tool.zip", up["file"].(map[string]any)["key"])
	assert.Equal(t, "plugins-seo-tool", up["product"].(map[string]any)["id"])

	rec = h.do(t, http.MethodGet, "/admin/files?category=plugins", nil, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["count"])

	rec = h.do(t, http.MethodGet, "/admin/files?category=bogus", nil, auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodDelete, "/admin/products/plugins-seo-tool", nil, auth)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(t, http.MethodDelete, "/admin/products/missing", nil, auth)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodGet, "/admin/stats", nil, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["productsCount"])
}
