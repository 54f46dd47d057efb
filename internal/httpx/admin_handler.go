package httpx

import (
	"context"
	"crypto/subtle"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-pack-store/internal/checkout"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxUpload = 500 << 20

type AdminHandler struct {
	Svc   *checkout.Service
	Token string
	Log   *zap.Logger
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireToken(h.Token))
		r.Post("/upload", h.upload)
		r.Get("/files", h.files)
		r.Delete("/products/{id}", h.deactivate)
		r.Get("/stats", h.stats)
	})
}

// RequireToken checks "Authorization: Bearer <token>" against the shared
// admin secret. An empty secret locks the routes.
func RequireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "admin token required"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type uploadResp struct {
	Success bool                 `json:"success"`
	File    uploadFile           `json:"file"`
	Product checkout.ProductView `json:"product"`
}

type uploadFile struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Category string `json:"category"`
}

func (h *AdminHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "file is required")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		badRequest(w, "unreadable file")
		return
	}

	var price int64
	if v := r.FormValue("price"); v != "" {
		price, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			badRequest(w, "price must be an integer amount in cents")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	p, err := h.Svc.Upload(ctx, checkout.UploadInput{
		Category:    r.FormValue("category"),
		Filename:    hdr.Filename,
		Data:        data,
		ProductID:   r.FormValue("id"),
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		PriceCents:  price,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResp{
		Success: true,
		File:    uploadFile{Key: p.StorageKey, Name: hdr.Filename, Size: p.SizeBytes, Category: string(p.Category)},
		Product: checkout.ToProductView(*p),
	})
}

func (h *AdminHandler) files(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	files, err := h.Svc.ListFiles(ctx, r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files, "count": len(files)})
}

func (h *AdminHandler) deactivate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Svc.DeactivateProduct(ctx, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	st, err := h.Svc.Stats(ctx)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
