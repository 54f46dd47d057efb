package checkout

import (
	"fmt"
	"time"

	"github.com/ariefcatur/go-pack-store/internal/orders"
)

var categoryInfo = map[orders.Category]struct{ name, description string }{
	orders.CategoryTemplates: {"Templates", "Site and page templates"},
	orders.CategoryPlugins:   {"Plugins", "Extensions and add-ons"},
	orders.CategoryResources: {"Resources", "Graphics, fonts and media"},
	orders.CategoryDocs:      {"Documentation", "Guides and manuals"},
}

type FileView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       string `json:"size"`
	SizeBytes  int64  `json:"sizeBytes"`
	PriceCents int64  `json:"priceCents"`
}

type CategoryView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Files       []FileView `json:"files"`
}

type ProductView struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    orders.Category `json:"category"`
	SizeBytes   int64           `json:"sizeBytes"`
	PriceCents  int64           `json:"priceCents"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type ProductsView struct {
	Products []ProductView           `json:"products"`
	Total    int                     `json:"total"`
	Counts   map[orders.Category]int `json:"counts"`
}

type PaymentIntentView struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	PurchaseID      string `json:"purchaseId"`
	OrderNumber     string `json:"orderNumber"`
	AmountCents     int64  `json:"amountCents"`
	Currency        string `json:"currency"`
}

type GenerateView struct {
	PackID string        `json:"packId"`
	Status orders.Status `json:"status"`
}

func ToProductView(p orders.Product) ProductView {
	return ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		SizeBytes:   p.SizeBytes,
		PriceCents:  p.PriceCents,
		UpdatedAt:   p.UpdatedAt,
	}
}

// humanSize renders bytes as megabytes with two decimals, e.g. "10.00 MB".
func humanSize(n int64) string {
	return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
}
