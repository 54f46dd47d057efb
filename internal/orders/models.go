package orders

import "time"

type Category string

const (
	CategoryTemplates Category = "templates"
	CategoryPlugins   Category = "plugins"
	CategoryResources Category = "resources"
	CategoryDocs      Category = "docs"
)

// Categories lists the catalog sections in display order.
var Categories = []Category{CategoryTemplates, CategoryPlugins, CategoryResources, CategoryDocs}

func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

type Product struct {
	ID          string
	Name        string
	Description string
	Category    Category
	StorageKey  string
	SizeBytes   int64
	PriceCents  int64
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Order struct {
	ID             string
	OrderNumber    string
	CustomerEmail  string
	CustomerName   string
	PaymentRef     string // empty until a payment intent exists
	ProductIDs     []string
	AmountCents    int64
	Currency       string
	Status         Status // lihat status.go
	PackID         *string
	PackStorageKey *string
	DownloadURL    *string
	FailureReason  *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	PaidAt         *time.Time
}

type Pack struct {
	ID               string
	OrderID          string
	StorageKey       string
	SizeBytes        int64
	FilesIncluded    int
	DownloadToken    string
	CreatedAt        time.Time
	ExpiresAt        time.Time
	DownloadCount    int
	LastDownloadedAt *time.Time
	PurgedAt         *time.Time // archive removed from storage by the sweeper
}

// Expired reports whether the pack is past its lifetime at now.
func (p Pack) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt) || p.PurgedAt != nil
}

// StatusView is what callers polling an order get back.
type StatusView struct {
	Status Status  `json:"status"`
	PackID *string `json:"packId"`
}

type Stats struct {
	ProductsCount  int   `json:"productsCount"`
	OrdersCount    int   `json:"ordersCount"`
	RevenueCents   int64 `json:"revenueCents"`
	CustomersCount int   `json:"customersCount"`
	TodayOrders    int   `json:"todayOrders"`
}
