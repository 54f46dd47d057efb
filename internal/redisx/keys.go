package redisx

import "time"

const (
	// Cache status order: order_status:{order_id} -> {"status":"...","packId":...}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{id} (id = event_id atau stripe event id)
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
