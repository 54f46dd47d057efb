package orders

const (
	TopicPackRequested = "pack.requested"
	TopicEmailSend     = "email.send"
)

// Partition key = order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
