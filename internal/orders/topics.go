package orders

const (
	TopicOrderConfirmed          = "order.confirmed"
	TopicCheckoutSessionComplete = "checkout.session.completed"
)

// Partition key = session id, supaya event satu checkout tetap berurutan.
func PartitionKey(sessionID string) []byte { return []byte(sessionID) }
