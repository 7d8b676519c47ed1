package redisx

import "time"

const (
	// Idempotency materialize: idem:order:session:{session_id} -> order_number
	KeyIdemOrderSession = "idem:order:session:%s"

	// Cache order: order:{order_number} -> order JSON
	KeyOrder = "order:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLOrderCache  = 5 * time.Minute
	TTLDedup       = 48 * time.Hour

	// klaim sementara event yang sedang diproses; lebih lama dari satu materialize
	TTLDedupClaim = time.Minute
)

// DedupDone is stored under KeyDedup once an event is fully handled.
const DedupDone = "done"
