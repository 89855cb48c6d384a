package model

import "time"

// AIUsage tracks a user's AI generation usage for a single day. The row
// rolls over in place: when usage_date falls behind the current day key,
// free_count resets to 0 before the next operation is applied.
type AIUsage struct {
	UserID         string    `db:"user_id" json:"user_id"`
	FreeCount      int       `db:"free_count" json:"free_count"`
	UsageDate      string    `db:"usage_date" json:"usage_date"`
	IsPaidOverride bool      `db:"is_paid_override" json:"is_paid_override"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// QuotaStatus is the answer to "may this user generate right now".
type QuotaStatus struct {
	CanGenerate   bool `json:"canGenerate"`
	FreeRemaining int  `json:"freeRemaining"`
	FreeLimit     int  `json:"freeLimit"`
	NeedsPayment  bool `json:"needsPayment"`
}
