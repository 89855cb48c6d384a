package dto

type QuotaCheckResponseDTO struct {
	CanGenerate   bool `json:"canGenerate"`
	FreeRemaining int  `json:"freeRemaining"`
	FreeLimit     int  `json:"freeLimit"`
	NeedsPayment  bool `json:"needsPayment"`
}

type QuotaIncrementDTO struct {
	UserID string `json:"userId" validate:"required"`
	IsPaid bool   `json:"isPaid"`
}

type QuotaIncrementResponseDTO struct {
	Success bool `json:"success"`
}
