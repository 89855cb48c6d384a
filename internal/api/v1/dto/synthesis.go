package dto

import "app/internal/model"

type SynthesizeRequestDTO struct {
	UserQuery string `json:"userQuery" validate:"required"`
	UserID    string `json:"userId"`
}

type SynthesizeResponseDTO struct {
	Success bool                    `json:"success"`
	Config  *model.ChainConfigDraft `json:"config,omitempty"`
	Message string                  `json:"message"`
}
