package dto

import "github.com/spec-kit/aidtrace/internal/domain"

// RefreshRequest payload for POST /auth/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse carries the new access token.
type RefreshResponse struct {
	Access string `json:"access"`
}

// VerifyHashRequest payload for POST /blockchain/verify/.
type VerifyHashRequest struct {
	Hash string `json:"hash"`
	TxID string `json:"tx_id"`
}

// ApprovalRequest payload for PATCH /users/:id/.
type ApprovalRequest struct {
	IsApproved *bool `json:"is_approved"`
}

// PageResponse is the paginated list envelope.
type PageResponse struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []domain.Record `json:"results"`
}
