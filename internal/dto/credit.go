package dto

import "github.com/prohmpiriya/gym-booking/internal/domain"

// CreditSummaryResponse is the credit card shown on the dashboard
type CreditSummaryResponse struct {
	Current *domain.CreditSummary `json:"current"`
	Next    *domain.CreditSummary `json:"next"`
}
