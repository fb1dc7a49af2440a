package transport

import (
	"github.com/Skotchmaster/storefront/internal/models"
)

func NewPaymentResponse(p *models.Payment) PaymentResponse {
	resp := PaymentResponse{
		PaymentID:     p.ID,
		OrderID:       p.OrderID,
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		PaymentDate:   p.PaymentDate,
	}
	if p.Status == models.PaymentFailed {
		resp.Error = p.FailureReason
	}
	return resp
}

func NewCardResponse(c models.CreditCard) CardResponse {
	return CardResponse{
		ID:              c.ID,
		MaskedNumber:    "**** **** **** " + c.LastFour(),
		CardHolderName:  c.CardHolderName,
		ExpirationMonth: c.ExpirationMonth,
		ExpirationYear:  c.ExpirationYear,
		IsDefault:       c.IsDefault,
	}
}
