package dto

import "github.com/shopspring/decimal"

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// InsufficientStockResponse cuerpo del 409 por stock insuficiente.
type InsufficientStockResponse struct {
	ErrorResponse
	Entity    string          `json:"entity"`
	Requested decimal.Decimal `json:"requested"`
	Available decimal.Decimal `json:"available"`
}
