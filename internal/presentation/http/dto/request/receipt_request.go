package request

import "github.com/sangkips/recibo-api/internal/domain/entity"

// CartLineRequest is one item of the cart as sent by the kiosk
type CartLineRequest struct {
	Name      string `json:"nome"`
	Quantity  int    `json:"quantidade"`
	UnitPrice int64  `json:"preco"`
}

// CreateReceiptRequest represents a checkout request
type CreateReceiptRequest struct {
	Items         []CartLineRequest `json:"itens"`
	Notes         string            `json:"observacoes" binding:"max=1000"`
	PaymentMethod string            `json:"formaPagamento" binding:"max=50"`
	ServiceType   string            `json:"tipoAtendimento"`
}

// PreferentialRequest asks for priority service without buying anything
type PreferentialRequest struct {
	Notes string `json:"observacoes" binding:"max=1000"`
}

// UpdateReceiptRequest represents a staff correction. Omitted fields are kept
type UpdateReceiptRequest struct {
	Notes         *string            `json:"observacoes" binding:"omitempty,max=1000"`
	PaymentMethod *string            `json:"formaPagamento" binding:"omitempty,max=50"`
	Items         *[]CartLineRequest `json:"itens"`
}

// ToCartLines converts request items into entity lines
func ToCartLines(items []CartLineRequest) []entity.CartLine {
	lines := make([]entity.CartLine, len(items))
	for i, item := range items {
		lines[i] = entity.CartLine{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return lines
}
