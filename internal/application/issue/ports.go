package issue

import "github.com/jhoicas/garment-ledger/internal/domain/entity"

// SlipRenderer genera el comprobante PDF de una salida de material.
type SlipRenderer interface {
	RenderIssueSlip(txn *entity.ConsumptionTransaction) ([]byte, error)
}
