package rabbit

import (
	"github.com/shopspring/decimal"
)

// decimalFromString parsea cantidades de los mensajes AMQP. Las cantidades
// viajan como string para no perder precisión en JSON.
func decimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
