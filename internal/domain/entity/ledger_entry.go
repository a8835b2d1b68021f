package entity

import "time"

// Tipos de transacción de inventario.
const (
	TxTypeImport = "IMPORT" // entrada de mercancía
	TxTypeExport = "EXPORT" // salida de mercancía
)

// QuantityDelta devuelve el delta con signo que el tipo aplica sobre la proyección.
// Tipo desconocido devuelve 0; la validación ocurre antes, en el caso de uso.
func QuantityDelta(txType string, quantity int64) int64 {
	switch txType {
	case TxTypeImport:
		return quantity
	case TxTypeExport:
		return -quantity
	}
	return 0
}

// LedgerEntry registro inmutable de un movimiento de inventario.
// Una vez escrito nunca se actualiza ni se borra: la suma de IMPORT menos
// EXPORT por StockRecordID debe igualar la cantidad actual de la proyección.
type LedgerEntry struct {
	ID            string
	StockRecordID string // back-reference, no implica ownership
	Type          string // IMPORT | EXPORT
	Quantity      int64  // magnitud movida, siempre positiva
	Actor         string
	CreatedAt     time.Time
}
