package entity

import "time"

// StockRecord representa la existencia actual de una línea de producto en bodega
// (proyección mutable; el historial vive en LedgerEntry).
type StockRecord struct {
	ID            string
	ProductName   string // único entre registros no eliminados
	Quantity      int64  // nunca negativo
	MinQuantity   int64  // umbral de reposición
	Version       int64  // token de concurrencia optimista, monotónico
	IsDeleted     bool   // borrado lógico; nunca se elimina físicamente salvo purga explícita
	LastUpdatedBy string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
