package dto

import "time"

// CreateStockRequest body para POST /api/stocks.
type CreateStockRequest struct {
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	MinQuantity int64  `json:"min_quantity"`
}

// UpdateStockRequest body para PUT /api/stocks/:id.
// Solo metadatos: la cantidad se muta exclusivamente vía import/export.
type UpdateStockRequest struct {
	ProductName string `json:"product_name"`
	MinQuantity int64  `json:"min_quantity"`
}

// TransactionRequest body para POST /api/stocks/:id/import y /export.
type TransactionRequest struct {
	Quantity int64 `json:"quantity"`
}

// StockResponse representación HTTP de un registro de stock.
type StockResponse struct {
	ID            string    `json:"id"`
	ProductName   string    `json:"product_name"`
	Quantity      int64     `json:"quantity"`
	MinQuantity   int64     `json:"min_quantity"`
	Version       int64     `json:"version"`
	IsDeleted     bool      `json:"is_deleted,omitempty"`
	LastUpdatedBy string    `json:"last_updated_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LedgerSummaryResponse totales del libro de movimientos para un registro.
// Balance = TotalImports - TotalExports (eventual respecto a la proyección:
// las escrituras del libro son best-effort).
type LedgerSummaryResponse struct {
	StockRecordID  string `json:"stock_record_id"`
	Movements      int64  `json:"movements"`
	TotalImports   int64  `json:"total_imports"`
	TotalExports   int64  `json:"total_exports"`
	Balance        int64  `json:"balance"`
	WindowQuantity *int64 `json:"window_quantity,omitempty"` // suma por tipo en rango de fechas, si se pidió
}

// DashboardResponse contadores agregados para el tablero.
type DashboardResponse struct {
	TotalRecords   int64 `json:"total_records"`
	BelowMinimum   int64 `json:"below_minimum"`
	OutOfStock     int64 `json:"out_of_stock"`
	LedgerEntries  int64 `json:"ledger_entries"`
	ImportMovement int64 `json:"import_movements"`
	ExportMovement int64 `json:"export_movements"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
