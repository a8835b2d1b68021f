package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// El mapeo a códigos HTTP se hace en la capa de interfaces.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrDataPersistence   = errors.New("la operación de persistencia no afectó filas")
	ErrVersionConflict   = errors.New("versión del registro desactualizada")
)
