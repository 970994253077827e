package db

import (
	"fmt"
)

// Migrate tworzy/aktualizuje schemat bazy.
// AutoMigrate wystarcza: wszystkie klucze są zadeklarowane tagami w modelach,
// a pipeline niczego nie kasuje, więc nie ma czego czyścić na starcie.
func (h *Handle) Migrate() error {
	if err := h.DB.AutoMigrate(
		&SyncState{},
		&Customer{},
		&Location{},
		&Category{},
		&Product{},
		&ModifierGroup{},
		&Modifier{},
		&Ingredient{},
		&Dish{},
		&Transaction{},
		&OrderLine{},
		&LineModifier{},
		&KV{},
	); err != nil {
		return fmt.Errorf("AutoMigrate error: %w", err)
	}
	return nil
}
