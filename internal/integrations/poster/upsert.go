package poster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bartek5186/possync/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionChange — efemeryczny opis zmiany jednej transakcji.
// Wejście dla derywacji eventów i powiadomień, wyrzucane po biegu.
type TransactionChange struct {
	TransactionID       int64
	Action              string // created | updated
	CustomerID          *int64
	ProcessingStatus    int
	OldProcessingStatus *int
	ServiceMode         int
	DateStart           *time.Time
	DateClose           *time.Time
	OldDateClose        *time.Time
	WaiterID            *int64
	OldWaiterID         *int64
	HasLines            bool
}

const (
	actionCreated = "created"
	actionUpdated = "updated"
)

var transactionColumns = []string{
	"customer_id", "location_id", "table_id", "waiter_id",
	"status", "processing_status", "service_mode",
	"sum_cents", "payed_sum_cents", "payed_cash_cents", "payed_card_cents", "payed_bonus_cents",
	"discount_percent", "date_start", "date_create", "date_close",
}

// upsertTransaction — mapuje jedną surową transakcję na schemat magazynu
// i robi idempotentny upsert z pełnym nadpisaniem kolumn. Najpierw
// zależności (klient, lokal), potem wiersz transakcji, dopiero po nim
// pozycje i modyfikatory (rodzic przed dziećmi, inaczej FK się wywali).
func (r *resolver) upsertTransaction(ctx context.Context, raw RawTransaction) (*TransactionChange, error) {
	id := i64(raw.TransactionID)
	if id <= 0 {
		return nil, fmt.Errorf("transakcja bez poprawnego transaction_id: %q", raw.TransactionID)
	}

	var customerID, locationID, tableID, waiterID *int64
	if v := i64(raw.ClientID); v > 0 {
		if err := r.ensure(ctx, kindCustomer, v); err != nil {
			return nil, err
		}
		customerID = &v
	}
	if v := i64(raw.SpotID); v > 0 {
		if err := r.ensure(ctx, kindLocation, v); err != nil {
			return nil, err
		}
		locationID = &v
	}
	if v := i64(raw.TableID); v > 0 {
		tableID = &v
	}
	if v := i64(raw.UserID); v > 0 {
		waiterID = &v
	}

	row := db.Transaction{
		TransactionID:    id,
		CustomerID:       customerID,
		LocationID:       locationID,
		TableID:          tableID,
		WaiterID:         waiterID,
		Status:           mapStatus(i64(raw.Status)),
		ProcessingStatus: mapProcessingStatus(i64(raw.ProcessingStatus)),
		ServiceMode:      mapServiceMode(i64(raw.ServiceMode)),
		SumCents:         ToCents(raw.Sum),
		PayedSumCents:    ToCents(raw.PayedSum),
		PayedCashCents:   ToCents(raw.PayedCash),
		PayedCardCents:   ToCents(raw.PayedCard),
		PayedBonusCents:  ToCents(raw.PayedBonus),
		DiscountPercent:  f64(raw.DiscountPercent),
		DateStart:        ParseTime(raw.DateStart),
		DateCreate:       ParseTime(raw.DateCreate),
		DateClose:        ParseTime(raw.DateClose),
	}

	change := &TransactionChange{
		TransactionID:    id,
		Action:           actionCreated,
		CustomerID:       customerID,
		ProcessingStatus: row.ProcessingStatus,
		ServiceMode:      row.ServiceMode,
		DateStart:        row.DateStart,
		DateClose:        row.DateClose,
		WaiterID:         waiterID,
		HasLines:         len(raw.Products) > 0,
	}

	// stary stan do diffowania, zanim upsert go nadpisze
	var prior db.Transaction
	err := r.gdb.Where("transaction_id = ?", id).Take(&prior).Error
	switch {
	case err == nil:
		change.Action = actionUpdated
		old := prior.ProcessingStatus
		change.OldProcessingStatus = &old
		change.OldDateClose = prior.DateClose
		change.OldWaiterID = prior.WaiterID
	case errors.Is(err, gorm.ErrRecordNotFound):
		// created
	default:
		return nil, err
	}

	if err := r.gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		DoUpdates: clause.AssignmentColumns(transactionColumns),
	}).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("upsert transakcji %d: %w", id, err)
	}

	if err := r.upsertLines(ctx, id, raw.Products); err != nil {
		return nil, err
	}
	return change, nil
}

var orderLineColumns = []string{
	"product_id", "category_id", "product_name", "category_name",
	"quantity", "sum_cents", "raw_modifiers",
}

func (r *resolver) upsertLines(ctx context.Context, txID int64, products []RawTransactionProduct) error {
	for idx, p := range products {
		var productID, categoryID *int64
		var productName, categoryName string
		if v := i64(p.ProductID); v > 0 {
			if err := r.ensure(ctx, kindProduct, v); err != nil {
				return err
			}
			productID = &v
		}
		if v := i64(p.CategoryID); v > 0 {
			if err := r.ensure(ctx, kindCategory, v); err != nil {
				return err
			}
			categoryID = &v
		}

		// snapshot nazw z magazynu — po ensure wiersze istnieją, choćby stuby
		if productID != nil {
			var prod db.Product
			if err := r.gdb.Where("product_id = ?", *productID).Take(&prod).Error; err == nil {
				productName = prod.Name
			}
		}
		if categoryID != nil {
			var cat db.Category
			if err := r.gdb.Where("category_id = ?", *categoryID).Take(&cat).Error; err == nil {
				categoryName = cat.Name
			}
		}

		rawMods := ""
		if len(p.Modifiers) > 0 {
			b, _ := json.Marshal(p.Modifiers)
			rawMods = string(b)
		} else if len(p.Modification) > 0 {
			b, _ := json.Marshal(p.Modification)
			rawMods = string(b)
		}

		line := db.OrderLine{
			TransactionID: txID,
			LineIndex:     idx,
			ProductID:     productID,
			CategoryID:    categoryID,
			ProductName:   productName,
			CategoryName:  categoryName,
			Quantity:      f64(p.Num),
			SumCents:      ToCents(p.ProductSum),
			RawModifiers:  rawMods,
		}
		if err := r.gdb.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}, {Name: "line_index"}},
			DoUpdates: clause.AssignmentColumns(orderLineColumns),
		}).Create(&line).Error; err != nil {
			return fmt.Errorf("upsert pozycji %d/%d: %w", txID, idx, err)
		}

		if err := r.upsertLineModifiers(ctx, txID, idx, p); err != nil {
			return err
		}
	}
	return nil
}

var lineModifierColumns = []string{"group_name", "name", "amount"}

// upsertLineModifiers — oba formaty źródła: nowy `modifiers` ({group,name},
// bez własnego id — identyfikatorem jest pozycja w liście) oraz legacy
// `modification` ({m: modifierId, a: ilość}) z prawdziwymi id-kami, dla
// których robimy ensure.
func (r *resolver) upsertLineModifiers(ctx context.Context, txID int64, lineIdx int, p RawTransactionProduct) error {
	upsert := func(row *db.LineModifier) error {
		return r.gdb.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}, {Name: "line_index"}, {Name: "modifier_id"}},
			DoUpdates: clause.AssignmentColumns(lineModifierColumns),
		}).Create(row).Error
	}

	for i, m := range p.Modifiers {
		row := &db.LineModifier{
			TransactionID: txID,
			LineIndex:     lineIdx,
			ModifierID:    int64(i + 1),
			GroupName:     m.Group,
			Name:          m.Name,
			Amount:        1,
		}
		if err := upsert(row); err != nil {
			return err
		}
	}
	for _, m := range p.Modification {
		if m.M <= 0 {
			continue
		}
		if err := r.ensure(ctx, kindModifier, m.M); err != nil {
			return err
		}
		var name string
		var mod db.Modifier
		if err := r.gdb.Where("modifier_id = ?", m.M).Take(&mod).Error; err == nil {
			name = mod.Name
		}
		row := &db.LineModifier{
			TransactionID: txID,
			LineIndex:     lineIdx,
			ModifierID:    m.M,
			Name:          name,
			Amount:        m.A,
		}
		if err := upsert(row); err != nil {
			return err
		}
	}
	return nil
}
