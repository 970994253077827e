package poster

import (
	"context"
	"errors"

	"github.com/bartek5186/possync/internal/db"
	"gorm.io/gorm"
)

// Typy eventów cyklu życia klienta
const (
	EventFirstTimeCustomer = "first_time_customer"
	EventRevival           = "revival"
	EventMilestoneOrder    = "milestone_order"
	EventProductDiscovery  = "product_discovery"
	EventPaymentCompletion = "payment_completion"
	EventWaiterChange      = "waiter_change"
)

// CustomerLifecycleEvent — efemeryczna klasyfikacja zachowania klienta,
// przekazywana do notyfikatora, nie persystowana w magazynie.
type CustomerLifecycleEvent struct {
	Type               string `json:"type"`
	CustomerID         int64  `json:"customer_id"`
	TransactionID      int64  `json:"transaction_id"`
	OrderCount         int    `json:"order_count,omitempty"`           // milestone_order
	DaysSinceLastOrder int    `json:"days_since_last_order,omitempty"` // revival
	ProductID          int64  `json:"product_id,omitempty"`            // product_discovery
	OldWaiterID        int64  `json:"old_waiter_id,omitempty"`         // waiter_change
	NewWaiterID        int64  `json:"new_waiter_id,omitempty"`         // waiter_change
}

// revivalAfterDays — tyle dni ciszy liczymy jako powrót klienta
const revivalAfterDays = 30

var milestones = map[int]bool{5: true, 10: true, 25: true, 50: true, 100: true, 250: true, 500: true, 1000: true}

// deriveEvents łączy listę zmian z odczytami historycznymi magazynu.
// Jedna transakcja może wyemitować kilka niezależnych eventów
// (np. revival + milestone). Błąd klasyfikacji jednej zmiany tylko
// logujemy — derywacja to wzbogacenie, nie twarda gwarancja biegu.
func (r *resolver) deriveEvents(ctx context.Context, changes []*TransactionChange) []CustomerLifecycleEvent {
	var events []CustomerLifecycleEvent
	for _, ch := range changes {
		evs, err := r.classifyChange(ch)
		if err != nil {
			r.log.Warn().Err(err).Int64("transaction_id", ch.TransactionID).Msg("klasyfikacja eventów nieudana")
			continue
		}
		events = append(events, evs...)
	}
	return events
}

func (r *resolver) classifyChange(ch *TransactionChange) ([]CustomerLifecycleEvent, error) {
	var out []CustomerLifecycleEvent

	switch ch.Action {
	case actionCreated:
		if ch.CustomerID == nil {
			return nil, nil
		}
		cid := *ch.CustomerID

		// licznik obejmuje już świeżo wstawioną transakcję
		var count int64
		if err := r.gdb.Model(&db.Transaction{}).Where("customer_id = ?", cid).Count(&count).Error; err != nil {
			return nil, err
		}

		var prev db.Transaction
		hasPrev := false
		err := r.gdb.
			Where("customer_id = ? AND transaction_id <> ? AND date_start IS NOT NULL", cid, ch.TransactionID).
			Order("date_start DESC").
			Take(&prev).Error
		if err == nil {
			hasPrev = true
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		if count == 1 {
			out = append(out, CustomerLifecycleEvent{
				Type: EventFirstTimeCustomer, CustomerID: cid, TransactionID: ch.TransactionID,
			})
		} else if hasPrev && ch.DateStart != nil && prev.DateStart != nil {
			days := int(ch.DateStart.Sub(*prev.DateStart).Hours() / 24)
			if days >= revivalAfterDays {
				out = append(out, CustomerLifecycleEvent{
					Type: EventRevival, CustomerID: cid, TransactionID: ch.TransactionID,
					DaysSinceLastOrder: days,
				})
			}
		}

		if milestones[int(count)] {
			out = append(out, CustomerLifecycleEvent{
				Type: EventMilestoneOrder, CustomerID: cid, TransactionID: ch.TransactionID,
				OrderCount: int(count),
			})
		}

		if ch.HasLines && count > 1 {
			discoveries, err := r.discoverProducts(cid, ch.TransactionID)
			if err != nil {
				return nil, err
			}
			out = append(out, discoveries...)
		}

	case actionUpdated:
		// domknięcie płatności: date_close pojawiło się przy tym upsercie
		if ch.OldDateClose == nil && ch.DateClose != nil && ch.CustomerID != nil {
			out = append(out, CustomerLifecycleEvent{
				Type: EventPaymentCompletion, CustomerID: *ch.CustomerID, TransactionID: ch.TransactionID,
			})
		}
		// bez znanego klienta nie ma kogo zawiadamiać o zmianie kelnera
		if ch.CustomerID != nil && ch.OldWaiterID != nil && ch.WaiterID != nil && *ch.OldWaiterID != *ch.WaiterID {
			out = append(out, CustomerLifecycleEvent{
				Type: EventWaiterChange, CustomerID: *ch.CustomerID, TransactionID: ch.TransactionID,
				OldWaiterID: *ch.OldWaiterID, NewWaiterID: *ch.WaiterID,
			})
		}
	}
	return out, nil
}

// discoverProducts — produkty z tej transakcji, których klient nigdy
// wcześniej nie zamawiał.
func (r *resolver) discoverProducts(customerID, txID int64) ([]CustomerLifecycleEvent, error) {
	var current []int64
	if err := r.gdb.Model(&db.OrderLine{}).
		Where("transaction_id = ? AND product_id IS NOT NULL", txID).
		Distinct().Pluck("product_id", &current).Error; err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, nil
	}

	var seen []int64
	if err := r.gdb.Model(&db.OrderLine{}).
		Joins("JOIN transactions ON transactions.transaction_id = order_lines.transaction_id").
		Where("transactions.customer_id = ? AND order_lines.transaction_id <> ? AND order_lines.product_id IS NOT NULL", customerID, txID).
		Distinct().Pluck("order_lines.product_id", &seen).Error; err != nil {
		return nil, err
	}

	seenSet := make(map[int64]struct{}, len(seen))
	for _, id := range seen {
		seenSet[id] = struct{}{}
	}

	var out []CustomerLifecycleEvent
	for _, id := range current {
		if _, ok := seenSet[id]; !ok {
			out = append(out, CustomerLifecycleEvent{
				Type: EventProductDiscovery, CustomerID: customerID, TransactionID: txID, ProductID: id,
			})
		}
	}
	return out, nil
}
