package poster

import (
	"context"
	"testing"
	"time"

	"github.com/bartek5186/possync/internal/db"
)

func eventOfType(evs []CustomerLifecycleEvent, typ string) *CustomerLifecycleEvent {
	for i := range evs {
		if evs[i].Type == typ {
			return &evs[i]
		}
	}
	return nil
}

func countType(evs []CustomerLifecycleEvent, typ string) int {
	n := 0
	for _, ev := range evs {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

// Pierwsza w historii transakcja klienta: dokładnie jeden first_time_customer,
// zero revival i product_discovery.
func TestDeriveFirstTimeCustomer(t *testing.T) {
	gdb := testDB(t)
	r := testResolver(t, gdb, &fakeSource{failClients: true})

	raw := simpleTx(1, 5, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	ch, err := r.upsertTransaction(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}

	evs := r.deriveEvents(context.Background(), []*TransactionChange{ch})
	if countType(evs, EventFirstTimeCustomer) != 1 {
		t.Errorf("oczekiwano 1x first_time_customer, events=%+v", evs)
	}
	if countType(evs, EventRevival) != 0 || countType(evs, EventProductDiscovery) != 0 {
		t.Errorf("pierwsza transakcja nie emituje revival/product_discovery: %+v", evs)
	}
}

// Poprzednie zamówienie 31 dni wcześniej → revival z days_since_last_order=31.
func TestDeriveRevival(t *testing.T) {
	gdb := testDB(t)
	r := testResolver(t, gdb, &fakeSource{failClients: true})

	first := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if _, err := r.upsertTransaction(context.Background(), simpleTx(1, 5, first)); err != nil {
		t.Fatal(err)
	}

	ch, err := r.upsertTransaction(context.Background(), simpleTx(2, 5, first.AddDate(0, 0, 31)))
	if err != nil {
		t.Fatal(err)
	}
	evs := r.deriveEvents(context.Background(), []*TransactionChange{ch})

	rev := eventOfType(evs, EventRevival)
	if rev == nil {
		t.Fatalf("brak revival: %+v", evs)
	}
	if rev.DaysSinceLastOrder != 31 {
		t.Errorf("days_since_last_order = %d, want 31", rev.DaysSinceLastOrder)
	}
	if countType(evs, EventFirstTimeCustomer) != 0 {
		t.Error("revival wyklucza first_time_customer")
	}
}

// Dziesiąte zamówienie w historii → milestone_order z order_count=10.
func TestDeriveMilestone(t *testing.T) {
	gdb := testDB(t)
	r := testResolver(t, gdb, &fakeSource{failClients: true})

	cid := int64(5)
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	// 9 historycznych zamówień prosto do magazynu
	for i := int64(1); i <= 9; i++ {
		ds := base.AddDate(0, 0, int(i))
		row := db.Transaction{TransactionID: i, CustomerID: &cid, DateStart: &ds}
		if err := gdb.Create(&row).Error; err != nil {
			t.Fatal(err)
		}
	}

	ch, err := r.upsertTransaction(context.Background(), simpleTx(10, cid, base.AddDate(0, 0, 10)))
	if err != nil {
		t.Fatal(err)
	}
	evs := r.deriveEvents(context.Background(), []*TransactionChange{ch})

	ms := eventOfType(evs, EventMilestoneOrder)
	if ms == nil {
		t.Fatalf("brak milestone_order: %+v", evs)
	}
	if ms.OrderCount != 10 {
		t.Errorf("order_count = %d, want 10", ms.OrderCount)
	}
}

// Nowy produkt względem pełnej historii klienta → product_discovery
// tylko dla niewidzianych id.
func TestDeriveProductDiscovery(t *testing.T) {
	gdb := testDB(t)
	r := testResolver(t, gdb, &fakeSource{failClients: true, failProducts: true})

	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	raw1 := simpleTx(1, 5, base)
	raw1.Products = []RawTransactionProduct{{ProductID: "100", Num: "1", ProductSum: "10.00"}}
	if _, err := r.upsertTransaction(context.Background(), raw1); err != nil {
		t.Fatal(err)
	}

	raw2 := simpleTx(2, 5, base.AddDate(0, 0, 1))
	raw2.Products = []RawTransactionProduct{
		{ProductID: "100", Num: "1", ProductSum: "10.00"},
		{ProductID: "101", Num: "1", ProductSum: "12.00"},
	}
	ch, err := r.upsertTransaction(context.Background(), raw2)
	if err != nil {
		t.Fatal(err)
	}
	evs := r.deriveEvents(context.Background(), []*TransactionChange{ch})

	if countType(evs, EventProductDiscovery) != 1 {
		t.Fatalf("oczekiwano 1x product_discovery: %+v", evs)
	}
	if ev := eventOfType(evs, EventProductDiscovery); ev.ProductID != 101 {
		t.Errorf("product_id = %d, want 101", ev.ProductID)
	}
}

// date_close pojawia się przy update → payment_completion.
func TestDerivePaymentCompletion(t *testing.T) {
	gdb := testDB(t)
	r := testResolver(t, gdb, &fakeSource{failClients: true})

	start := time.Date(2024, 6, 2, 19, 0, 0, 0, time.UTC)
	raw := simpleTx(1, 5, start)
	if _, err := r.upsertTransaction(context.Background(), raw); err != nil {
		t.Fatal(err)
	}

	raw.DateClose = msDate(start.Add(45 * time.Minute))
	ch, err := r.upsertTransaction(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}
	evs := r.deriveEvents(context.Background(), []*TransactionChange{ch})
	if countType(evs, EventPaymentCompletion) != 1 {
		t.Errorf("oczekiwano payment_completion: %+v", evs)
	}

	// ponowna obserwacja z już ustawionym date_close nie dubluje eventu
	ch2, err := r.upsertTransaction(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}
	evs2 := r.deriveEvents(context.Background(), []*TransactionChange{ch2})
	if countType(evs2, EventPaymentCompletion) != 0 {
		t.Errorf("payment_completion tylko przy przejściu brak→jest: %+v", evs2)
	}
}

// Zmiana kelnera przy update → waiter_change.
func TestDeriveWaiterChange(t *testing.T) {
	gdb := testDB(t)
	r := testResolver(t, gdb, &fakeSource{failClients: true})

	raw := simpleTx(1, 5, time.Date(2024, 6, 3, 13, 0, 0, 0, time.UTC))
	raw.UserID = "11"
	if _, err := r.upsertTransaction(context.Background(), raw); err != nil {
		t.Fatal(err)
	}

	raw.UserID = "12"
	ch, err := r.upsertTransaction(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}
	evs := r.deriveEvents(context.Background(), []*TransactionChange{ch})
	wc := eventOfType(evs, EventWaiterChange)
	if wc == nil {
		t.Fatalf("brak waiter_change: %+v", evs)
	}
	if wc.OldWaiterID != 11 || wc.NewWaiterID != 12 {
		t.Errorf("zła para kelnerów: %+v", wc)
	}
}

// Zmiana kelnera przy zamówieniu bez klienta — nie ma kogo zawiadomić.
func TestDeriveWaiterChangeNoCustomer(t *testing.T) {
	gdb := testDB(t)
	r := testResolver(t, gdb, &fakeSource{})

	raw := simpleTx(2, 0, time.Date(2024, 6, 3, 13, 30, 0, 0, time.UTC))
	raw.UserID = "11"
	if _, err := r.upsertTransaction(context.Background(), raw); err != nil {
		t.Fatal(err)
	}

	raw.UserID = "12"
	ch, err := r.upsertTransaction(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}
	evs := r.deriveEvents(context.Background(), []*TransactionChange{ch})
	if countType(evs, EventWaiterChange) != 0 {
		t.Errorf("waiter_change bez klienta ma być pominięty: %+v", evs)
	}
}
