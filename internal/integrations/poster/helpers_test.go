package poster

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bartek5186/possync/internal/db"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	h, err := db.Open("sqlite", filepath.Join(t.TempDir(), "test.db"), "")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := h.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return h.DB
}

func testResolver(t *testing.T, gdb *gorm.DB, src Source) *resolver {
	t.Helper()
	return &resolver{log: zerolog.Nop(), gdb: gdb, src: src, cache: newRunCache()}
}

type fetchCall struct {
	from, to time.Time
}

// fakeSource — deterministyczne źródło POS do testów, bez sieci.
type fakeSource struct {
	mu           sync.Mutex
	transactions []RawTransaction
	products     map[int64]*RawProductDetail
	categories   []RawCategory
	clients      map[int64]*RawClient

	failTransactions bool
	failProducts     bool
	failClients      bool

	calls []fetchCall
}

func (f *fakeSource) GetTransactions(ctx context.Context, from, to time.Time) ([]RawTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTransactions {
		return nil, errors.New("api niedostępne")
	}
	f.calls = append(f.calls, fetchCall{from, to})
	var out []RawTransaction
	for _, tr := range f.transactions {
		ts := ParseTime(tr.DateStart)
		if ts == nil {
			continue
		}
		if !ts.Before(from) && !ts.After(to) {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (f *fakeSource) GetProduct(ctx context.Context, id int64) (*RawProductDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failProducts {
		return nil, errors.New("api niedostępne")
	}
	p, ok := f.products[id]
	if !ok {
		return nil, fmt.Errorf("produkt %d nieznany", id)
	}
	return p, nil
}

func (f *fakeSource) GetMenuCategories(ctx context.Context) ([]RawCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.categories, nil
}

func (f *fakeSource) GetClientByID(ctx context.Context, id int64) (*RawClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failClients {
		return nil, errors.New("api niedostępne")
	}
	c, ok := f.clients[id]
	if !ok {
		return nil, fmt.Errorf("klient %d nieznany", id)
	}
	return c, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeNotifier — zbiera wysyłki; opcjonalnie zawsze błąd.
type fakeNotifier struct {
	mu       sync.Mutex
	statuses []string
	events   []CustomerLifecycleEvent
	fail     bool
}

func (n *fakeNotifier) PushStatus(ctx context.Context, customerID, transactionID int64, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("push niedostępny")
	}
	n.statuses = append(n.statuses, fmt.Sprintf("%d/%d: %s", customerID, transactionID, message))
	return nil
}

func (n *fakeNotifier) PushEvent(ctx context.Context, ev CustomerLifecycleEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("push niedostępny")
	}
	n.events = append(n.events, ev)
	return nil
}

func (n *fakeNotifier) eventTypes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, ev := range n.events {
		out = append(out, ev.Type)
	}
	return out
}

// msDate — epoch-ms jako string, tak jak oddaje to źródło
func msDate(t time.Time) string {
	return fmt.Sprintf("%d", t.UnixMilli())
}

func simpleTx(id int64, clientID int64, dateStart time.Time) RawTransaction {
	return RawTransaction{
		TransactionID:    fmt.Sprintf("%d", id),
		ClientID:         fmt.Sprintf("%d", clientID),
		SpotID:           "1",
		Status:           "1",
		ProcessingStatus: "10",
		ServiceMode:      "1",
		DateStart:        msDate(dateStart),
		DateCreate:       msDate(dateStart),
		Sum:              "10.50",
		PayedSum:         "10.50",
	}
}
