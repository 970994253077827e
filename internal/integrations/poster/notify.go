package poster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Notifier — zewnętrzny zlew powiadomień (push / wallet pass).
// Wysyłka jest best-effort: błąd nigdy nie wywraca biegu synchronizacji.
type Notifier interface {
	PushStatus(ctx context.Context, customerID, transactionID int64, message string) error
	PushEvent(ctx context.Context, ev CustomerLifecycleEvent) error
}

// notifyWindow — zamówienia starsze niż to (np. wyciągnięte szerokim
// resyncem) cicho pomijamy, żeby nie spamować klientów historią.
const notifyWindow = 10 * time.Minute

// Szablony per status. Brak wpisu = celowo bez powiadomienia.
var statusTemplates = map[int]string{
	ProcessingPreparing: "Twoje zamówienie jest w przygotowaniu 👨‍🍳",
	ProcessingReady:     "Zamówienie gotowe do odbioru ✅",
	ProcessingEnRoute:   "Zamówienie jest w drodze 🛵",
	ProcessingDelivered: "Zamówienie dostarczone. Smacznego!",
	ProcessingCancelled: "Zamówienie zostało anulowane",
}

// dispatchStatusNotifications — wybiera zmiany na wynos/dostawę ze znanym
// klientem i świeżym date_start i równolegle wysyła powiadomienia o
// przejściach statusu. Błędy pojedynczych wysyłek tylko logujemy,
// rodzeństwo leci dalej.
func dispatchStatusNotifications(ctx context.Context, log zerolog.Logger, n Notifier, changes []*TransactionChange, now time.Time) {
	if n == nil {
		return
	}
	var wg sync.WaitGroup
	for _, ch := range changes {
		msg, ok := statusMessage(ch, now)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(ch *TransactionChange, msg string) {
			defer wg.Done()
			if err := n.PushStatus(ctx, *ch.CustomerID, ch.TransactionID, msg); err != nil {
				log.Warn().Err(err).Int64("transaction_id", ch.TransactionID).Msg("push nieudany")
			}
		}(ch, msg)
	}
	wg.Wait()
}

// statusMessage — reguły doboru komunikatu: tylko wynos/dostawa, znany
// klient, świeże zamówienie, faktyczne przejście statusu (albo nowe
// zamówienie wchodzące od razu w przygotowanie).
func statusMessage(ch *TransactionChange, now time.Time) (string, bool) {
	if ch.CustomerID == nil {
		return "", false
	}
	if ch.ServiceMode != ServiceModeTakeaway && ch.ServiceMode != ServiceModeDelivery {
		return "", false
	}
	if ch.DateStart == nil {
		return "", false
	}
	age := now.Sub(*ch.DateStart)
	if age < 0 {
		age = -age
	}
	if age > notifyWindow {
		return "", false
	}

	switch ch.Action {
	case actionUpdated:
		if ch.OldProcessingStatus == nil || *ch.OldProcessingStatus == ch.ProcessingStatus {
			return "", false
		}
	case actionCreated:
		if ch.ProcessingStatus != ProcessingPreparing {
			return "", false
		}
	default:
		return "", false
	}

	msg, ok := statusTemplates[ch.ProcessingStatus]
	return msg, ok
}

// dispatchEvents — eventy cyklu życia do notyfikatora, równolegle, best-effort.
func dispatchEvents(ctx context.Context, log zerolog.Logger, n Notifier, events []CustomerLifecycleEvent) {
	if n == nil {
		return
	}
	var wg sync.WaitGroup
	for _, ev := range events {
		wg.Add(1)
		go func(ev CustomerLifecycleEvent) {
			defer wg.Done()
			if err := n.PushEvent(ctx, ev); err != nil {
				log.Warn().Err(err).Str("type", ev.Type).Int64("customer_id", ev.CustomerID).Msg("event push nieudany")
			}
		}(ev)
	}
	wg.Wait()
}

// webhookNotifier — prosty sink HTTP: POST JSON na skonfigurowany URL.
// Właściwa wysyłka pushy/wallet passów żyje po drugiej stronie webhooka.
type webhookNotifier struct {
	url  string
	http *http.Client
}

func newWebhookNotifier(url string) *webhookNotifier {
	return &webhookNotifier{url: url, http: &http.Client{Timeout: 15 * time.Second}}
}

func (w *webhookNotifier) post(ctx context.Context, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", w.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: http %d", resp.StatusCode)
	}
	return nil
}

func (w *webhookNotifier) PushStatus(ctx context.Context, customerID, transactionID int64, message string) error {
	return w.post(ctx, map[string]any{
		"kind":           "order_status",
		"customer_id":    customerID,
		"transaction_id": transactionID,
		"message":        message,
	})
}

func (w *webhookNotifier) PushEvent(ctx context.Context, ev CustomerLifecycleEvent) error {
	return w.post(ctx, map[string]any{"kind": "lifecycle", "event": ev})
}
