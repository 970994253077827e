package poster

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultChunkDays   = 30
	defaultMaxPerChunk = 1000
)

// fetchRange — adaptacyjne pobieranie zakresu dat bez prawdziwej paginacji
// po stronie źródła. Okno ≤ chunkDays: jeden strzał; jeśli wynik przekroczy
// maxPerChunk a okno ma więcej niż dzień, bisekcja w połowie i rekurencja
// równolegle na obu połówkach. Okno > chunkDays: podział na spójne kawałki
// po chunkDays dni (każdy zaczyna 1ms po końcu poprzedniego, ostatni
// przycięty do dateTo), wszystkie pobierane równolegle z pełną barierą.
// Bez retry — błąd dowolnego kawałka przerywa całość.
func fetchRange(ctx context.Context, src Source, from, to time.Time, chunkDays, maxPerChunk int) ([]RawTransaction, error) {
	if chunkDays <= 0 {
		chunkDays = defaultChunkDays
	}
	if maxPerChunk <= 0 {
		maxPerChunk = defaultMaxPerChunk
	}

	chunk := time.Duration(chunkDays) * 24 * time.Hour
	span := to.Sub(from)

	if span <= chunk {
		res, err := src.GetTransactions(ctx, from, to)
		if err != nil {
			return nil, err
		}
		if len(res) > maxPerChunk && span > 24*time.Hour {
			// za dużo na jeden strzał — bisekcja w połowie okna
			mid := from.Add(span / 2)
			var left, right []RawTransaction
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				left, err = fetchRange(gctx, src, from, mid, chunkDays, maxPerChunk)
				return err
			})
			g.Go(func() error {
				var err error
				right, err = fetchRange(gctx, src, mid.Add(time.Millisecond), to, chunkDays, maxPerChunk)
				return err
			})
			if err := g.Wait(); err != nil {
				return nil, err
			}
			return append(left, right...), nil
		}
		return res, nil
	}

	// okno dłuższe niż chunkDays — tniemy i pobieramy równolegle
	type window struct{ from, to time.Time }
	var windows []window
	start := from
	for start.Before(to) {
		end := start.Add(chunk)
		if end.After(to) {
			end = to
		}
		windows = append(windows, window{start, end})
		start = end.Add(time.Millisecond)
	}

	results := make([][]RawTransaction, len(windows))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range windows {
		i, w := i, w
		g.Go(func() error {
			res, err := fetchRange(gctx, src, w.from, w.to, chunkDays, maxPerChunk)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []RawTransaction
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}
