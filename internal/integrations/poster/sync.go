package poster

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bartek5186/possync/internal/db"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RunSummary — wynik jednego biegu synchronizacji.
type RunSummary struct {
	Created        int
	Updated        int
	Errors         int
	ErrorSamples   []string // max 5 pierwszych komunikatów
	FetchedCount   int
	ToProcessCount int
	StartCursor    int64
}

func (s *RunSummary) addSample(msg string) {
	if len(s.ErrorSamples) < maxErrorSamples {
		s.ErrorSamples = append(s.ErrorSamples, msg)
	}
}

const (
	maxErrorSamples = 5

	// bramki warstw
	allEvery   = 30 * 24 * time.Hour
	monthEvery = 7 * 24 * time.Hour
	weekEvery  = 24 * time.Hour

	allWindowDays   = 3650 // ~10 lat
	monthWindowDays = 30
	weekWindowDays  = 7

	leaseKey = "poster:sync_lease"
	leaseTTL = 15 * time.Minute
)

// ErrRunInProgress — inny bieg trzyma świeży lease; harmonogram nie daje
// gwarancji single-flight, więc pilnujemy tego sami w magazynie stanu.
var ErrRunInProgress = errors.New("inny bieg synchronizacji trzyma lease")

// tierDef — jedna warstwa świeżości. Każda ma własną bramkę czasową,
// okno dat i (tylko today) twardy stop na kursorze.
type tierDef struct {
	name      string
	needed    func(st *db.SyncState, now time.Time) bool
	window    func(now time.Time) (time.Time, time.Time)
	useCursor bool
	markDone  func(st *db.SyncState, now time.Time)
}

var tiers = []tierDef{
	{
		name: "all",
		needed: func(st *db.SyncState, now time.Time) bool {
			return st.LastAllSyncAt == nil || now.Sub(*st.LastAllSyncAt) > allEvery
		},
		window: func(now time.Time) (time.Time, time.Time) {
			return now.AddDate(0, 0, -allWindowDays), now
		},
		markDone: func(st *db.SyncState, now time.Time) { st.LastAllSyncAt = &now },
	},
	{
		name: "month",
		needed: func(st *db.SyncState, now time.Time) bool {
			return st.LastMonthSyncAt == nil || now.Sub(*st.LastMonthSyncAt) > monthEvery
		},
		window: func(now time.Time) (time.Time, time.Time) {
			return now.AddDate(0, 0, -monthWindowDays), now
		},
		markDone: func(st *db.SyncState, now time.Time) { st.LastMonthSyncAt = &now },
	},
	{
		name: "week",
		needed: func(st *db.SyncState, now time.Time) bool {
			return st.LastWeekSyncAt == nil || now.Sub(*st.LastWeekSyncAt) > weekEvery
		},
		window: func(now time.Time) (time.Time, time.Time) {
			return now.AddDate(0, 0, -weekWindowDays), now
		},
		markDone: func(st *db.SyncState, now time.Time) { st.LastWeekSyncAt = &now },
	},
	{
		name:   "today",
		needed: func(st *db.SyncState, now time.Time) bool { return true },
		window: func(now time.Time) (time.Time, time.Time) {
			return localMidnight(now), now
		},
		useCursor: true,
		markDone:  func(st *db.SyncState, now time.Time) { st.LastTodaySyncAt = &now },
	},
}

func localMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// RunOptions — parametry biegu; zerowe pola dostają wartości domyślne.
type RunOptions struct {
	Now         time.Time
	ChunkDays   int
	MaxPerChunk int
}

// RunSync — jeden logiczny bieg: warstwy po kolei (all → month → week →
// today), per warstwa fetch + sekwencyjne upserty + post-pass eventów
// i powiadomień. Bramka warstwy zapisywana dopiero po jej ukończeniu,
// więc crash w środku zostawia warstwę do powtórki (at-least-once).
// Błąd pojedynczego rekordu nigdy nie przerywa warstwy; błąd fetchu
// przerywa bieg, ale wraca jako podsumowanie, nie jako error.
func RunSync(ctx context.Context, log zerolog.Logger, src Source, gdb *gorm.DB, notifier Notifier, opts RunOptions) (*RunSummary, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	st, err := loadSyncState(gdb)
	if err != nil {
		return nil, err
	}

	if err := acquireLease(gdb, now); err != nil {
		return nil, err
	}
	defer releaseLease(gdb)

	// cache żyje dokładnie jeden bieg i jest jawnie wstrzykiwany wszędzie
	r := &resolver{log: log, gdb: gdb, src: src, cache: newRunCache()}

	sum := &RunSummary{}
	if st.LastTransactionID != nil {
		sum.StartCursor = *st.LastTransactionID
	}

	for _, tier := range tiers {
		if !tier.needed(st, now) {
			continue
		}
		from, to := tier.window(now)
		tlog := log.With().Str("tier", tier.name).Logger()

		fetched, err := fetchRange(ctx, src, from, to, opts.ChunkDays, opts.MaxPerChunk)
		if err != nil {
			// fatalne dla biegu: raportujemy i oddajemy podsumowanie zamiast wyjątku
			sum.Errors++
			sum.addSample(fmt.Sprintf("fetch %s: %v", tier.name, err))
			tlog.Error().Err(err).Msg("fetch warstwy nieudany — przerywam bieg")
			return sum, nil
		}
		sum.FetchedCount += len(fetched)

		// sortuj malejąco po id, odetnij na kursorze (tylko today), odwróć —
		// przetwarzamy od najstarszych, żeby diff i eventy miały porządek
		// przyczynowy
		sort.Slice(fetched, func(i, j int) bool {
			return i64(fetched[i].TransactionID) > i64(fetched[j].TransactionID)
		})

		// najwyższe id snapshotujemy od razu po sortowaniu: toProcess dzieli
		// tablicę z fetched, więc reverse niżej przestawia też fetched
		var maxID int64
		if len(fetched) > 0 {
			maxID = i64(fetched[0].TransactionID)
		}

		toProcess := fetched
		if tier.useCursor && st.LastTransactionID != nil {
			cursor := *st.LastTransactionID
			cut := len(fetched)
			for i, t := range fetched {
				if i64(t.TransactionID) <= cursor {
					cut = i
					break
				}
			}
			toProcess = fetched[:cut]
		}
		reverse(toProcess)
		sum.ToProcessCount += len(toProcess)

		var changes []*TransactionChange
		for _, raw := range toProcess {
			change, err := r.upsertTransaction(ctx, raw)
			if err != nil {
				sum.Errors++
				sum.addSample(err.Error())
				tlog.Error().Err(err).Str("transaction_id", raw.TransactionID).Msg("upsert transakcji nieudany")
				continue
			}
			if change.Action == actionCreated {
				sum.Created++
			} else {
				sum.Updated++
			}
			changes = append(changes, change)
		}

		// post-pass: eventy + powiadomienia (wzbogacenie, nie twarda gwarancja)
		events := r.deriveEvents(ctx, changes)
		dispatchEvents(ctx, tlog, notifier, events)
		dispatchStatusNotifications(ctx, tlog, notifier, changes, now)

		// kursor today: najwyższe zaobserwowane id, niezależnie od błędów
		// per rekord — lepiej przeskoczyć zatruty rekord niż stanąć na nim
		if tier.useCursor && len(fetched) > 0 {
			if st.LastTransactionID == nil || maxID > *st.LastTransactionID {
				st.LastTransactionID = &maxID
			}
		}
		tier.markDone(st, now)
		if err := saveSyncState(gdb, st); err != nil {
			return sum, fmt.Errorf("zapis stanu synchronizacji: %w", err)
		}
		tlog.Info().Int("fetched", len(fetched)).Int("processed", len(toProcess)).Msg("warstwa ukończona")
	}

	log.Info().
		Int("created", sum.Created).
		Int("updated", sum.Updated).
		Int("errors", sum.Errors).
		Int("fetched", sum.FetchedCount).
		Int64("start_cursor", sum.StartCursor).
		Msg("bieg synchronizacji ukończony")
	return sum, nil
}

func reverse(s []RawTransaction) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func loadSyncState(gdb *gorm.DB) (*db.SyncState, error) {
	var st db.SyncState
	err := gdb.Where("id = ?", 1).Take(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		st = db.SyncState{ID: 1}
		if err := gdb.Create(&st).Error; err != nil {
			return nil, err
		}
		return &st, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func saveSyncState(gdb *gorm.DB, st *db.SyncState) error {
	return gdb.Save(st).Error
}

// acquireLease — krótki lease w kv przeciw nakładającym się biegom.
// Świeży lease innego biegu = odmowa; przeterminowany (crash) przejmujemy.
func acquireLease(gdb *gorm.DB, now time.Time) error {
	var kv db.KV
	err := gdb.Where("k = ?", leaseKey).Take(&kv).Error
	if err == nil {
		if ts, perr := time.Parse(time.RFC3339, kv.V); perr == nil && now.Sub(ts) < leaseTTL {
			return ErrRunInProgress
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	row := db.KV{K: leaseKey, V: now.UTC().Format(time.RFC3339)}
	return gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "k"}},
		DoUpdates: clause.AssignmentColumns([]string{"v"}),
	}).Create(&row).Error
}

func releaseLease(gdb *gorm.DB) {
	_ = gdb.Where("k = ?", leaseKey).Delete(&db.KV{}).Error
}
