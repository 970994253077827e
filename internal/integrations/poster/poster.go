// internal/integrations/poster/poster.go
package poster

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bartek5186/possync/internal/integrations"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Config struct {
	BaseURL        string `json:"base_url"` // https://joinposter.com
	Token          string `json:"token"`
	PollSec        int    `json:"poll_sec"` // co ile sekund odpalać bieg
	ChunkDays      int    `json:"chunk_days"`
	MaxPerChunk    int    `json:"max_per_chunk"`
	PushWebhookURL string `json:"push_webhook_url"` // pusty = bez powiadomień
}

type Poster struct {
	log      zerolog.Logger
	cfg      Config
	src      Source
	gdb      *gorm.DB
	notifier Notifier

	ctx    context.Context
	cancel context.CancelFunc
}

func (p *Poster) Name() string { return "poster" }

func (p *Poster) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.log.Info().Str("integration", p.Name()).Msg("start")

	ticker := time.NewTicker(p.interval())
	defer ticker.Stop()

	// pierwszy strzał od razu
	p.tick()

	for {
		select {
		case <-p.ctx.Done():
			p.log.Info().Str("integration", p.Name()).Msg("stop")
			return nil
		case <-ticker.C:
			p.tick()
			// jeśli ktoś zmieni PollSec w locie → odśwież
			ticker.Reset(p.interval())
		}
	}
}

func (p *Poster) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Poster) interval() time.Duration {
	sec := p.cfg.PollSec
	if sec <= 0 {
		sec = 300
	}
	return time.Duration(sec) * time.Second
}

func (p *Poster) tick() {
	sum, err := RunSync(p.ctx, p.log, p.src, p.gdb, p.notifier, RunOptions{
		ChunkDays:   p.cfg.ChunkDays,
		MaxPerChunk: p.cfg.MaxPerChunk,
	})
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			p.log.Warn().Msg("poprzedni bieg jeszcze trwa — pomijam tick")
			return
		}
		p.log.Error().Err(err).Msg("bieg synchronizacji nieudany")
		return
	}
	if sum.Errors > 0 {
		p.log.Warn().Int("errors", sum.Errors).Strs("samples", sum.ErrorSamples).Msg("bieg z błędami")
	}
}

func factory(log zerolog.Logger, raw json.RawMessage, deps integrations.Deps) (integrations.Integration, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	if deps.DB == nil {
		return nil, errors.New("poster: brak uchwytu bazy")
	}

	var notifier Notifier
	if cfg.PushWebhookURL != "" {
		notifier = newWebhookNotifier(cfg.PushWebhookURL)
	}

	return &Poster{
		log:      log,
		cfg:      cfg,
		src:      NewClient(cfg.BaseURL, cfg.Token),
		gdb:      deps.DB,
		notifier: notifier,
	}, nil
}

func init() {
	integrations.Register("poster", factory)
}
