// internal/integrations/types.go
package integrations

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Integration interface {
	Name() string
	Start(ctx context.Context) error // blokuje do ctx.Done (long-running) lub odpala własną pętlę
	Stop()                           // idempotent
}

// Deps — zależności wstrzykiwane jawnie do każdej integracji
// (żadnych wartości przemycanych przez context).
type Deps struct {
	DB *gorm.DB
}

type Factory func(log zerolog.Logger, raw json.RawMessage, deps Deps) (Integration, error)
