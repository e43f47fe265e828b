package plan

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mealplan-generator/internal/pkg/common"
	"mealplan-generator/internal/storage/image"
	"mealplan-generator/internal/storage/recipe"
)

const enrichTimeout = 2 * time.Minute

// Enricher replaces a saved recipe's transient image reference with a
// durable one. Strictly fire-and-forget: callers never wait on it, failures
// only leave a log line and the transient reference stays in place.
type Enricher struct {
	store  recipe.Store
	images image.Store
}

// NewEnricher creates the image enricher.
func NewEnricher(store recipe.Store, images image.Store) *Enricher {
	return &Enricher{
		store:  store,
		images: images,
	}
}

// Enqueue starts the enrichment in the background and returns immediately.
// Runs detached from the request context; the record may be updated well
// after the caller's response went out.
func (e *Enricher) Enqueue(rec *recipe.Recipe) {
	if e == nil || e.images == nil {
		return
	}
	if rec.ImageURL == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
		defer cancel()

		durableURL, err := e.images.StoreDurable(ctx, rec.ImageURL, rec.ID)
		if err != nil {
			common.LogWarn("image enrichment failed, keeping transient reference",
				zap.Error(err),
				zap.String("recipe_id", rec.ID.String()),
			)
			return
		}

		if err := e.store.UpdateDurableImage(ctx, rec.ID, durableURL); err != nil {
			common.LogWarn("failed to persist durable image reference",
				zap.Error(err),
				zap.String("recipe_id", rec.ID.String()),
			)
			return
		}

		common.LogDebug("image enrichment completed",
			zap.String("recipe_id", rec.ID.String()),
			zap.String("durable_url", durableURL),
		)
	}()
}
