// Package jobs submits work to the remote API and owns the per-media-
// kind mapping from failures to well-shaped outputs, so a failed
// remote call never leaves a node without a value.
package jobs

import (
	"context"

	"github.com/rs/zerolog"

	"falbridge/internal/credentials"
	"falbridge/internal/falclient"
	"falbridge/internal/imaging"
	"falbridge/pkg/types"
)

// Fixed degraded outputs for the non-image media kinds.
const (
	videoErrorMessage = "Error: Unable to generate video."
	textErrorMessage  = "Error: Unable to generate text."
)

// Runner submits jobs through the shared credential store.
type Runner struct {
	store  *credentials.Store
	logger zerolog.Logger
}

// NewRunner wires a runner to the shared credential store.
func NewRunner(store *credentials.Store, logger zerolog.Logger) *Runner {
	return &Runner{
		store:  store,
		logger: logger.With().Str("component", "jobs").Logger(),
	}
}

// SubmitAndWait submits arguments to the named endpoint and blocks for
// the terminal result. Failures are logged and returned; there is no
// retry and no partial recovery at this layer. Recovery belongs to the
// per-kind handlers below.
func (r *Runner) SubmitAndWait(ctx context.Context, endpoint string, args map[string]any) (falclient.JobResult, error) {
	jobsSubmittedTotal.WithLabelValues(endpoint).Inc()
	handle, err := r.store.Client().Submit(ctx, endpoint, args)
	if err != nil {
		jobFailuresTotal.WithLabelValues(endpoint).Inc()
		r.logger.Error().Err(err).Str("endpoint", endpoint).Msg("job submission failed")
		return nil, err
	}
	result, err := handle.Get(ctx)
	if err != nil {
		jobFailuresTotal.WithLabelValues(endpoint).Inc()
		r.logger.Error().Err(err).Str("endpoint", endpoint).Str("request_id", handle.RequestID).Msg("job failed")
		return nil, err
	}
	return result, nil
}

// ImageError converts a failed image job into the uniform blank batch.
func (r *Runner) ImageError(model string, err error) types.ImageBatch {
	r.logger.Error().Err(err).Str("model", model).Msg("image generation failed")
	return imaging.BlankImage()
}

// VideoError converts a failed video job into a fixed message output.
func (r *Runner) VideoError(model string, err error) string {
	r.logger.Error().Err(err).Str("model", model).Msg("video generation failed")
	return videoErrorMessage
}

// TextError converts a failed text job into a fixed message output.
func (r *Runner) TextError(model string, err error) string {
	r.logger.Error().Err(err).Str("model", model).Msg("text generation failed")
	return textErrorMessage
}
