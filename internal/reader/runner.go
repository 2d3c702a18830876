// internal/reader/runner.go
package reader

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Run polls until ctx is done. The transceiver's bounded wait paces the
// loop; there is no backoff and no retry limit. Transport errors are
// logged and absorbed.
func (r *Reader) Run(ctx context.Context, emit func(Frame), logger *log.Entry) error {
	if logger == nil {
		logger = log.WithField("component", "reader")
	}
	logger.Info("starting")

	failing := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		res := r.PollOnce(emit)
		switch {
		case res.Err != nil && !failing:
			logger.WithError(res.Err).Warn("serial read failed")
			failing = true
		case res.Err != nil:
			logger.WithError(res.Err).Debug("serial read failed")
		case failing:
			logger.Info("serial read recovered")
			failing = false
		}
	}
}
