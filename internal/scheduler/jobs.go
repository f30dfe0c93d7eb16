package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

const autoCompleteJobName = "season-auto-complete"

// Completer moves finished series to completed and reports how many changed.
type Completer interface {
	AutoComplete(ctx context.Context) (int, error)
}

// RegisterAutoComplete schedules the season completion sweep. Each run is
// bounded by timeout and detached from any caller.
func RegisterAutoComplete(s *Scheduler, c Completer, cronExpr string, timeout time.Duration, opts ...gocron.JobOption) (gocron.Job, error) {
	return s.AddJob(autoCompleteJobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		n, err := c.AutoComplete(ctx)
		if err != nil {
			log.Error().Err(err).Str("job_name", autoCompleteJobName).Msg("Auto-complete sweep failed")
			return
		}
		log.Info().Int("completed", n).Str("job_name", autoCompleteJobName).Msg("Auto-complete sweep finished")
	}, opts...)
}
