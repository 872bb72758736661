package export

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Schedule runs the export on a cron spec until ctx is cancelled. The
// first run happens at the first matching tick, not immediately.
func (e *Exporter) Schedule(ctx context.Context, spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := e.Run(ctx); err != nil {
			slog.Error("scheduled export failed", "err", err)
		}
	})
	if err != nil {
		return err
	}

	c.Start()
	<-ctx.Done()

	stop := c.Stop()
	<-stop.Done()
	return ctx.Err()
}
