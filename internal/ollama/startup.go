package ollama

import (
	"context"
	"fmt"
	"log/slog"
)

// EnsureReady checks that Ollama is running and model is available, pulling
// it when missing and pull is true. It then warms the model up with a
// one-token generation, which forces Ollama to load the weights. Any failure
// is returned: a server that cannot load the model must not start serving.
func EnsureReady(ctx context.Context, c *Client, model string, pull bool, options map[string]any, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if !c.IsRunning(ctx) {
		return fmt.Errorf("ollama is not running; start it with: ollama serve")
	}

	if c.HasModel(ctx, model) {
		logger.Info("model present", "model", model)
	} else {
		if !pull {
			return fmt.Errorf("model %s is not available locally and pulling is disabled", model)
		}
		logger.Info("pulling model", "model", model)
		lastPct := -1
		err := c.PullModel(ctx, model, func(p PullProgress) {
			if p.Total <= 0 {
				logger.Debug("pull progress", "model", model, "status", p.Status)
				return
			}
			pct := int(float64(p.Completed) / float64(p.Total) * 100)
			if pct/10 != lastPct/10 {
				lastPct = pct
				logger.Info("pull progress", "model", model, "status", p.Status, "percent", pct)
			}
		})
		if err != nil {
			return err
		}
		logger.Info("model pulled", "model", model)
	}

	warm := make(map[string]any, len(options)+1)
	for k, v := range options {
		warm[k] = v
	}
	warm["num_predict"] = 1
	logger.Info("warming up model", "model", model)
	if _, err := c.Generate(ctx, model, "ping", warm); err != nil {
		return fmt.Errorf("warming up model %s: %w", model, err)
	}
	return nil
}
