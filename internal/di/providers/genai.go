package providers

import (
	"github.com/samber/do/v2"

	"github.com/terplogapp/terplog-server/internal/config"
	"github.com/terplogapp/terplog-server/internal/genai"
	"github.com/terplogapp/terplog-server/internal/logger"
	"github.com/terplogapp/terplog-server/internal/ratelimit"
)

// GenAILimiter is the per-user rate limiter for generative calls.
type GenAILimiter struct {
	*ratelimit.KeyedRateLimiter
}

// ProvideGenAILimiter provides the generative backend rate limiter.
// Each user gets a small budget so one client can't drain the quota.
func ProvideGenAILimiter(i do.Injector) (*GenAILimiter, error) {
	return &GenAILimiter{KeyedRateLimiter: ratelimit.New(10.0/60.0, 3)}, nil
}

// ProvideGenerator provides the retrying generative text client.
func ProvideGenerator(i do.Injector) (genai.Generator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := genai.NewOpenAIGenerator(cfg.GenAI, log.Logger)

	log.Info("Generative backend configured",
		"model", cfg.GenAI.Model,
		"base_url", cfg.GenAI.BaseURL,
	)

	return genai.NewRetryingGenerator(client, log.Logger), nil
}
