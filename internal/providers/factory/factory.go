package factory

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/outreach/outreach-chat/internal/config"
	"github.com/outreach/outreach-chat/internal/providers"
	"github.com/outreach/outreach-chat/internal/providers/canned"
	"github.com/outreach/outreach-chat/internal/providers/openai"
)

// CreateProvider creates a provider instance based on configuration. Network
// providers are wrapped in a circuit breaker.
func CreateProvider(cfg config.AssistantConfig, logger *logrus.Logger) (providers.Provider, error) {
	var (
		p   providers.Provider
		err error
	)
	switch cfg.Provider {
	case "", "canned":
		p = canned.NewProvider("")
	case "openai", "openai-compatible":
		var remote *openai.Provider
		remote, err = openai.NewProvider(cfg)
		if err == nil {
			p = providers.WithCircuitBreaker(remote, providers.BreakerConfig{}, logger)
		}
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if err := p.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("invalid %s provider config: %w", p.Name(), err)
	}
	return p, nil
}
