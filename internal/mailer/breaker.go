package mailer

import (
	"context"
	"fmt"

	"pentamaths/pkg/circuitbreaker"
)

// CircuitBreakerProvider stops calling a provider that keeps failing.
type CircuitBreakerProvider struct {
	provider Provider
	cb       *circuitbreaker.Wrapper
}

func NewCircuitBreakerProvider(provider Provider, cfg circuitbreaker.Config) *CircuitBreakerProvider {
	return &CircuitBreakerProvider{
		provider: provider,
		cb:       circuitbreaker.NewWrapper(cfg),
	}
}

func (p *CircuitBreakerProvider) Name() string {
	return p.provider.Name()
}

func (p *CircuitBreakerProvider) Send(ctx context.Context, msg Message) error {
	_, err := p.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return nil, p.provider.Send(ctx, msg)
	})
	if err != nil && circuitbreaker.IsRejection(err) {
		return fmt.Errorf("circuit breaker is open for %s: %w", p.provider.Name(), err)
	}
	return err
}

func (p *CircuitBreakerProvider) Unwrap() Provider {
	return p.provider
}

// Underlying strips decorators such as the circuit breaker.
func Underlying(p Provider) Provider {
	for {
		u, ok := p.(interface{ Unwrap() Provider })
		if !ok {
			return p
		}
		p = u.Unwrap()
	}
}

func (p *CircuitBreakerProvider) IsOpen() bool {
	return p.cb.IsOpen()
}
