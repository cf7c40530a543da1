package remote

import (
	"context"
	"fmt"

	"github.com/crimson-sun/leafcheck/internal/engine/inference"
	"github.com/crimson-sun/leafcheck/internal/engine/ranking"
	"github.com/crimson-sun/leafcheck/internal/model"
)

func init() {
	inference.Register("remote", func(cfg inference.Config) (inference.Provider, error) {
		if len(cfg.Labels) == 0 {
			return nil, fmt.Errorf("remote: %w: no class labels configured", inference.ErrInitialization)
		}
		return NewProvider(New(cfg.Endpoint, WithTimeout(cfg.Timeout)), cfg.Labels), nil
	})
}

// Provider classifies images through a remote endpoint and ranks the
// returned probability vector against a fixed label order.
type Provider struct {
	client *Client
	labels []string
}

// NewProvider creates a Provider. labels must list the classes in the same
// order as the endpoint's probability vector.
func NewProvider(client *Client, labels []string) *Provider {
	l := make([]string, len(labels))
	copy(l, labels)
	return &Provider{client: client, labels: l}
}

// Name implements inference.Provider.
func (p *Provider) Name() string { return "remote" }

// Classify posts img and ranks the response. When the endpoint omits the
// class, the top-ranked label is used instead.
func (p *Provider) Classify(ctx context.Context, img model.Image) (model.Prediction, error) {
	resp, err := p.client.Predict(ctx, img)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("remote: %w", err)
	}

	ranked := ranking.Rank(resp.Probabilities, p.labels)
	class := resp.Class
	if !resp.HasClass {
		class = ranked.Top().Label
	}
	return model.Prediction{Class: class, Ranked: ranked}, nil
}

// Close implements inference.Provider.
func (p *Provider) Close() error {
	p.client.httpClient.CloseIdleConnections()
	return nil
}
