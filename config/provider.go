package config

import (
	"sync"
)

// Provider hands out the current configuration and accepts replacements.
// Handlers call Get on every request, so a reload takes effect without a
// restart. The pointer handed out is shared; treat it as read-only.
type Provider struct {
	mu  sync.RWMutex
	cfg *Config
}

func NewProvider(cfg *Config) *Provider {
	return &Provider{cfg: cfg}
}

func (p *Provider) Get() *Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

func (p *Provider) Update(cfg *Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg
}
