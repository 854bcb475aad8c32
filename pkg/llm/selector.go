package llm

import (
	"errors"
	"fmt"
)

// ErrNoProvider is returned when no provider in the priority list has credentials
var ErrNoProvider = errors.New("no model provider with credentials available")

// DefaultPriority is the provider search order
var DefaultPriority = []string{ProviderOpenAI, ProviderAnthropic, ProviderGoogle, ProviderDeepSeek, ProviderOpenCode}

// DefaultModels are the small models used per provider
var DefaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-haiku-4-5",
	ProviderGoogle:    "gemini-2.0-flash",
	ProviderDeepSeek:  "deepseek-chat",
	ProviderOpenCode:  "big-pickle",
}

// Factory builds a provider client
type Factory func(cfg ProviderConfig) (Provider, error)

// Selector picks the first usable provider in priority order
type Selector struct {
	creds    *Credentials
	priority []string
	models   map[string]string
	factory  Factory
}

// Selection is a chosen provider and model
type Selection struct {
	Provider Provider
	Model    string
	Source   string
}

// NewSelector creates a selector. Nil priority or models use the defaults;
// models missing from the map fall back to DefaultModels.
func NewSelector(creds *Credentials, priority []string, models map[string]string, factory Factory) *Selector {
	if len(priority) == 0 {
		priority = DefaultPriority
	}
	if factory == nil {
		factory = NewProvider
	}
	merged := make(map[string]string, len(DefaultModels))
	for k, v := range DefaultModels {
		merged[k] = v
	}
	for k, v := range models {
		if v != "" {
			merged[k] = v
		}
	}

	return &Selector{
		creds:    creds,
		priority: priority,
		models:   merged,
		factory:  factory,
	}
}

// Select returns the first provider with credentials and a model
func (s *Selector) Select() (*Selection, error) {
	var errs []error
	for _, name := range s.priority {
		model := s.models[name]
		if model == "" {
			continue
		}
		cred, ok := s.creds.Lookup(name)
		if !ok {
			continue
		}

		provider, err := s.factory(ProviderConfig{Name: name, APIKey: cred.APIKey, BaseURL: cred.BaseURL})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		return &Selection{Provider: provider, Model: model, Source: cred.Source}, nil
	}

	if len(errs) > 0 {
		return nil, errors.Join(append([]error{ErrNoProvider}, errs...)...)
	}
	return nil, ErrNoProvider
}
