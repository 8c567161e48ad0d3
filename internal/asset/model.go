package asset

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Event is a strategy event reconstructed from a model artifact.
type Event interface {
	Name() string
}

// EventFactory builds an Event from a stored snapshot.
type EventFactory func(data map[string]any) Event

// eventFactories maps configuration keys to constructors. Explicit
// registration replaces runtime import-based dispatch while keeping the same
// configuration shape.
var eventFactories = map[string]EventFactory{}

func RegisterEventFactory(name string, factory EventFactory) {
	eventFactories[name] = factory
}

// ModelConfig describes one machine-learning model attached to a pair.
type ModelConfig struct {
	BasePath    string `mapstructure:"base_path"`
	ModelSuffix string `mapstructure:"model_suffix"`
	EventType   string `mapstructure:"event_type"`
}

// Model is a resolved artifact path plus the event constructor for its
// predictions.
type Model struct {
	ModelPath string
	NewEvent  EventFactory
}

// ConfigureModels resolves artifact paths under the pair's data directory and
// binds each model to its registered event factory.
func (p *Pair) ConfigureModels(models map[string]ModelConfig) error {
	if p.Models == nil {
		p.Models = make(map[string]Model, len(models))
	}
	for key, cfg := range models {
		factory, ok := eventFactories[cfg.EventType]
		if !ok {
			return fmt.Errorf("asset: no event factory registered for %q", cfg.EventType)
		}
		p.Models[key] = Model{
			ModelPath: filepath.Join(p.entityDir(cfg.BasePath), strings.ToLower(p.ID)+cfg.ModelSuffix),
			NewEvent:  factory,
		}
	}
	return nil
}
