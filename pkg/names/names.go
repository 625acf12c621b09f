// Package names assigns stable anonymized display names to entity ids. The
// mapping is bijective per store: previously unseen ids get a freshly
// generated unique name that is persisted, known ids always resolve to the
// same name. The optimizer core only ever consumes the mapping for
// presentation, never for identity or eligibility logic.
package names

import (
	"fmt"
	"math/rand"
	"sync"
)

// Store persists an id→name mapping. Implementations must return an empty
// map, not an error, when nothing has been stored yet.
type Store interface {
	Load() (map[string]string, error)
	Save(mappings map[string]string) error
}

var firstNames = []string{
	"Anna", "Max", "Sophie", "Tom", "Emma", "Lukas", "Hannah", "Felix", "Mia", "Noah",
	"Lena", "Ben", "Laura", "Jonas", "Sarah", "Paul", "Julia", "Finn", "Lisa", "Leon",
	"Maria", "Tim", "Emily", "David", "Clara", "Julian", "Amelie", "Moritz", "Marie", "Niklas",
	"Luisa", "Elias", "Charlotte", "Anton", "Johanna", "Theo", "Lina", "Jakob", "Nora", "Samuel",
}

var lastNames = []string{
	"Müller", "Schmidt", "Schneider", "Fischer", "Weber", "Meyer", "Wagner", "Becker", "Schulz", "Hoffmann",
	"Koch", "Bauer", "Richter", "Klein", "Wolf", "Schröder", "Neumann", "Schwarz", "Zimmermann", "Braun",
	"Krüger", "Hofmann", "Hartmann", "Lange", "Schmitt", "Werner", "Schmitz", "Krause", "Meier", "Lehmann",
	"Schmid", "Schulze", "Maier", "Köhler", "Herrmann", "König", "Walter", "Huber", "Mayer", "Peters",
}

// Generator hands out anonymized names backed by an injected store. The
// mapping is loaded once and flushed on every extension; the Generator is
// safe for concurrent use.
type Generator struct {
	store    Store
	generate func(rng *rand.Rand) string
	rng      *rand.Rand

	mu       sync.Mutex
	mappings map[string]string
}

// NewPersonGenerator creates a generator producing "First Last" names
func NewPersonGenerator(store Store) *Generator {
	return newGenerator(store, func(rng *rand.Rand) string {
		return firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
	})
}

// NewSchoolGenerator creates a generator producing "<LastName>-Schule" names
func NewSchoolGenerator(store Store) *Generator {
	return newGenerator(store, func(rng *rand.Rand) string {
		return lastNames[rng.Intn(len(lastNames))] + "-Schule"
	})
}

func newGenerator(store Store, generate func(*rand.Rand) string) *Generator {
	return &Generator{
		store:    store,
		generate: generate,
		rng:      rand.New(rand.NewSource(rand.Int63())),
	}
}

// EnsureNames returns the display name for every given id, generating and
// persisting unique names for ids seen for the first time
func (g *Generator) EnsureNames(ids []string) (map[string]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.mappings == nil {
		loaded, err := g.store.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load name mappings: %w", err)
		}
		if loaded == nil {
			loaded = make(map[string]string)
		}
		g.mappings = loaded
	}

	used := make(map[string]bool, len(g.mappings))
	for _, name := range g.mappings {
		used[name] = true
	}

	updated := false
	for _, id := range ids {
		if _, ok := g.mappings[id]; ok {
			continue
		}
		name := g.uniqueName(used)
		g.mappings[id] = name
		used[name] = true
		updated = true
	}

	if updated {
		if err := g.store.Save(g.mappings); err != nil {
			return nil, fmt.Errorf("failed to persist name mappings: %w", err)
		}
	}

	result := make(map[string]string, len(ids))
	for _, id := range ids {
		result[id] = g.mappings[id]
	}
	return result, nil
}

const maxGenerationAttempts = 10000

func (g *Generator) uniqueName(used map[string]bool) string {
	for i := 0; i < maxGenerationAttempts; i++ {
		if name := g.generate(g.rng); !used[name] {
			return name
		}
	}
	// The pool is effectively exhausted; disambiguate with a suffix.
	base := g.generate(g.rng)
	for i := 0; ; i++ {
		candidate := fmt.Sprintf("%s (%d)", base, i)
		if !used[candidate] {
			return candidate
		}
	}
}
