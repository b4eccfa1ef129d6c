package core

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// CatalogEntry is one row of the machine-readable rule catalog (spec.md §6
// "Produced: Catalog export ... an ordered list of {rule_id, rule_title,
// sources, best_practices_reference, config_schema}").
type CatalogEntry struct {
	RuleID                  string             `json:"rule_id" yaml:"rule_id"`
	RuleTitle               string             `json:"rule_title" yaml:"rule_title"`
	Sources                 []string           `json:"sources" yaml:"sources"`
	BestPracticesReference  string             `json:"best_practices_reference" yaml:"best_practices_reference"`
	ConfigSchema            *jsonschema.Schema `json:"config_schema" yaml:"config_schema"`
}

// BuildCatalog enumerates the registry in registration order (spec.md §4.2:
// "ordering within the catalog is registration order").
func BuildCatalog(registry *Registry) []CatalogEntry {
	rules := registry.Rules()
	out := make([]CatalogEntry, 0, len(rules))
	for _, rl := range rules {
		out = append(out, CatalogEntry{
			RuleID:                 rl.ID(),
			RuleTitle:              rl.Title(),
			Sources:                rl.Sources(),
			BestPracticesReference: rl.BestPracticesReference(),
			ConfigSchema:           rl.ConfigSchema(),
		})
	}
	return out
}

// MarshalCatalogJSON renders the catalog as indented JSON.
func MarshalCatalogJSON(entries []CatalogEntry) ([]byte, error) {
	return json.MarshalIndent(entries, "", "  ")
}

// MarshalCatalogYAML renders the catalog as YAML (spec.md §6: "serializable
// as JSON or YAML").
func MarshalCatalogYAML(entries []CatalogEntry) ([]byte, error) {
	return yaml.Marshal(entries)
}
