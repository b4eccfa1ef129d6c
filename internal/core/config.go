package core

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// BaseConfig carries the fields every rule config shares per spec.md §4.1:
// "All rules support at minimum enabled (default true) and amount_quantize."
// Rule-specific config structs embed this.
type BaseConfig struct {
	Enabled        *bool  `json:"enabled,omitempty" jsonschema_description:"Whether this rule is evaluated at all. Defaults to true; false yields NOT_APPLICABLE without evaluation."`
	AmountQuantize string `json:"amount_quantize,omitempty" jsonschema_description:"A decimal increment (e.g. \"0.01\") amounts are rounded to (banker's rounding) before comparison. Omit for exact decimal equality."`
}

// IsEnabled reports whether the rule should run, defaulting to true.
func (b BaseConfig) IsEnabled() bool {
	return b.Enabled == nil || *b.Enabled
}

// Quantization resolves this config's amount_quantize into the places/
// configured pair that internal/core/decimal.go's Quantize expects.
func (b BaseConfig) Quantization() (places int32, configured bool, err error) {
	return ParseQuantize(b.AmountQuantize)
}

// ConfigError wraps a rule config payload that fails to decode into its
// rule's typed config model — a ConfigurationError per spec.md §7. Rules
// convert this into a NEEDS_REVIEW result with a "configuration invalid"
// summary rather than aborting the run.
type ConfigError struct {
	RuleID string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("rule %s: configuration invalid: %v", e.RuleID, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DecodeConfig decodes a rule's raw config payload (as stored in
// ClientRulesConfig.Rules[ruleID]) into its typed config model T. A nil
// raw payload decodes to T's zero value, i.e. the rule's defaults.
//
// Unknown fields are tolerated per spec.md §7 ("unknown field may be
// ignored"); a genuine type mismatch (e.g. a string where a number is
// expected) is fatal and returned as a *ConfigError.
func DecodeConfig[T any](ruleID string, raw map[string]any) (T, error) {
	var cfg T
	if raw == nil {
		return cfg, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return cfg, &ConfigError{RuleID: ruleID, Err: err}
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		// Retry leniently: an "unknown field" rejection is allowed by
		// spec.md §7, a type-mismatch rejection is not.
		var lenient T
		if err2 := json.Unmarshal(b, &lenient); err2 != nil {
			return cfg, &ConfigError{RuleID: ruleID, Err: err2}
		}
		return lenient, nil
	}
	return cfg, nil
}

// schemaReflector builds JSON schemas for rule config models. A single
// shared reflector keeps the schema $id/$ref conventions consistent across
// the whole catalog export.
var schemaReflector = &jsonschema.Reflector{
	DoNotReference: true,
	ExpandedStruct: true,
}

// SchemaFor builds the JSON schema for a rule's config model T, used by
// the catalog export (spec.md §2 item 8, §6 "Produced: Catalog export").
func SchemaFor[T any]() *jsonschema.Schema {
	return schemaReflector.Reflect(new(T))
}
