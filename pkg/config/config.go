// Package config defines the rule tables that drive relationship extraction
// and service aggregation. Rules are loaded once at startup and passed into
// the pipeline explicitly; nothing in this package is consulted as global
// state after construction.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Connection kinds understood by the renderer.
const (
	KindDefault  = "default"
	KindDataFlow = "data_flow"
	KindTrigger  = "trigger"
	KindEncrypt  = "encrypt"
)

// ReferenceRule maps a resource attribute to the relationship it implies.
// An attribute like vpc_id referencing an aws_vpc yields a belongs_to_vpc
// relationship.
type ReferenceRule struct {
	Attribute  string `toml:"attribute"`
	Kind       string `toml:"kind"`
	TargetType string `toml:"target_type"`
}

// AggregationRule collapses resource types into one logical service.
// Primary types count toward service presence and multiplicity; secondary
// types attach without triggering creation. InVPC rules de-group: one
// service per primary resource.
type AggregationRule struct {
	Service   string   `toml:"service"`
	Primary   []string `toml:"primary"`
	Secondary []string `toml:"secondary"`
	InVPC     bool     `toml:"in_vpc"`
}

// ConnectionRule emits connections between every pair of services of the
// named source and target types.
type ConnectionRule struct {
	Source string `toml:"source"`
	Target string `toml:"target"`
	Label  string `toml:"label"`
	Kind   string `toml:"kind"`
}

// Rules is the full immutable rule set for one pipeline run.
type Rules struct {
	References   []ReferenceRule   `toml:"reference"`
	Aggregations []AggregationRule `toml:"aggregation"`
	Connections  []ConnectionRule  `toml:"connection"`
}

// Load reads a TOML rule file and validates it. Sections that are absent
// fall back to the built-in defaults, so a file can override just the
// aggregation table while keeping default references and connections.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var rules Rules
	if err := toml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	defaults := Default()
	if len(rules.References) == 0 {
		rules.References = defaults.References
	}
	if len(rules.Aggregations) == 0 {
		rules.Aggregations = defaults.Aggregations
	}
	if len(rules.Connections) == 0 {
		rules.Connections = defaults.Connections
	}

	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return &rules, nil
}

// Validate rejects ambiguous tables. A resource type registered under two
// aggregation rules would make grouping order-dependent, so it is an error
// at load time rather than a silent last-wins at aggregation time.
func (r *Rules) Validate() error {
	owner := make(map[string]string)
	seen := make(map[string]bool)
	for _, rule := range r.Aggregations {
		if rule.Service == "" {
			return fmt.Errorf("aggregation rule with empty service name")
		}
		if seen[rule.Service] {
			return fmt.Errorf("duplicate aggregation rule %q", rule.Service)
		}
		seen[rule.Service] = true
		if len(rule.Primary) == 0 {
			return fmt.Errorf("aggregation rule %q has no primary types", rule.Service)
		}
		for _, t := range append(append([]string{}, rule.Primary...), rule.Secondary...) {
			if prev, dup := owner[t]; dup {
				return fmt.Errorf("resource type %q registered under both %q and %q", t, prev, rule.Service)
			}
			owner[t] = rule.Service
		}
	}

	for _, ref := range r.References {
		if ref.Attribute == "" || ref.TargetType == "" {
			return fmt.Errorf("reference rule needs attribute and target_type: %+v", ref)
		}
	}
	for _, conn := range r.Connections {
		if conn.Source == "" || conn.Target == "" {
			return fmt.Errorf("connection rule needs source and target: %+v", conn)
		}
	}
	return nil
}

// RuleForType returns the aggregation rule owning a resource type.
func (r *Rules) RuleForType(resourceType string) (*AggregationRule, bool) {
	for i := range r.Aggregations {
		rule := &r.Aggregations[i]
		for _, t := range rule.Primary {
			if t == resourceType {
				return rule, true
			}
		}
		for _, t := range rule.Secondary {
			if t == resourceType {
				return rule, true
			}
		}
	}
	return nil, false
}

// IsPrimary reports whether a resource type is a primary type of the rule.
func (a *AggregationRule) IsPrimary(resourceType string) bool {
	for _, t := range a.Primary {
		if t == resourceType {
			return true
		}
	}
	return false
}
