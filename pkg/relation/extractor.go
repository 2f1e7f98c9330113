// Package relation derives typed edges between resources by scanning
// attribute values for cross-references. Scanning is structural: the
// attribute tree is walked with a depth cap and regexes only ever run
// against string leaves.
package relation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/stackplot/stackplot/pkg/config"
	"github.com/stackplot/stackplot/pkg/terraform"
)

// maxScanDepth bounds the attribute tree walk.
const maxScanDepth = 5

var (
	moduleRefRE = regexp.MustCompile(`module\.(\w+)\.`)
	dlqRefRE    = regexp.MustCompile(`aws_sqs_queue\.(\w+)\.arn`)
	sgRefRE     = regexp.MustCompile(`aws_security_group\.(\w+)`)
)

// Plumbing types excluded from the catch-all deep scan. References to these
// are ubiquitous wiring, not meaningful service relationships.
var deepScanExcluded = map[string]bool{
	"aws_security_group":          true,
	"aws_security_group_rule":     true,
	"aws_iam_role":                true,
	"aws_iam_policy":              true,
	"aws_iam_role_policy":         true,
	"aws_subnet":                  true,
	"aws_vpc":                     true,
	"aws_route_table":             true,
	"aws_route_table_association": true,
	"aws_eip":                     true,
	"aws_network_interface":       true,
}

// Extractor finds relationships between parsed resources.
type Extractor struct {
	rules  *config.Rules
	logger *log.Logger

	typeRefRE map[string]*regexp.Regexp
}

// NewExtractor builds an Extractor over an immutable rule set.
func NewExtractor(rules *config.Rules, logger *log.Logger) *Extractor {
	if rules == nil {
		rules = config.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Extractor{
		rules:     rules,
		logger:    logger,
		typeRefRE: make(map[string]*regexp.Regexp),
	}
}

// Extract appends relationships to the parse result and returns them.
// Passes run in a fixed order so output order is stable: reference rules,
// deep scan, DLQ, security groups.
func (e *Extractor) Extract(result *terraform.ParseResult) []terraform.Relationship {
	byType := result.ResourcesByType()

	var rels []terraform.Relationship
	for _, res := range result.Resources {
		rels = append(rels, e.extractAttributeRefs(res, byType)...)
	}
	for _, res := range result.Resources {
		rels = append(rels, e.deepScan(res, byType, rels)...)
	}
	for _, res := range result.Resources {
		if rel, ok := extractDLQ(res, byType); ok {
			rels = append(rels, rel)
		}
	}
	rels = append(rels, extractSecurityGroups(result.Resources, byType)...)

	e.logger.Debug("extracted relationships", "count", len(rels))
	result.Relationships = append(result.Relationships, rels...)
	return rels
}

// extractAttributeRefs applies the configured attribute rules to one
// resource.
func (e *Extractor) extractAttributeRefs(res *terraform.Resource, byType map[string][]*terraform.Resource) []terraform.Relationship {
	var rels []terraform.Relationship
	for _, rule := range e.rules.References {
		value, ok := res.Attributes[rule.Attribute]
		if !ok || value == nil {
			continue
		}
		for _, target := range e.findReferenced(value, rule.TargetType, byType) {
			if target.FullID() == res.FullID() {
				continue
			}
			rels = append(rels, terraform.Relationship{
				SourceID: res.FullID(),
				TargetID: target.FullID(),
				Kind:     rule.Kind,
			})
		}
	}
	return rels
}

// findReferenced resolves type.name tokens and module references inside a
// value tree to known resources, preserving first-seen order.
func (e *Extractor) findReferenced(value any, targetType string, byType map[string][]*terraform.Resource) []*terraform.Resource {
	var found []*terraform.Resource
	seen := make(map[string]bool)

	re := e.typeRef(targetType)
	walkStrings(value, 0, func(s string) {
		for _, m := range re.FindAllStringSubmatch(s, -1) {
			if res := firstNamed(byType[targetType], m[1]); res != nil && !seen[res.FullID()] {
				seen[res.FullID()] = true
				found = append(found, res)
			}
		}
		for _, m := range moduleRefRE.FindAllStringSubmatch(s, -1) {
			if res := firstInModule(byType[targetType], m[1]); res != nil && !seen[res.FullID()] {
				seen[res.FullID()] = true
				found = append(found, res)
			}
		}
	})
	return found
}

// deepScan is the catch-all pass: any type.name token for a type present in
// the resource set becomes a generic references edge, except tokens of the
// resource's own type and the plumbing exclusions.
func (e *Extractor) deepScan(res *terraform.Resource, byType map[string][]*terraform.Resource, existing []terraform.Relationship) []terraform.Relationship {
	known := make(map[string]bool)
	for _, rel := range existing {
		if rel.SourceID == res.FullID() {
			known[rel.TargetID] = true
		}
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		if t == res.Type || deepScanExcluded[t] {
			continue
		}
		types = append(types, t)
	}
	sort.Strings(types)

	var rels []terraform.Relationship
	for _, t := range types {
		for _, target := range e.findReferenced(res.Attributes, t, byType) {
			id := target.FullID()
			if id == res.FullID() || known[id] {
				continue
			}
			known[id] = true
			rels = append(rels, terraform.Relationship{
				SourceID: res.FullID(),
				TargetID: id,
				Kind:     terraform.KindReferences,
			})
		}
	}
	return rels
}

func extractDLQ(res *terraform.Resource, byType map[string][]*terraform.Resource) (terraform.Relationship, bool) {
	if res.Type != "aws_sqs_queue" {
		return terraform.Relationship{}, false
	}
	redrive, ok := res.Attributes["redrive_policy"].(string)
	if !ok || redrive == "" {
		return terraform.Relationship{}, false
	}
	m := dlqRefRE.FindStringSubmatch(redrive)
	if m == nil {
		return terraform.Relationship{}, false
	}
	dlq := firstNamed(byType["aws_sqs_queue"], m[1])
	if dlq == nil || dlq.FullID() == res.FullID() {
		return terraform.Relationship{}, false
	}
	return terraform.Relationship{
		SourceID: res.FullID(),
		TargetID: dlq.FullID(),
		Kind:     terraform.KindRedrivesTo,
		Label:    "DLQ",
	}, true
}

// typeRef returns a cached regexp matching `<type>.(\w+).` reference tokens.
func (e *Extractor) typeRef(resourceType string) *regexp.Regexp {
	if re, ok := e.typeRefRE[resourceType]; ok {
		return re
	}
	re := regexp.MustCompile(regexp.QuoteMeta(resourceType) + `\.(\w+)\.`)
	e.typeRefRE[resourceType] = re
	return re
}

// walkStrings visits every string leaf of a decoded attribute tree.
func walkStrings(v any, depth int, fn func(string)) {
	if depth > maxScanDepth {
		return
	}
	switch val := v.(type) {
	case string:
		fn(val)
	case []any:
		for _, item := range val {
			walkStrings(item, depth+1, fn)
		}
	case []string:
		for _, item := range val {
			fn(item)
		}
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkStrings(val[k], depth+1, fn)
		}
	}
}

func firstNamed(candidates []*terraform.Resource, name string) *terraform.Resource {
	for _, r := range candidates {
		if r.Name == name {
			return r
		}
	}
	return nil
}

func firstInModule(candidates []*terraform.Resource, module string) *terraform.Resource {
	for _, r := range candidates {
		if r.ModulePath == module {
			return r
		}
	}
	return nil
}

// PortLabel formats a security-group rule's port range for display.
func PortLabel(protocol string, fromPort, toPort any) string {
	if protocol == "-1" {
		return "All Traffic"
	}
	proto := strings.ToUpper(protocol)
	from, fromOK := asInt(fromPort)
	to, toOK := asInt(toPort)

	switch {
	case !fromOK:
		return proto
	case !toOK, from == to:
		return fmt.Sprintf("%s/%d", proto, from)
	case from == 0 && to == 65535:
		return proto + "/All"
	default:
		return fmt.Sprintf("%s/%d-%d", proto, from, to)
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		var i int
		if _, err := fmt.Sscanf(n, "%d", &i); err == nil {
			return i, true
		}
	}
	return 0, false
}
