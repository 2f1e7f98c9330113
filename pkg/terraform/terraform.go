// Package terraform defines the resource model produced by parsing Terraform
// HCL and provides the directory parser that builds it.
//
// The model is deliberately generic: a Resource carries its attribute tree as
// plain Go values (map[string]any / []any / scalars) so that downstream
// components (relationship extraction, aggregation, topology inference) can
// walk it without knowing individual resource schemas.
//
// # Identity
//
// Resources are identified by their full id:
//
//	[module_path.]type.name
//
// e.g. "aws_vpc.main" or "network.aws_subnet.public". The same format is used
// by the tfstate package when mapping live-state addresses back onto parsed
// resources.
package terraform

import "fmt"

// CountComplex is the Count value used when a count meta-argument is present
// but cannot be reduced to a plain integer (e.g. `count = length(var.azs)`).
const CountComplex = -1

// Resource is a single parsed resource block.
// Attributes never contain nil maps: an empty body yields an empty map.
type Resource struct {
	Type       string         // e.g. "aws_subnet"
	Name       string         // declared name, e.g. "public_a"
	ModulePath string         // empty for root module resources
	Attributes map[string]any // generic attribute tree
	SourceFile string         // file the block was parsed from
	Count      int            // 0 = no count, CountComplex = unresolvable
	ForEach    bool           // true if a for_each meta-argument is present
}

// FullID returns the unique identifier for this resource.
func (r *Resource) FullID() string {
	if r.ModulePath != "" {
		return fmt.Sprintf("%s.%s.%s", r.ModulePath, r.Type, r.Name)
	}
	return fmt.Sprintf("%s.%s", r.Type, r.Name)
}

// DisplayName returns the name attribute when it is a plain string without
// unresolved interpolation markers, otherwise the declared resource name.
func (r *Resource) DisplayName() string {
	if name, ok := r.Attributes["name"].(string); ok && name != "" && !ContainsInterpolation(name) {
		return name
	}
	return r.Name
}

// ModuleCall is a module block instantiation.
type ModuleCall struct {
	Name       string
	Source     string
	Inputs     map[string]any
	SourceFile string
}

// Relationship kinds produced by the relation package. Reference-table kinds
// (belongs_to_vpc, assumes_role, ...) come from configuration; these are the
// fixed kinds emitted by the specialized extraction passes.
const (
	KindReferences   = "references"     // deep-scan catch-all
	KindRedrivesTo   = "redrives_to"    // SQS dead-letter queue
	KindSGAllowsFrom = "sg_allows_from" // security-group ingress
	KindModuleRef    = "module_ref"     // cross-module reference
)

// Relationship is a directed, typed edge between two resources.
// Multiple edges between the same pair are allowed if their kinds differ.
type Relationship struct {
	SourceID string
	TargetID string
	Kind     string
	Label    string
}

// ParseResult is the output of parsing a Terraform directory.
// Resources and Relationships keep their extraction order; later passes
// append and never reorder.
type ParseResult struct {
	Resources     []*Resource
	Modules       []ModuleCall
	Relationships []Relationship
}

// ResourcesByType indexes the resources by their type.
func (p *ParseResult) ResourcesByType() map[string][]*Resource {
	idx := make(map[string][]*Resource)
	for _, r := range p.Resources {
		idx[r.Type] = append(idx[r.Type], r)
	}
	return idx
}

// FindResource returns the first resource with the given type and declared
// name, or nil when no such resource was parsed.
func (p *ParseResult) FindResource(resourceType, name string) *Resource {
	for _, r := range p.Resources {
		if r.Type == resourceType && r.Name == name {
			return r
		}
	}
	return nil
}

// ContainsInterpolation reports whether s still carries a Terraform
// interpolation marker after resolution.
func ContainsInterpolation(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '$' && s[i+1] == '{' {
			return true
		}
	}
	return false
}
