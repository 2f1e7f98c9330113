// Package aggregate collapses low-level resources into the logical services
// a diagram actually shows. Grouping follows an injected rule table; VPC
// rules de-group so each deployed instance stays visible, everything else
// folds into one service per rule.
package aggregate

import (
	"sort"

	"github.com/charmbracelet/log"

	"github.com/stackplot/stackplot/pkg/config"
	"github.com/stackplot/stackplot/pkg/terraform"
	"github.com/stackplot/stackplot/pkg/vpc"
)

// Resolver substitutes interpolation markers in display names.
type Resolver interface {
	Resolve(string) string
}

// Service is one visual unit, aggregating one or more resources.
type Service struct {
	ServiceType      string
	Name             string
	IconResourceType string
	Resources        []*terraform.Resource
	Count            int
	IsVPCResource    bool
	SubnetIDs        []string
	ResourceID       string
}

// ID is unique across the diagram. De-grouped services carry their
// resource's full ID; grouped services are keyed by type and name.
func (s *Service) ID() string {
	if s.ResourceID != "" {
		return s.ResourceID
	}
	return s.ServiceType + "." + s.Name
}

// Connection links two services for rendering.
type Connection struct {
	SourceID string
	TargetID string
	Label    string
	Kind     string
}

// Result is the aggregated view of one resource set.
type Result struct {
	Services       []*Service
	Connections    []Connection
	VPCServices    []*Service
	GlobalServices []*Service
	VPC            *vpc.Structure
}

// Aggregator groups resources into services per an immutable rule table.
type Aggregator struct {
	rules  *config.Rules
	logger *log.Logger
}

func New(rules *config.Rules, logger *log.Logger) *Aggregator {
	if rules == nil {
		rules = config.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Aggregator{rules: rules, logger: logger}
}

// Aggregate builds services, connections and the VPC structure from a parse
// result. Rule order and resource order drive output order, so repeated
// runs over the same input produce identical results.
func (a *Aggregator) Aggregate(parsed *terraform.ParseResult, resolver Resolver) *Result {
	result := &Result{}

	for i := range a.rules.Aggregations {
		rule := &a.rules.Aggregations[i]
		matched := matchRule(parsed.Resources, rule)
		if len(matched) == 0 {
			continue
		}
		var primary []*terraform.Resource
		for _, r := range matched {
			if rule.IsPrimary(r.Type) {
				primary = append(primary, r)
			}
		}
		if len(primary) == 0 {
			continue
		}

		if rule.InVPC {
			for _, r := range primary {
				svc := &Service{
					ServiceType:      rule.Service,
					Name:             displayName(r, resolver),
					IconResourceType: rule.Primary[0],
					Resources:        []*terraform.Resource{r},
					Count:            1,
					IsVPCResource:    true,
					SubnetIDs:        extractSubnetIDs([]*terraform.Resource{r}),
					ResourceID:       r.FullID(),
				}
				result.Services = append(result.Services, svc)
				result.VPCServices = append(result.VPCServices, svc)
			}
			continue
		}

		svc := &Service{
			ServiceType:      rule.Service,
			Name:             displayName(primary[0], resolver),
			IconResourceType: rule.Primary[0],
			Resources:        matched,
			Count:            len(primary),
			SubnetIDs:        extractSubnetIDs(matched),
		}
		result.Services = append(result.Services, svc)
		result.GlobalServices = append(result.GlobalServices, svc)
	}

	result.Connections = a.connect(result.Services)
	result.VPC = vpc.NewBuilder(a.logger).Build(parsed.Resources, resolver)

	a.logger.Debug("aggregated resources",
		"resources", len(parsed.Resources),
		"services", len(result.Services),
		"connections", len(result.Connections))
	return result
}

// connect emits one connection per (source service, target service) pair of
// every matching rule. De-grouped types yield the full cross-product.
func (a *Aggregator) connect(services []*Service) []Connection {
	byType := make(map[string][]*Service)
	for _, s := range services {
		byType[s.ServiceType] = append(byType[s.ServiceType], s)
	}

	var conns []Connection
	for _, rule := range a.rules.Connections {
		sources, targets := byType[rule.Source], byType[rule.Target]
		for _, src := range sources {
			for _, dst := range targets {
				conns = append(conns, Connection{
					SourceID: src.ID(),
					TargetID: dst.ID(),
					Label:    rule.Label,
					Kind:     rule.Kind,
				})
			}
		}
	}
	return conns
}

func matchRule(resources []*terraform.Resource, rule *config.AggregationRule) []*terraform.Resource {
	types := make(map[string]bool, len(rule.Primary)+len(rule.Secondary))
	for _, t := range rule.Primary {
		types[t] = true
	}
	for _, t := range rule.Secondary {
		types[t] = true
	}
	var matched []*terraform.Resource
	for _, r := range resources {
		if types[r.Type] {
			matched = append(matched, r)
		}
	}
	return matched
}

// ServiceMetadata describes one service for the grouping UI.
type ServiceMetadata struct {
	ServiceType   string   `json:"service_type"`
	Count         int      `json:"count"`
	Aggregated    bool     `json:"aggregated"`
	ResourceIDs   []string `json:"resource_ids"`
	ResourceNames []string `json:"resource_names"`
}

// Metadata summarizes aggregation per service type, sorted by type.
func (r *Result) Metadata() []ServiceMetadata {
	byType := make(map[string]*ServiceMetadata)
	var order []string
	for _, s := range r.Services {
		meta, ok := byType[s.ServiceType]
		if !ok {
			meta = &ServiceMetadata{ServiceType: s.ServiceType}
			byType[s.ServiceType] = meta
			order = append(order, s.ServiceType)
		}
		meta.Count += s.Count
		if s.Count > 1 {
			meta.Aggregated = true
		}
		for _, res := range s.Resources {
			meta.ResourceIDs = append(meta.ResourceIDs, res.FullID())
			meta.ResourceNames = append(meta.ResourceNames, res.DisplayName())
		}
	}
	sort.Strings(order)

	out := make([]ServiceMetadata, 0, len(order))
	for _, t := range order {
		out = append(out, *byType[t])
	}
	return out
}
