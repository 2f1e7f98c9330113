package vpc

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/stackplot/stackplot/pkg/terraform"
	"github.com/stackplot/stackplot/pkg/terraform/tfstate"
)

// Resolver substitutes interpolation markers in display names.
type Resolver interface {
	Resolve(string) string
}

const azLetters = "abcdef"

// Naming patterns that betray an availability zone, most specific first:
// letter-plus-digit suffix, digit suffix, bare letter suffix, az<N> suffix,
// and a letter embedded mid-name. First match wins.
var azSuffixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[-_](\d[a-f])$`),
	regexp.MustCompile(`[-_](\d+)$`),
	regexp.MustCompile(`[-_]([a-f])$`),
	regexp.MustCompile(`[-_]az(\d)$`),
	regexp.MustCompile(`[-_]([a-f])[-_]`),
}

var azShortNameRE = regexp.MustCompile(`(\d[a-z])$`)

// Keyword lists for classifying subnets by role.
var subnetTypeKeywords = map[string][]string{
	SubnetPublic:   {"public", "pub", "external", "ext", "dmz", "bastion"},
	SubnetPrivate:  {"private", "priv", "internal", "int", "app", "compute", "worker", "backend", "application"},
	SubnetDatabase: {"database", "db", "rds", "data", "storage", "persistence"},
}

var subnetTypeOrder = map[string]int{
	SubnetPublic:   0,
	SubnetPrivate:  1,
	SubnetDatabase: 2,
	SubnetUnknown:  3,
}

const detectedPrefix = "detected-"

// Builder reconstructs a Structure from parsed resources.
type Builder struct {
	logger *log.Logger
}

func NewBuilder(logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{logger: logger}
}

// Build returns the topology of the first VPC found, or nil when the
// resource set declares none.
func (b *Builder) Build(resources []*terraform.Resource, resolver Resolver) *Structure {
	var vpcRes *terraform.Resource
	for _, r := range resources {
		if r.Type == "aws_vpc" {
			vpcRes = r
			break
		}
	}
	if vpcRes == nil {
		return nil
	}

	structure := &Structure{
		VPCID: vpcRes.FullID(),
		Name:  resolveName(vpcRes, resolver),
	}

	candidates := b.collectSubnets(resources, resolver)
	azNames, explicit := azSet(candidates)
	structure.AvailabilityZones = makeAZs(azNames)
	b.distribute(structure.AvailabilityZones, candidates, explicit)

	structure.Endpoints = collectEndpoints(resources, resolver)

	b.logger.Debug("built vpc structure",
		"vpc", structure.VPCID,
		"azs", len(structure.AvailabilityZones),
		"subnets", len(candidates),
		"endpoints", len(structure.Endpoints))
	return structure
}

// subnetCandidate pairs a subnet with its grouping key before AZ
// assignment. azKey is an explicit AZ name, a detected-<suffix> marker or
// empty when nothing was detectable.
type subnetCandidate struct {
	subnet *Subnet
	azKey  string
	count  int
}

func (b *Builder) collectSubnets(resources []*terraform.Resource, resolver Resolver) []subnetCandidate {
	var out []subnetCandidate
	for _, r := range resources {
		if r.Type != "aws_subnet" {
			continue
		}

		subnet := &Subnet{
			ResourceID: r.FullID(),
			Name:       resolveName(r, resolver),
			Type:       detectSubnetType(r),
		}
		if cidr, ok := r.Attributes["cidr_block"].(string); ok {
			subnet.CIDRBlock = cidr
		}
		if id, ok := r.Attributes[tfstate.KeyID].(string); ok {
			subnet.AWSID = id
		}

		azKey := detectAZKey(r)
		subnet.AvailabilityZone = azKey
		if azKey == "" {
			subnet.AvailabilityZone = SubnetUnknown
		}
		out = append(out, subnetCandidate{subnet: subnet, azKey: azKey, count: r.Count})
	}
	return out
}

// detectAZKey applies the AZ policy chain: deployed-state value, explicit
// attribute, then a name-suffix marker.
func detectAZKey(r *terraform.Resource) string {
	if az, ok := r.Attributes[tfstate.KeyAvailabilityZone].(string); ok && az != "" {
		return az
	}
	if az, ok := r.Attributes["availability_zone"].(string); ok && az != "" && !terraform.ContainsInterpolation(az) {
		return az
	}
	if suffix := extractAZSuffix(r.Name); suffix != "" {
		return detectedPrefix + suffix
	}
	return ""
}

func extractAZSuffix(name string) string {
	lower := strings.ToLower(name)
	for _, re := range azSuffixPatterns {
		if m := re.FindStringSubmatch(lower); m != nil {
			return m[1]
		}
	}
	return ""
}

// azSet decides the AZ list. Explicit AZ names are authoritative; otherwise
// the count is inferred from resource counts, distinct detected markers or
// the largest per-type subnet population, and placeholder names are
// synthesized.
func azSet(candidates []subnetCandidate) (names []string, explicit bool) {
	seen := make(map[string]bool)
	for _, c := range candidates {
		if c.azKey != "" && !strings.HasPrefix(c.azKey, detectedPrefix) {
			seen[c.azKey] = true
		}
	}
	if len(seen) > 0 {
		for az := range seen {
			names = append(names, az)
		}
		sort.Strings(names)
		return names, true
	}

	num := 1
	for _, c := range candidates {
		if c.count > num {
			num = c.count
		}
	}
	if num == 1 {
		detected := make(map[string]bool)
		typeCounts := make(map[string]int)
		for _, c := range candidates {
			if strings.HasPrefix(c.azKey, detectedPrefix) {
				detected[c.azKey] = true
			}
			typeCounts[c.subnet.Type]++
		}
		if len(detected) > 0 {
			num = len(detected)
		} else {
			for _, n := range typeCounts {
				if n > num {
					num = n
				}
			}
		}
	}

	for i := 0; i < num; i++ {
		names = append(names, fmt.Sprintf("%s%c", detectedPrefix, azLetters[i%len(azLetters)]))
	}
	return names, false
}

func makeAZs(names []string) []*AvailabilityZone {
	azs := make([]*AvailabilityZone, 0, len(names))
	for _, name := range names {
		azs = append(azs, &AvailabilityZone{
			Name:      name,
			ShortName: azShortName(name),
		})
	}
	return azs
}

// distribute assigns subnets to AZs: exact key match, then short-name
// matching for detected markers, then round-robin by type for the rest.
func (b *Builder) distribute(azs []*AvailabilityZone, candidates []subnetCandidate, explicit bool) {
	byName := make(map[string]*AvailabilityZone, len(azs))
	for _, az := range azs {
		byName[az.Name] = az
	}

	ordered := make([]subnetCandidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].subnet, ordered[j].subnet
		if subnetTypeOrder[a.Type] != subnetTypeOrder[b.Type] {
			return subnetTypeOrder[a.Type] < subnetTypeOrder[b.Type]
		}
		return a.Name < b.Name
	})

	var unassigned []*Subnet
	for _, c := range ordered {
		switch {
		case c.azKey != "" && byName[c.azKey] != nil:
			az := byName[c.azKey]
			c.subnet.AvailabilityZone = az.Name
			az.Subnets = append(az.Subnets, c.subnet)
		case strings.HasPrefix(c.azKey, detectedPrefix):
			suffix := strings.TrimPrefix(c.azKey, detectedPrefix)
			if az := matchShortName(azs, suffix); az != nil {
				c.subnet.AvailabilityZone = az.Name
				az.Subnets = append(az.Subnets, c.subnet)
			} else {
				unassigned = append(unassigned, c.subnet)
			}
		default:
			unassigned = append(unassigned, c.subnet)
		}
	}

	if len(unassigned) == 0 || len(azs) == 0 {
		return
	}

	byType := make(map[string][]*Subnet)
	for _, s := range unassigned {
		byType[s.Type] = append(byType[s.Type], s)
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return subnetTypeOrder[types[i]] < subnetTypeOrder[types[j]]
	})

	for _, t := range types {
		members := byType[t]
		for i, s := range members {
			az := azs[i%len(azs)]
			if len(members) > 1 {
				s.Name = fmt.Sprintf("%s (%c)", s.Name, azLetters[(i%len(azs))%len(azLetters)])
			}
			s.AvailabilityZone = az.Name
			az.Subnets = append(az.Subnets, s)
		}
	}
}

func matchShortName(azs []*AvailabilityZone, suffix string) *AvailabilityZone {
	for _, az := range azs {
		if az.ShortName == suffix || strings.Contains(az.ShortName, suffix) {
			return az
		}
	}
	return nil
}

func azShortName(name string) string {
	if strings.HasPrefix(name, detectedPrefix) {
		return strings.TrimPrefix(name, detectedPrefix)
	}
	if m := azShortNameRE.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	if len(name) > 0 {
		last := name[len(name)-1]
		if last >= 'a' && last <= 'z' || last >= 'A' && last <= 'Z' {
			return string(last)
		}
	}
	return name
}

func detectSubnetType(r *terraform.Resource) string {
	if tags, ok := r.Attributes["tags"].(map[string]any); ok {
		tag, _ := tags["Type"].(string)
		if tag == "" {
			tag, _ = tags["type"].(string)
		}
		if tag != "" {
			lower := strings.ToLower(tag)
			for _, t := range []string{SubnetPublic, SubnetPrivate, SubnetDatabase} {
				for _, kw := range subnetTypeKeywords[t] {
					if lower == kw {
						return t
					}
				}
			}
		}
	}

	names := []string{r.Name}
	if attr, ok := r.Attributes["name"].(string); ok && attr != "" {
		names = append(names, attr)
	}
	for _, name := range names {
		lower := strings.ToLower(name)
		for _, t := range []string{SubnetPublic, SubnetPrivate, SubnetDatabase} {
			for _, kw := range subnetTypeKeywords[t] {
				if strings.Contains(lower, kw) {
					return t
				}
			}
		}
	}
	return SubnetUnknown
}

func collectEndpoints(resources []*terraform.Resource, resolver Resolver) []*Endpoint {
	var endpoints []*Endpoint
	for _, r := range resources {
		if r.Type != "aws_vpc_endpoint" {
			continue
		}
		endpoints = append(endpoints, &Endpoint{
			ResourceID: r.FullID(),
			Name:       resolveName(r, resolver),
			Type:       detectEndpointType(r),
			Service:    parseEndpointService(r),
		})
	}
	return endpoints
}

func detectEndpointType(r *terraform.Resource) string {
	if t, ok := r.Attributes["vpc_endpoint_type"].(string); ok && strings.EqualFold(t, EndpointGateway) {
		return EndpointGateway
	}
	return EndpointInterface
}

// parseEndpointService extracts the service from names shaped like
// com.amazonaws.<region>.<service>. Dotted services such as ecr.api are
// kept whole, and an interpolated region segment shifts the split point.
func parseEndpointService(r *terraform.Resource) string {
	serviceName, ok := r.Attributes["service_name"].(string)
	if !ok || serviceName == "" {
		return SubnetUnknown
	}

	parts := strings.Split(serviceName, ".")
	if terraform.ContainsInterpolation(serviceName) {
		var service []string
		foundVar := false
		for _, part := range parts {
			if strings.Contains(part, "${") || strings.Contains(part, "}") {
				foundVar = true
				service = nil
				continue
			}
			if foundVar {
				service = append(service, part)
			}
		}
		if len(service) > 0 {
			return strings.Join(service, ".")
		}
	}

	if len(parts) >= 4 {
		return strings.Join(parts[3:], ".")
	}
	return SubnetUnknown
}

func resolveName(r *terraform.Resource, resolver Resolver) string {
	name := r.Name
	if attr, ok := r.Attributes["name"].(string); ok && attr != "" {
		name = attr
	}
	if resolver != nil {
		name = resolver.Resolve(name)
	}
	return name
}

func stripStateMarker(ref string) string {
	return strings.TrimPrefix(ref, tfstate.StateSubnetPrefix)
}
