package aggregate

import (
	"regexp"
	"sort"
	"strings"

	"github.com/stackplot/stackplot/pkg/terraform"
	"github.com/stackplot/stackplot/pkg/terraform/tfstate"
)

const (
	maxDisplayLen   = 20
	truncDisplayLen = 17
)

var subnetRefRE = regexp.MustCompile(`aws_subnet\.(\w+)`)

// Keys that commonly carry subnet attachments, checked before the generic
// nested walk.
var subnetAttrKeys = []string{"subnet_id", "subnet_ids", "subnets", "network_configuration"}

// displayName picks a label for a service: the resource's name attribute
// when it resolves cleanly, the deployed-state name, or the declared
// resource name. The result is title-cased and truncated.
func displayName(r *terraform.Resource, resolver Resolver) string {
	name := r.Name
	if attr, ok := r.Attributes["name"].(string); ok && attr != "" {
		candidate := attr
		if resolver != nil {
			candidate = resolver.Resolve(candidate)
		}
		if !terraform.ContainsInterpolation(candidate) {
			name = candidate
		} else if stateName, ok := r.Attributes[tfstate.KeyName].(string); ok && stateName != "" {
			name = stateName
		}
	}

	name = titleCase(strings.ReplaceAll(name, "_", " "))
	if len(name) > maxDisplayLen {
		name = name[:truncDisplayLen] + "..."
	}
	return name
}

// titleCase uppercases the first letter of every word, where words are
// delimited by any non-letter.
func titleCase(s string) string {
	b := []byte(s)
	prevLetter := false
	for i, c := range b {
		isLower := c >= 'a' && c <= 'z'
		isUpper := c >= 'A' && c <= 'Z'
		switch {
		case !prevLetter && isLower:
			b[i] = c - 'a' + 'A'
		case prevLetter && isUpper:
			b[i] = c - 'A' + 'a'
		}
		prevLetter = isLower || isUpper
	}
	return string(b)
}

// extractSubnetIDs collects subnet references across resources: deployed
// state attachments injected by enrichment, plus textual aws_subnet.<name>
// references found by walking the attribute tree. The result is sorted for
// stable output.
func extractSubnetIDs(resources []*terraform.Resource) []string {
	seen := make(map[string]bool)
	for _, r := range resources {
		if ids, ok := r.Attributes[tfstate.KeySubnetIDs].([]string); ok {
			for _, id := range ids {
				seen[id] = true
			}
		}
		for _, key := range subnetAttrKeys {
			if v, ok := r.Attributes[key]; ok {
				collectSubnetRefs(v, seen, 1)
			}
		}
		for _, v := range r.Attributes {
			switch v.(type) {
			case map[string]any, []any:
				collectSubnetRefs(v, seen, 1)
			}
		}
	}

	if len(seen) == 0 {
		return nil
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func collectSubnetRefs(v any, seen map[string]bool, depth int) {
	if depth > 5 {
		return
	}
	switch val := v.(type) {
	case string:
		for _, m := range subnetRefRE.FindAllStringSubmatch(val, -1) {
			seen["aws_subnet."+m[1]] = true
		}
	case []any:
		for _, item := range val {
			collectSubnetRefs(item, seen, depth+1)
		}
	case []string:
		for _, item := range val {
			collectSubnetRefs(item, seen, depth+1)
		}
	case map[string]any:
		for _, item := range val {
			collectSubnetRefs(item, seen, depth+1)
		}
	}
}
