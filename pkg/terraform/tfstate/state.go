// Package tfstate loads Terraform state and merges deployed values into
// parsed configuration resources. State is optional throughout: every caller
// must behave sensibly when no state is available.
package tfstate

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	tfjson "github.com/hashicorp/terraform-json"

	"github.com/stackplot/stackplot/pkg/terraform"
)

// StateSubnetPrefix marks subnet identifiers that came from deployed state
// rather than from configuration references.
const StateSubnetPrefix = "_state_subnet:"

// Attribute keys injected by Enrich. The underscore prefix keeps them out of
// the space of real Terraform arguments.
const (
	KeyAvailabilityZone = "_state_availability_zone"
	KeySubnetIDs        = "_state_subnet_ids"
	KeyName             = "_state_name"
	KeyID               = "_state_id"
)

var indexSuffixRE = regexp.MustCompile(`\[[^\]]*\]$`)

// State is an address-indexed view over deployed resource values.
type State struct {
	resources map[string]map[string]any
	subnetAZ  map[string]string
}

// Load reads a `terraform show -json` document from disk. Plain state files
// and plan files are both accepted; plan files fall back from planned values
// to prior state.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return Parse(data)
}

// Parse builds a State from raw `terraform show -json` output.
func Parse(data []byte) (*State, error) {
	if mod := rootModule(data); mod != nil {
		return index(mod), nil
	}
	return nil, fmt.Errorf("state document carries no resource values")
}

func rootModule(data []byte) *tfjson.StateModule {
	var st tfjson.State
	if err := json.Unmarshal(data, &st); err == nil && st.Values != nil && st.Values.RootModule != nil {
		return st.Values.RootModule
	}

	var plan tfjson.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil
	}
	if plan.PlannedValues != nil && plan.PlannedValues.RootModule != nil {
		return plan.PlannedValues.RootModule
	}
	if plan.PriorState != nil && plan.PriorState.Values != nil && plan.PriorState.Values.RootModule != nil {
		return plan.PriorState.Values.RootModule
	}
	return nil
}

func index(root *tfjson.StateModule) *State {
	s := &State{
		resources: make(map[string]map[string]any),
		subnetAZ:  make(map[string]string),
	}
	var walk func(mod *tfjson.StateModule)
	walk = func(mod *tfjson.StateModule) {
		for _, res := range mod.Resources {
			if res.AttributeValues == nil {
				continue
			}
			addr := MapAddress(res.Address)
			if _, seen := s.resources[addr]; !seen {
				s.resources[addr] = res.AttributeValues
			}
			if res.Type == "aws_subnet" {
				id, _ := res.AttributeValues["id"].(string)
				az, _ := res.AttributeValues["availability_zone"].(string)
				if id != "" && az != "" {
					s.subnetAZ[id] = az
				}
			}
		}
		for _, child := range mod.ChildModules {
			walk(child)
		}
	}
	walk(root)
	return s
}

// MapAddress normalizes a state address to the form resources use for their
// identity: count and for_each index suffixes are stripped and module
// prefixes lose their "module." markers.
func MapAddress(addr string) string {
	addr = indexSuffixRE.ReplaceAllString(addr, "")
	return strings.ReplaceAll(addr, "module.", "")
}

// Lookup returns the deployed attribute values for a resource address.
func (s *State) Lookup(addr string) (map[string]any, bool) {
	vals, ok := s.resources[MapAddress(addr)]
	return vals, ok
}

// SubnetAZ resolves a deployed subnet ID, with or without the state marker
// prefix, to its availability zone.
func (s *State) SubnetAZ(id string) (string, bool) {
	az, ok := s.subnetAZ[strings.TrimPrefix(id, StateSubnetPrefix)]
	return az, ok
}

// SubnetAZs returns the full deployed subnet ID to availability zone mapping.
func (s *State) SubnetAZs() map[string]string {
	return s.subnetAZ
}

// Len reports the number of indexed resources.
func (s *State) Len() int {
	return len(s.resources)
}

// Enrich merges deployed values into parsed resources. Only a targeted set
// of attributes is copied: availability zones, subnet attachments and
// concrete names. Configuration values stay authoritative for everything
// else so reference expressions survive for relationship scanning.
func (s *State) Enrich(result *terraform.ParseResult, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	matched := 0
	for _, res := range result.Resources {
		vals, ok := s.Lookup(res.FullID())
		if !ok {
			continue
		}
		matched++

		if az, ok := vals["availability_zone"].(string); ok && az != "" {
			res.Attributes[KeyAvailabilityZone] = az
		}
		if name, ok := vals["name"].(string); ok && name != "" {
			res.Attributes[KeyName] = name
		}
		if id, ok := vals["id"].(string); ok && id != "" {
			res.Attributes[KeyID] = id
		}
		if ids := stateSubnetIDs(vals); len(ids) > 0 {
			res.Attributes[KeySubnetIDs] = ids
		}
	}
	logger.Debug("enriched resources from state", "matched", matched, "total", len(result.Resources))
}

func stateSubnetIDs(vals map[string]any) []string {
	var ids []string
	if id, ok := vals["subnet_id"].(string); ok && id != "" {
		ids = append(ids, StateSubnetPrefix+id)
	}
	for _, key := range []string{"subnet_ids", "subnets"} {
		list, ok := vals[key].([]any)
		if !ok {
			continue
		}
		for _, v := range list {
			if id, ok := v.(string); ok && id != "" {
				ids = append(ids, StateSubnetPrefix+id)
			}
		}
	}
	return ids
}
