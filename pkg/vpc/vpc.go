// Package vpc reconstructs network topology from resource declarations.
// AZ membership and subnet roles are rarely explicit in configuration, so
// the builder leans on naming conventions and deployed-state values, and
// every heuristic degrades to an explicit unknown rather than failing.
package vpc

// Subnet roles, in display order.
const (
	SubnetPublic   = "public"
	SubnetPrivate  = "private"
	SubnetDatabase = "database"
	SubnetUnknown  = "unknown"
)

// Endpoint kinds.
const (
	EndpointGateway   = "gateway"
	EndpointInterface = "interface"
)

// Subnet is one subnet placed in an availability zone.
type Subnet struct {
	ResourceID       string
	Name             string
	Type             string
	AvailabilityZone string
	CIDRBlock        string
	AWSID            string
}

// AvailabilityZone groups the subnets placed in it, in display order.
type AvailabilityZone struct {
	Name      string
	ShortName string
	Subnets   []*Subnet
}

// Endpoint is a VPC endpoint, rendered outside the AZ grid.
type Endpoint struct {
	ResourceID string
	Name       string
	Type       string
	Service    string
}

// Structure is the reconstructed topology of the diagram's single VPC.
type Structure struct {
	VPCID             string
	Name              string
	AvailabilityZones []*AvailabilityZone
	Endpoints         []*Endpoint
}

// Subnets returns all subnets across AZs in AZ-then-display order.
func (s *Structure) Subnets() []*Subnet {
	var out []*Subnet
	for _, az := range s.AvailabilityZones {
		out = append(out, az.Subnets...)
	}
	return out
}

// ResolveSubnetID maps a subnet reference from aggregation to the subnet's
// resource ID. Plain resource IDs pass through when known; deployed-state
// identifiers are matched against subnet AWS IDs.
func (s *Structure) ResolveSubnetID(ref string) (string, bool) {
	for _, subnet := range s.Subnets() {
		if subnet.ResourceID == ref {
			return subnet.ResourceID, true
		}
		if subnet.AWSID != "" && stripStateMarker(ref) == subnet.AWSID {
			return subnet.ResourceID, true
		}
	}
	return "", false
}
