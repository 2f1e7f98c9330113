// Package layout assigns pixel geometry to every diagram entity. Compute is
// a pure function of the aggregated result and the configuration: same
// input, same positions.
package layout

import (
	"github.com/charmbracelet/log"

	"github.com/stackplot/stackplot/pkg/aggregate"
	"github.com/stackplot/stackplot/pkg/vpc"
)

// Position is one placed rectangle.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether q lies fully inside p.
func (p Position) Contains(q Position) bool {
	return q.X >= p.X && q.Y >= p.Y &&
		q.X+q.Width <= p.X+p.Width &&
		q.Y+q.Height <= p.Y+p.Height
}

// Group kinds, in creation order.
const (
	GroupCloud = "aws_cloud"
	GroupVPC   = "vpc"
	GroupAZ    = "az"
)

// Group is a purely visual container around services.
type Group struct {
	Type     string
	Name     string
	Services []*aggregate.Service
	Position Position
}

// Visual rows for non-VPC services.
var (
	edgeTypes      = set("cloudfront", "waf", "route53", "acm", "cognito")
	dataTypes      = set("s3", "dynamodb", "mongodb")
	messagingTypes = set("sqs", "sns", "eventbridge")
	securityTypes  = set("kms", "secrets_manager", "iam")
)

func set(types ...string) map[string]bool {
	m := make(map[string]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

// Engine computes one layout per call.
type Engine struct {
	cfg    Config
	logger *log.Logger
}

func NewEngine(cfg Config, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Compute places every service, subnet and endpoint and returns the
// positions keyed by entity ID, the visual groups and the canvas height.
func (e *Engine) Compute(result *aggregate.Result) (map[string]Position, []*Group, int) {
	s := newSizing(e.cfg, scaleFor(result, e.cfg))

	edge, vpcSvcs, organic := categorize(result)
	if result.VPC == nil {
		// Without a VPC box the de-grouped services join the grid.
		organic = append(organic, vpcSvcs...)
		vpcSvcs = nil
	}

	perSubnet := subnetAssignments(vpcSvcs, result.VPC)
	topRow := topRowServices(vpcSvcs, perSubnet)

	gridRows := planGrid(organic, result.Connections, gridColumns(e.cfg, s))

	// Height is pre-computed from the same sizing the placement below uses.
	required := s.margin * 2
	if len(edge) > 0 {
		required += s.rowHeight + s.sectionGap
	}
	if result.VPC != nil {
		required += s.vpcHeight(len(topRow), result.VPC, perSubnet) + s.sectionGap
	}
	required += float64(len(gridRows)) * s.rowHeight

	canvasH := e.cfg.CanvasHeight
	if required > canvasH {
		canvasH = required
	}

	positions := make(map[string]Position)
	var groups []*Group

	minX := s.margin
	availW := e.cfg.CanvasWidth - 2*s.margin

	groups = append(groups, &Group{
		Type:     GroupCloud,
		Name:     "AWS Cloud",
		Services: result.Services,
		Position: Position{X: minX / 2, Y: s.margin / 2, Width: e.cfg.CanvasWidth - s.margin, Height: canvasH - s.margin},
	})

	y := s.margin
	if len(edge) > 0 {
		placeRow(positions, edge, s, minX, availW, y)
		y += s.rowHeight + s.sectionGap
	}
	if result.VPC != nil {
		vpcH := s.vpcHeight(len(topRow), result.VPC, perSubnet)
		groups = append(groups, e.placeVPC(positions, result.VPC, vpcSvcs, topRow, perSubnet, s, minX, y, availW, vpcH)...)
		y += vpcH + s.sectionGap
	}
	placeGrid(positions, gridRows, s, minX, availW, y)

	e.logger.Debug("computed layout",
		"scale", s.scale,
		"entities", len(positions),
		"canvas_height", int(canvasH))
	return positions, groups, int(canvasH)
}

// scaleFor buckets the service count into a base factor and applies VPC
// complexity adjustments. Clamping happens in newSizing.
func scaleFor(result *aggregate.Result, cfg Config) float64 {
	var scale float64
	switch n := len(result.Services); {
	case n <= 4:
		scale = 0.8
	case n <= 8:
		scale = 0.9
	case n <= 15:
		scale = 1.0
	case n <= 25:
		scale = 1.2
	default:
		scale = 1.4
	}

	if v := result.VPC; v != nil {
		if len(v.AvailabilityZones) >= 3 {
			scale *= 1.1
		}
		for _, az := range v.AvailabilityZones {
			if len(az.Subnets) >= 4 {
				scale *= 1.15
				break
			}
		}
		if len(v.Endpoints) >= 4 {
			scale *= 1.05
		}
	}
	return scale
}

func categorize(result *aggregate.Result) (edge, vpcSvcs, organic []*aggregate.Service) {
	for _, svc := range result.Services {
		switch {
		case svc.IsVPCResource:
			vpcSvcs = append(vpcSvcs, svc)
		case edgeTypes[svc.ServiceType]:
			edge = append(edge, svc)
		default:
			organic = append(organic, svc)
		}
	}
	return edge, vpcSvcs, organic
}

// subnetAssignments resolves each VPC service to the subnet it renders in.
// A service with several subnets lands in the first resolvable one.
func subnetAssignments(services []*aggregate.Service, structure *vpc.Structure) map[string][]*aggregate.Service {
	assignments := make(map[string][]*aggregate.Service)
	if structure == nil {
		return assignments
	}
	for _, svc := range services {
		for _, ref := range svc.SubnetIDs {
			if id, ok := structure.ResolveSubnetID(ref); ok {
				assignments[id] = append(assignments[id], svc)
				break
			}
		}
	}
	return assignments
}

// topRowServices are VPC services that resolved to no subnet; they render
// in a row above the AZ area.
func topRowServices(services []*aggregate.Service, perSubnet map[string][]*aggregate.Service) []*aggregate.Service {
	assigned := make(map[string]bool)
	for _, svcs := range perSubnet {
		for _, svc := range svcs {
			assigned[svc.ID()] = true
		}
	}
	var top []*aggregate.Service
	for _, svc := range services {
		if !assigned[svc.ID()] {
			top = append(top, svc)
		}
	}
	return top
}

// placeRow lays services left-to-right, horizontally centered as a group.
func placeRow(positions map[string]Position, services []*aggregate.Service, s sizing, minX, availW, y float64) {
	if len(services) == 0 {
		return
	}
	totalW := float64(len(services))*s.serviceW + float64(len(services)-1)*s.iconSpacing
	x := minX + (availW-totalW)/2
	if x < minX {
		x = minX
	}
	for _, svc := range services {
		positions[svc.ID()] = Position{X: x, Y: y, Width: s.serviceW, Height: s.serviceH}
		x += s.serviceW + s.iconSpacing
	}
}

// vpcHeight estimates the VPC box height bottom-up, or from the endpoint
// column when that dominates, with a fixed floor.
func (s sizing) vpcHeight(topCount int, structure *vpc.Structure, perSubnet map[string][]*aggregate.Service) float64 {
	h := s.vpcHeaderH
	if topCount > 0 {
		h += s.rowHeight
	}
	if len(structure.AvailabilityZones) > 0 {
		h += s.azHeaderH
		var tallest float64
		for _, az := range structure.AvailabilityZones {
			var sum float64
			for _, sn := range az.Subnets {
				sum += s.subnetHeight(len(perSubnet[sn.ResourceID])) + s.subnetGap
			}
			if sum > tallest {
				tallest = sum
			}
		}
		h += tallest
	}
	h += s.vpcPadding

	if alt := s.vpcHeaderH + float64(len(structure.Endpoints))*s.endpointSpacing + s.vpcPadding; alt > h {
		h = alt
	}
	if h < s.vpcMinH {
		h = s.vpcMinH
	}
	return h
}

// placeVPC positions the VPC container, its AZ and subnet boxes, the
// services inside them and the endpoint column. Returns the vpc and az
// groups.
func (e *Engine) placeVPC(
	positions map[string]Position,
	structure *vpc.Structure,
	vpcSvcs, topRow []*aggregate.Service,
	perSubnet map[string][]*aggregate.Service,
	s sizing,
	x, y, width, height float64,
) []*Group {
	groups := []*Group{{
		Type:     GroupVPC,
		Name:     structure.Name,
		Services: vpcSvcs,
		Position: Position{X: x, Y: y, Width: width, Height: height},
	}}

	innerX := x + s.vpcPadding
	innerW := width - 2*s.vpcPadding

	// Endpoints occupy a column on the right edge.
	if n := len(structure.Endpoints); n > 0 {
		epX := x + width - s.endpointW - s.padding
		epY := y + s.vpcHeaderH
		for _, ep := range structure.Endpoints {
			positions[ep.ResourceID] = Position{X: epX, Y: epY, Width: s.endpointW, Height: s.endpointH}
			epY += s.endpointSpacing
		}
		innerW -= s.endpointW + s.padding
	}

	curY := y + s.vpcHeaderH
	if len(topRow) > 0 {
		placeRow(positions, topRow, s, innerX, innerW, curY+(s.rowHeight-s.serviceH)/2)
		curY += s.rowHeight
	}

	azs := structure.AvailabilityZones
	if len(azs) == 0 {
		return groups
	}
	curY += s.azHeaderH

	azW := (innerW - float64(len(azs)-1)*s.azGap) / float64(len(azs))
	azH := height - (curY - y) - s.vpcPadding
	azX := innerX
	for _, az := range azs {
		azPos := Position{X: azX, Y: curY, Width: azW, Height: azH}
		groups = append(groups, &Group{
			Type:     GroupAZ,
			Name:     az.Name,
			Services: servicesIn(az, perSubnet),
			Position: azPos,
		})

		snY := curY
		for _, sn := range az.Subnets {
			svcs := perSubnet[sn.ResourceID]
			snH := s.subnetHeight(len(svcs))
			snPos := Position{
				X:      azX + s.azPadX,
				Y:      snY,
				Width:  azW - 2*s.azPadX,
				Height: snH,
			}
			positions[sn.ResourceID] = snPos
			placeInSubnet(positions, svcs, snPos, s)
			snY += snH + s.subnetGap
		}
		azX += azW + s.azGap
	}
	return groups
}

func servicesIn(az *vpc.AvailabilityZone, perSubnet map[string][]*aggregate.Service) []*aggregate.Service {
	var out []*aggregate.Service
	for _, sn := range az.Subnets {
		out = append(out, perSubnet[sn.ResourceID]...)
	}
	return out
}

// placeInSubnet lays co-located services left-to-right inside the subnet
// body, left-aligned with a margin and vertically centered.
func placeInSubnet(positions map[string]Position, services []*aggregate.Service, subnet Position, s sizing) {
	bodyY := subnet.Y + s.subnetHeaderH
	bodyH := subnet.Height - s.subnetHeaderH
	x := subnet.X + s.padding
	for _, svc := range services {
		w := s.serviceW
		if max := subnet.X + subnet.Width - s.padding - x; w > max {
			w = max
		}
		if w <= 0 {
			break
		}
		positions[svc.ID()] = Position{
			X:      x,
			Y:      bodyY + (bodyH-s.serviceH)/2,
			Width:  w,
			Height: s.serviceH,
		}
		x += w + s.iconSpacing
	}
}

func gridColumns(cfg Config, s sizing) int {
	cols := int((cfg.CanvasWidth - 2*s.margin) / (s.serviceW + s.iconSpacing))
	if cols < 1 {
		cols = 1
	}
	return cols
}

// placeGrid renders the organic grid rows below the VPC section.
func placeGrid(positions map[string]Position, rows [][]*aggregate.Service, s sizing, minX, availW, y float64) {
	for _, row := range rows {
		placeRow(positions, row, s, minX, availW, y+(s.rowHeight-s.serviceH)/2)
		y += s.rowHeight
	}
}
