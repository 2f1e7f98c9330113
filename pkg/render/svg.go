package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/stackplot/stackplot/pkg/aggregate"
	"github.com/stackplot/stackplot/pkg/layout"
	"github.com/stackplot/stackplot/pkg/vpc"
)

// Document bundles one diagram's data and geometry for the renderers.
type Document struct {
	Result    *aggregate.Result
	Positions map[string]layout.Position
	Groups    []*layout.Group
	Height    int
	Config    layout.Config
}

// Container palette: border, background, text.
var groupColors = map[string][3]string{
	layout.GroupCloud: {"#232f3e", "#ffffff", "#232f3e"},
	layout.GroupVPC:   {"#8c4fff", "#faf8ff", "#8c4fff"},
	layout.GroupAZ:    {"#ff9900", "#fff8f0", "#ff9900"},
}

// Subnet palette: border, background.
var subnetColors = map[string][2]string{
	vpc.SubnetPublic:   {"#22a06b", "#e3fcef"},
	vpc.SubnetPrivate:  {"#0052cc", "#deebff"},
	vpc.SubnetDatabase: {"#ff991f", "#fffae6"},
	vpc.SubnetUnknown:  {"#6b778c", "#f4f5f7"},
}

// Endpoint palette: border, background.
var endpointColors = map[string][2]string{
	vpc.EndpointGateway:   {"#22a06b", "#e3fcef"},
	vpc.EndpointInterface: {"#0052cc", "#deebff"},
}

// Connection stroke styles: color, dash pattern, arrow marker.
var connectionStyles = map[string][3]string{
	"data_flow":      {"#3B48CC", "", "url(#arrowhead-data)"},
	"trigger":        {"#E7157B", "", "url(#arrowhead-trigger)"},
	"encrypt":        {"#6c757d", "4,4", "url(#arrowhead)"},
	"sg_allows_from": {"#d97706", "2,4", "url(#arrowhead-security)"},
	"default":        {"#999999", "", "url(#arrowhead)"},
}

// SVG renders the architecture diagram. Output is deterministic: entities
// are emitted in the order the aggregator and layout engine produced them.
func SVG(d *Document) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf,
		`<svg id="diagram-svg" xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.0f %d" width="100%%" preserveAspectRatio="xMidYMin meet" style="max-width: %.0fpx;">`+"\n",
		d.Config.CanvasWidth, d.Height, d.Config.CanvasWidth)

	writeDefs(&buf)
	buf.WriteString(`<rect width="100%" height="100%" fill="#f8f9fa"/>` + "\n")

	for _, g := range d.Groups {
		writeGroup(&buf, g)
	}

	if d.Result.VPC != nil {
		buf.WriteString(`<g id="subnets-layer">` + "\n")
		for _, sn := range d.Result.VPC.Subnets() {
			if pos, ok := d.Positions[sn.ResourceID]; ok {
				writeSubnet(&buf, sn, pos)
			}
		}
		buf.WriteString("</g>\n")
	}

	buf.WriteString(`<g id="connections-layer">` + "\n")
	for _, c := range d.Result.Connections {
		src, okS := d.Positions[c.SourceID]
		dst, okD := d.Positions[c.TargetID]
		if okS && okD {
			writeConnection(&buf, c, src, dst)
		}
	}
	buf.WriteString("</g>\n")

	if d.Result.VPC != nil {
		buf.WriteString(`<g id="endpoints-layer">` + "\n")
		for _, ep := range d.Result.VPC.Endpoints {
			if pos, ok := d.Positions[ep.ResourceID]; ok {
				writeEndpoint(&buf, ep, pos)
			}
		}
		buf.WriteString("</g>\n")
	}

	buf.WriteString(`<g id="services-layer">` + "\n")
	for _, s := range d.Result.Services {
		if pos, ok := d.Positions[s.ID()]; ok {
			writeService(&buf, s, pos)
		}
	}
	buf.WriteString("</g>\n")

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func writeDefs(buf *bytes.Buffer) {
	buf.WriteString("<defs>\n")
	for _, m := range []struct{ id, color string }{
		{"arrowhead", "#999"},
		{"arrowhead-data", "#3B48CC"},
		{"arrowhead-trigger", "#E7157B"},
		{"arrowhead-security", "#d97706"},
	} {
		fmt.Fprintf(buf,
			`  <marker id=%q markerWidth="10" markerHeight="7" refX="9" refY="3.5" orient="auto"><polygon points="0 0, 10 3.5, 0 7" fill=%q/></marker>`+"\n",
			m.id, m.color)
	}
	buf.WriteString(`  <filter id="shadow" x="-20%" y="-20%" width="140%" height="140%"><feDropShadow dx="2" dy="2" stdDeviation="3" flood-opacity="0.15"/></filter>` + "\n")
	buf.WriteString("</defs>\n")
}

func writeGroup(buf *bytes.Buffer, g *layout.Group) {
	colors, ok := groupColors[g.Type]
	if !ok {
		colors = [3]string{"#666", "#fff", "#666"}
	}
	pos := g.Position

	dash, radius, width := "8,4", 12.0, 2.0
	if g.Type == layout.GroupAZ {
		dash, radius, width = "5,3", 8.0, 1.5
	}

	fmt.Fprintf(buf, `<g class="group group-%s" data-group-type=%q>`+"\n", g.Type, g.Type)
	fmt.Fprintf(buf,
		`  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill=%q stroke=%q stroke-width="%.1f" stroke-dasharray=%q rx="%.0f" ry="%.0f"/>`+"\n",
		pos.X, pos.Y, pos.Width, pos.Height, colors[1], colors[0], width, dash, radius, radius)
	fmt.Fprintf(buf,
		`  <text x="%.1f" y="%.1f" font-family="Arial, sans-serif" font-size="14" font-weight="bold" fill=%q>%s</text>`+"\n",
		pos.X+15, pos.Y+22, colors[2], html.EscapeString(g.Name))
	buf.WriteString("</g>\n")
}

func writeSubnet(buf *bytes.Buffer, sn *vpc.Subnet, pos layout.Position) {
	colors, ok := subnetColors[sn.Type]
	if !ok {
		colors = subnetColors[vpc.SubnetUnknown]
	}

	right := sn.CIDRBlock
	if right == "" {
		right = sn.Type
	}

	fmt.Fprintf(buf, `<g class="subnet subnet-%s" data-subnet-id=%q>`+"\n",
		sn.Type, html.EscapeString(sn.ResourceID))
	fmt.Fprintf(buf,
		`  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill=%q stroke=%q stroke-width="1.5" rx="4" ry="4"/>`+"\n",
		pos.X, pos.Y, pos.Width, pos.Height, colors[1], colors[0])
	fmt.Fprintf(buf,
		`  <text x="%.1f" y="%.1f" font-family="Arial, sans-serif" font-size="11" fill=%q>%s</text>`+"\n",
		pos.X+8, pos.Y+pos.Height/2+4, colors[0], html.EscapeString(sn.Name))
	fmt.Fprintf(buf,
		`  <text x="%.1f" y="%.1f" font-family="Arial, sans-serif" font-size="10" fill=%q text-anchor="end" opacity="0.7">%s</text>`+"\n",
		pos.X+pos.Width-8, pos.Y+pos.Height/2+4, colors[0], html.EscapeString(right))
	buf.WriteString("</g>\n")
}

func writeEndpoint(buf *bytes.Buffer, ep *vpc.Endpoint, pos layout.Position) {
	colors, ok := endpointColors[ep.Type]
	if !ok {
		colors = endpointColors[vpc.EndpointInterface]
	}

	service := ep.Service
	if i := strings.IndexByte(service, '.'); i >= 0 {
		service = service[:i]
	}
	display := strings.ToUpper(service)

	kind := "Interface"
	if ep.Type == vpc.EndpointGateway {
		kind = "Gateway"
	}
	cx := pos.X + pos.Width/2

	fmt.Fprintf(buf, `<g class="vpc-endpoint endpoint-%s" data-endpoint-id=%q>`+"\n",
		ep.Type, html.EscapeString(ep.ResourceID))
	fmt.Fprintf(buf,
		`  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill=%q stroke=%q stroke-width="1.5" rx="6" ry="6" filter="url(#shadow)"/>`+"\n",
		pos.X, pos.Y, pos.Width, pos.Height, colors[1], colors[0])
	fmt.Fprintf(buf,
		`  <text x="%.1f" y="%.1f" font-family="Arial, sans-serif" font-size="11" fill=%q text-anchor="middle" font-weight="bold">%s</text>`+"\n",
		cx, pos.Y+pos.Height/2-2, colors[0], html.EscapeString(display))
	fmt.Fprintf(buf,
		`  <text x="%.1f" y="%.1f" font-family="Arial, sans-serif" font-size="9" fill=%q text-anchor="middle" opacity="0.7">%s</text>`+"\n",
		cx, pos.Y+pos.Height/2+10, colors[0], kind)
	fmt.Fprintf(buf, "  <title>%s (%s endpoint for %s)</title>\n",
		html.EscapeString(ep.Name), ep.Type, html.EscapeString(service))
	buf.WriteString("</g>\n")
}

func writeService(buf *bytes.Buffer, s *aggregate.Service, pos layout.Position) {
	color := CategoryColor(s.IconResourceType)
	tooltip := fmt.Sprintf("%s (%d resources)", s.Name, len(s.Resources))

	typeLabel := s.ServiceType
	if len(typeLabel) > 8 {
		typeLabel = typeLabel[:8]
	}

	fmt.Fprintf(buf,
		`<g class="service" data-service-id=%q data-service-type=%q data-tooltip=%q data-is-vpc="%t" transform="translate(%.1f, %.1f)">`+"\n",
		html.EscapeString(s.ID()), html.EscapeString(s.ServiceType),
		html.EscapeString(tooltip), s.IsVPCResource, pos.X, pos.Y)
	fmt.Fprintf(buf,
		`  <rect class="service-bg" x="-8" y="-8" width="%.1f" height="%.1f" fill="white" stroke="#e0e0e0" stroke-width="1" rx="8" ry="8" filter="url(#shadow)"/>`+"\n",
		pos.Width+16, pos.Height+36)
	fmt.Fprintf(buf,
		`  <rect x="0" y="0" width="%.1f" height="%.1f" fill=%q rx="8" ry="8"/>`+"\n",
		pos.Width, pos.Height, color)
	fmt.Fprintf(buf,
		`  <text x="%.1f" y="%.1f" font-family="Arial, sans-serif" font-size="11" fill="white" text-anchor="middle">%s</text>`+"\n",
		pos.Width/2, pos.Height/2+5, html.EscapeString(typeLabel))
	fmt.Fprintf(buf,
		`  <text class="service-label" x="%.1f" y="%.1f" font-family="Arial, sans-serif" font-size="12" fill="#333" text-anchor="middle" font-weight="500">%s</text>`+"\n",
		pos.Width/2, pos.Height+16, html.EscapeString(s.Name))

	if s.Count > 1 {
		fmt.Fprintf(buf,
			`  <circle class="count-badge" cx="%.1f" cy="8" r="12" fill=%q stroke="white" stroke-width="2"/>`+"\n",
			pos.Width-8, color)
		fmt.Fprintf(buf,
			`  <text class="count-text" x="%.1f" y="12" font-family="Arial, sans-serif" font-size="11" fill="white" text-anchor="middle" font-weight="bold">%d</text>`+"\n",
			pos.Width-8, s.Count)
	}
	buf.WriteString("</g>\n")
}

func writeConnection(buf *bytes.Buffer, c aggregate.Connection, src, dst layout.Position) {
	style, ok := connectionStyles[c.Kind]
	if !ok {
		style = connectionStyles["default"]
	}

	path := layout.ConnectionPath(src, dst)

	dash := ""
	if style[1] != "" {
		dash = fmt.Sprintf(" stroke-dasharray=%q", style[1])
	}

	fmt.Fprintf(buf,
		`<g class="connection" data-source=%q data-target=%q data-conn-type=%q data-label=%q>`+"\n",
		html.EscapeString(c.SourceID), html.EscapeString(c.TargetID),
		c.Kind, html.EscapeString(c.Label))
	fmt.Fprintf(buf,
		`  <path class="connection-hitarea" d=%q fill="none" stroke="transparent" stroke-width="15"/>`+"\n", path)
	fmt.Fprintf(buf,
		`  <path class="connection-path" d=%q fill="none" stroke=%q stroke-width="1.5"%s marker-end=%q opacity="0.7"/>`+"\n",
		path, style[0], dash, style[2])
	buf.WriteString("</g>\n")
}
