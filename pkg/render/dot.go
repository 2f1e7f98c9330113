package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/stackplot/stackplot/pkg/terraform"
)

// DOTOptions configures the node-link export of the relationship graph.
type DOTOptions struct {
	// Detailed includes the resource type and module path in node labels.
	// When false, only the resource name is shown.
	Detailed bool
}

// Edge colors by relationship kind.
var dotEdgeColors = map[string]string{
	terraform.KindRedrivesTo:   "#E7157B",
	terraform.KindSGAllowsFrom: "#d97706",
	terraform.KindModuleRef:    "#8c4fff",
}

// DOT converts the raw relationship graph to Graphviz DOT format. This is
// the unaggregated view: one node per resource, one arrow per extracted
// relationship. Useful for debugging what the aggregator collapses.
func DOT(parsed *terraform.ParseResult, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph resources {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, r := range parsed.Resources {
		label := dotLabel(r, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [label=%q, color=%q];\n",
			r.FullID(), label, CategoryColor(r.Type))
	}

	buf.WriteString("\n")
	for _, rel := range parsed.Relationships {
		attrs := []string{}
		if rel.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", rel.Label))
		}
		if color, ok := dotEdgeColors[rel.Kind]; ok {
			attrs = append(attrs, fmt.Sprintf("color=%q", color))
		}
		if len(attrs) > 0 {
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", rel.SourceID, rel.TargetID, strings.Join(attrs, ", "))
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", rel.SourceID, rel.TargetID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotLabel(r *terraform.Resource, detailed bool) string {
	if !detailed {
		return r.Name
	}
	label := r.Type + "\n" + r.Name
	if r.ModulePath != "" {
		label = "module." + r.ModulePath + "\n" + label
	}
	return label
}

// GraphvizSVG renders a DOT graph to SVG using Graphviz.
func GraphvizSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the Graphviz svg tag so the document scales to
// its container instead of carrying point-based width/height.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
