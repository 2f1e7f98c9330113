// Package render turns a computed layout into output documents.
//
// # Overview
//
// The renderers consume the aggregated result plus the geometry from
// [pkg/layout] and never compute positions themselves. Three formats are
// supported:
//
//   - SVG: the architecture diagram (cloud, VPC, AZ and subnet containers,
//     service boxes, connection paths, endpoint boxes)
//   - HTML: the SVG embedded in a standalone page with the aggregation
//     metadata serialized for the client-side grouping UI
//   - DOT: a node-link view of the raw resource relationship graph,
//     optionally rendered to SVG through Graphviz
//
// # Usage
//
//	doc := &render.Document{Result: result, Positions: pos, Groups: groups, Height: h, Config: cfg}
//	svg := render.SVG(doc)
//	page, err := render.HTML(doc, render.HTMLOptions{Environment: "prod"})
//
//	dot := render.DOT(parsed, render.DOTOptions{})
//	svg, err := render.GraphvizSVG(dot)
package render
