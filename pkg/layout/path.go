package layout

import (
	"fmt"
	"math"
)

// ConnectionPath returns an SVG path between two positioned entities. The
// line leaves and enters through the edge pair matching the dominant axis
// of displacement so it does not cut through either box.
func ConnectionPath(from, to Position) string {
	fx, fy := from.X+from.Width/2, from.Y+from.Height/2
	tx, ty := to.X+to.Width/2, to.Y+to.Height/2
	dx, dy := tx-fx, ty-fy

	var x1, y1, x2, y2 float64
	if math.Abs(dx) >= math.Abs(dy) {
		// Horizontal: leave through left/right edges.
		if dx >= 0 {
			x1, x2 = from.X+from.Width, to.X
		} else {
			x1, x2 = from.X, to.X+to.Width
		}
		y1, y2 = fy, ty
		midX := (x1 + x2) / 2
		return fmt.Sprintf("M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f",
			x1, y1, midX, y1, midX, y2, x2, y2)
	}

	// Vertical: leave through top/bottom edges.
	if dy >= 0 {
		y1, y2 = from.Y+from.Height, to.Y
	} else {
		y1, y2 = from.Y, to.Y+to.Height
	}
	x1, x2 = fx, tx
	midY := (y1 + y2) / 2
	return fmt.Sprintf("M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f",
		x1, y1, x1, midY, x2, midY, x2, y2)
}
