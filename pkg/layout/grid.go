package layout

import (
	"sort"

	"github.com/stackplot/stackplot/pkg/aggregate"
)

// planGrid arranges non-VPC service types into rows so that connected
// types end up adjacent. Types are seeded by descending connection degree;
// each subsequent type tries the cells right of, below and left of an
// already-placed connected type before falling back to the append cursor.
func planGrid(services []*aggregate.Service, connections []aggregate.Connection, cols int) [][]*aggregate.Service {
	if len(services) == 0 {
		return nil
	}

	byType := make(map[string][]*aggregate.Service)
	var types []string
	for _, svc := range services {
		if _, ok := byType[svc.ServiceType]; !ok {
			types = append(types, svc.ServiceType)
		}
		byType[svc.ServiceType] = append(byType[svc.ServiceType], svc)
	}

	degree := make(map[string]int)
	adjacent := make(map[string]map[string]bool)
	typeOf := make(map[string]string)
	for t, svcs := range byType {
		for _, svc := range svcs {
			typeOf[svc.ID()] = t
		}
	}
	for _, conn := range connections {
		st, sok := typeOf[conn.SourceID]
		tt, tok := typeOf[conn.TargetID]
		if !sok || !tok || st == tt {
			continue
		}
		degree[st]++
		degree[tt]++
		link(adjacent, st, tt)
		link(adjacent, tt, st)
	}

	sort.SliceStable(types, func(i, j int) bool {
		if degree[types[i]] != degree[types[j]] {
			return degree[types[i]] > degree[types[j]]
		}
		return types[i] < types[j]
	})

	type cell struct{ row, col int }
	placed := make(map[string]cell)
	occupied := make(map[cell]string)
	cursor := cell{0, 0}

	advance := func() {
		for occupied[cursor] != "" {
			cursor.col++
			if cursor.col >= cols {
				cursor.col = 0
				cursor.row++
			}
		}
	}

	for _, t := range types {
		var spot *cell
		// Stable neighbor scan: check placed connected types in placement
		// order via the types slice.
		for _, other := range types {
			if !adjacent[t][other] {
				continue
			}
			base, ok := placed[other]
			if !ok {
				continue
			}
			for _, c := range []cell{
				{base.row, base.col + 1},
				{base.row + 1, base.col},
				{base.row, base.col - 1},
			} {
				if c.col < 0 || c.col >= cols {
					continue
				}
				if occupied[c] == "" {
					spot = &c
					break
				}
			}
			if spot != nil {
				break
			}
		}
		if spot == nil {
			advance()
			c := cursor
			spot = &c
		}
		placed[t] = *spot
		occupied[*spot] = t
	}

	maxRow := 0
	for _, c := range placed {
		if c.row > maxRow {
			maxRow = c.row
		}
	}

	rows := make([][]*aggregate.Service, maxRow+1)
	for row := 0; row <= maxRow; row++ {
		for col := 0; col < cols; col++ {
			if t := occupied[cell{row, col}]; t != "" {
				rows[row] = append(rows[row], byType[t]...)
			}
		}
	}
	return rows
}

func link(adjacent map[string]map[string]bool, a, b string) {
	if adjacent[a] == nil {
		adjacent[a] = make(map[string]bool)
	}
	adjacent[a][b] = true
}
