package layout

// Config carries the unscaled size constants of a layout run. All values
// are pixels. The zero value is unusable; start from DefaultConfig.
type Config struct {
	CanvasWidth   float64 `toml:"canvas_width"`
	CanvasHeight  float64 `toml:"canvas_height"`
	Margin        float64 `toml:"margin"`
	MinScale      float64 `toml:"min_scale"`
	MaxScale      float64 `toml:"max_scale"`
	Padding       float64 `toml:"padding"`
	IconSize      float64 `toml:"icon_size"`
	IconSpacing   float64 `toml:"icon_spacing"`
	RowHeight     float64 `toml:"row_height"`
	ServiceWidth  float64 `toml:"service_width"`
	ServiceHeight float64 `toml:"service_height"`
}

// DefaultConfig returns the stock sizing for a 1600px-wide canvas.
func DefaultConfig() Config {
	return Config{
		CanvasWidth:   1600,
		CanvasHeight:  900,
		Margin:        40,
		MinScale:      0.6,
		MaxScale:      1.6,
		Padding:       16,
		IconSize:      64,
		IconSpacing:   40,
		RowHeight:     140,
		ServiceWidth:  120,
		ServiceHeight: 100,
	}
}

// sizing is every derived size constant after responsive scaling. Both the
// height pre-computation and the placement pass read from the same sizing
// value, so the two can never disagree about a dimension.
type sizing struct {
	scale float64

	margin      float64
	padding     float64
	iconSize    float64
	iconSpacing float64
	rowHeight   float64

	serviceW float64
	serviceH float64

	subnetHeaderH float64
	subnetEmptyH  float64
	subnetGap     float64
	subnetPadX    float64

	azHeaderH float64
	azGap     float64
	azPadX    float64

	vpcHeaderH float64
	vpcPadding float64
	vpcMinH    float64

	endpointW       float64
	endpointH       float64
	endpointSpacing float64

	sectionGap float64
}

func newSizing(cfg Config, scale float64) sizing {
	if scale < cfg.MinScale {
		scale = cfg.MinScale
	}
	if scale > cfg.MaxScale {
		scale = cfg.MaxScale
	}
	return sizing{
		scale: scale,

		margin:      cfg.Margin * scale,
		padding:     cfg.Padding * scale,
		iconSize:    cfg.IconSize * scale,
		iconSpacing: cfg.IconSpacing * scale,
		rowHeight:   cfg.RowHeight * scale,

		serviceW: cfg.ServiceWidth * scale,
		serviceH: cfg.ServiceHeight * scale,

		subnetHeaderH: 28 * scale,
		subnetEmptyH:  60 * scale,
		subnetGap:     12 * scale,
		subnetPadX:    16 * scale,

		azHeaderH: 32 * scale,
		azGap:     24 * scale,
		azPadX:    12 * scale,

		vpcHeaderH: 48 * scale,
		vpcPadding: 24 * scale,
		vpcMinH:    220 * scale,

		endpointW:       140 * scale,
		endpointH:       28 * scale,
		endpointSpacing: 36 * scale,

		sectionGap: 32 * scale,
	}
}

// subnetHeight is the box height for a subnet holding n services.
func (s sizing) subnetHeight(n int) float64 {
	body := s.subnetEmptyH
	if n > 0 {
		if with := s.serviceH + 2*s.padding; with > body {
			body = with
		}
	}
	return s.subnetHeaderH + body
}
