package svg

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	SeriesLabel string
	Color       string
	// Colors overrides Color per bar, matched by index.
	Colors       []string
	AxisColor    string
	GridColor    string
	Padding      float64
	TickCount    int
	RotateLabels bool
	ShowValues   bool
}

// ScatterOpts customises the scatter renderer.
type ScatterOpts struct {
	Title       string
	Description string
	XLabel      string
	YLabel      string
	// Series fixes the legend order and colour assignment. Points whose series
	// is not listed are appended in first-seen order.
	Series     []string
	Palette    []string
	AxisColor  string
	GridColor  string
	Padding    float64
	TickCount  int
	PointSize  float64
	EmptyLabel string
}

// Point is one scatter marker.
type Point struct {
	X      float64
	Y      float64
	Series string
}

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 280
	DefaultPadding = 40.0
	DefaultTicks   = 5
)

// DefaultPalette is the categorical colour cycle used by the scatter chart.
var DefaultPalette = []string{
	"#2563eb", "#f97316", "#16a34a", "#dc2626", "#9333ea",
	"#0891b2", "#ca8a04", "#db2777", "#4b5563", "#65a30d",
}
