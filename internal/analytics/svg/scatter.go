package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// Scatter renders points coloured by series with a legend. An empty point set
// still renders the axes and opts.EmptyLabel.
func Scatter(width, height int, points []Point, opts ScatterOpts) (template.HTML, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	tickCount := opts.TickCount
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}
	radius := opts.PointSize
	if radius <= 0 {
		radius = 3.5
	}
	palette := opts.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5f5")

	series := seriesOrder(opts.Series, points)
	legendRows := (len(series) + 3) / 4
	top := padding + float64(legendRows)*14
	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - top - padding
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	xs := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	for _, p := range points {
		xs = append(xs, p.X)
		ys = append(ys, p.Y)
	}
	minX, maxX, minY, maxY := 0.0, 1.0, 0.0, 1.0
	if len(points) > 0 {
		minX, maxX = axisRange(bounds(xs))
		minY, maxY = axisRange(bounds(ys))
	}
	scaleX := chartWidth / (maxX - minX)
	scaleY := chartHeight / (maxY - minY)
	chartBottom := top + chartHeight

	var b strings.Builder
	writeFrame(&b, width, height, opts.Title, opts.Description, "scatter", "Scatter chart", "Point distribution")
	writeGrid(&b, padding, top, chartWidth, chartHeight, minY, maxY, tickCount, axisColor, gridColor)
	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		x := padding + ratio*chartWidth
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", x, chartBottom+14, axisColor, escape(formatTick(minX+(maxX-minX)*ratio)))
	}
	writeAxes(&b, padding, top, chartWidth, chartHeight, chartBottom, axisColor)

	if opts.XLabel != "" {
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"middle\">%s</text>", padding+chartWidth/2, chartBottom+30, axisColor, escape(opts.XLabel))
	}
	if opts.YLabel != "" {
		cy := top + chartHeight/2
		fmt.Fprintf(&b, "<text x=\"12\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"middle\" transform=\"rotate(-90 12 %.2f)\">%s</text>", cy, axisColor, cy, escape(opts.YLabel))
	}

	colors := make(map[string]string, len(series))
	for i, name := range series {
		colors[name] = palette[i%len(palette)]
	}

	if len(points) == 0 {
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"12\" text-anchor=\"middle\">%s</text>", padding+chartWidth/2, top+chartHeight/2, axisColor, escape(fallback(opts.EmptyLabel, "No data")))
	}
	for _, p := range points {
		cx := padding + (p.X-minX)*scaleX
		cy := chartBottom - (p.Y-minY)*scaleY
		fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.1f\" fill=\"%s\" fill-opacity=\"0.7\"><title>%s: %s, %s</title></circle>",
			cx, cy, radius, colors[p.Series], escape(p.Series), escape(formatTick(p.X)), escape(formatTick(p.Y)))
	}

	for i, name := range series {
		lx := padding + float64(i%4)*(chartWidth/4)
		ly := padding + float64(i/4)*14 - 4
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", lx, ly-8, colors[name])
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s</text>", lx+14, ly, axisColor, escape(name))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func seriesOrder(declared []string, points []Point) []string {
	seen := make(map[string]bool, len(declared))
	order := make([]string, 0, len(declared))
	for _, name := range declared {
		if !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	for _, p := range points {
		if !seen[p.Series] {
			seen[p.Series] = true
			order = append(order, p.Series)
		}
	}
	return order
}
