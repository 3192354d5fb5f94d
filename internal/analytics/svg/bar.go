package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Bars renders a single-series bar chart with one bar per label.
func Bars(width, height int, values []float64, labels []string, opts BarOpts) (template.HTML, error) {
	if len(labels) == 0 {
		return "", fmt.Errorf("svg: labels required")
	}
	if len(values) != len(labels) {
		return "", fmt.Errorf("svg: values length must match labels")
	}
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

	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5f5")
	color := fallback(opts.Color, "#0ea5e9")
	seriesLabel := fallback(opts.SeriesLabel, "Value")

	bottom := padding
	if opts.RotateLabels {
		bottom = padding * 2.5
	}
	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - padding - bottom
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	minVal, maxVal := axisRange(bounds(values))
	scale := chartHeight / (maxVal - minVal)
	zeroY := padding + chartHeight - (0-minVal)*scale
	chartBottom := padding + chartHeight

	slot := chartWidth / float64(len(labels))
	barWidth := slot * 0.6

	var b strings.Builder
	writeFrame(&b, width, height, opts.Title, opts.Description, "bar", "Bar chart", "Bar comparison")
	writeGrid(&b, padding, padding, chartWidth, chartHeight, minVal, maxVal, tickCount, axisColor, gridColor)
	writeAxes(&b, padding, padding, chartWidth, chartHeight, zeroY, axisColor)

	for i, label := range labels {
		fill := color
		if i < len(opts.Colors) && strings.TrimSpace(opts.Colors[i]) != "" {
			fill = opts.Colors[i]
		}
		x := padding + float64(i)*slot + (slot-barWidth)/2
		y, h := barPosition(values[i], scale, zeroY, padding, chartBottom)
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\" aria-label=\"%s %s\"><title>%s: %s</title></rect>",
			x, y, barWidth, h, fill, escape(seriesLabel), escape(label), escape(label), escape(formatTick(values[i])))
		center := x + barWidth/2
		if opts.ShowValues {
			fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", center, y-4, axisColor, escape(formatTick(values[i])))
		}
		if opts.RotateLabels {
			labelY := chartBottom + 12
			fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\" transform=\"rotate(-40 %.2f %.2f)\">%s</text>", center, labelY, axisColor, center, labelY, escape(label))
			continue
		}
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", center, chartBottom+14, axisColor, escape(label))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func barPosition(value, scale, zeroY, padding, bottom float64) (float64, float64) {
	if value >= 0 {
		height := value * scale
		y := zeroY - height
		if y < padding {
			height -= padding - y
			y = padding
		}
		if height < 0 {
			height = 0
		}
		return y, height
	}
	height := math.Abs(value * scale)
	y := zeroY
	if y+height > bottom {
		height = bottom - y
	}
	if height < 0 {
		height = 0
	}
	return y, height
}
