package svg

import (
	"strings"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestScatterColoursBySeries(t *testing.T) {
	points := []Point{
		{X: 10, Y: 100, Series: "A"},
		{X: 20, Y: 200, Series: "A"},
		{X: 0, Y: 50, Series: "B"},
	}
	html, err := Scatter(480, 320, points, ScatterOpts{
		Title:   "Price vs Discount",
		XLabel:  "Discount %",
		YLabel:  "Price",
		Series:  []string{"A", "B"},
		Palette: []string{"#111111", "#222222"},
	})
	if err != nil {
		t.Fatalf("scatter renderer error: %v", err)
	}
	output := string(html)
	if strings.Count(output, "<circle") != 3 {
		t.Fatalf("expected three markers")
	}
	if strings.Count(output, "fill=\"#111111\"") != 3 {
		t.Fatalf("expected series A colour on two markers and its legend swatch")
	}
	if strings.Count(output, "fill=\"#222222\"") != 2 {
		t.Fatalf("expected series B colour on one marker and its legend swatch")
	}
	if !strings.Contains(output, "Discount %") {
		t.Fatalf("expected axis label")
	}
}

func TestScatterEmpty(t *testing.T) {
	html, err := Scatter(0, 0, nil, ScatterOpts{EmptyLabel: "No categories selected"})
	if err != nil {
		t.Fatalf("scatter renderer error: %v", err)
	}
	output := string(html)
	if strings.Contains(output, "<circle") {
		t.Fatalf("expected no markers")
	}
	if !strings.Contains(output, "No categories selected") {
		t.Fatalf("expected empty label")
	}
}

func TestSeriesOrderAppendsUndeclared(t *testing.T) {
	got := seriesOrder([]string{"B"}, []Point{{Series: "A"}, {Series: "B"}, {Series: "C"}, {Series: "A"}})
	want := []string{"B", "A", "C"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
