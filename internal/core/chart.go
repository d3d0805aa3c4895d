package core

import (
	"fmt"
	"math"
)

// Donut chart geometry. Fixed viewBox center and radius; slices start at
// 12 o'clock (-90 degrees in an x-right/y-down coordinate system) and are
// placed consecutively in the order of the supplied breakdown.
const (
	donutCenterX = 70.0
	donutCenterY = 70.0
	donutRadius  = 58.0
)

// DonutSlice is one arc of the spend-by-category donut.
type DonutSlice struct {
	Category   string  `json:"category"`
	Fraction   float64 `json:"fraction"`
	StartAngle float64 `json:"start_angle"` // degrees
	EndAngle   float64 `json:"end_angle"`   // degrees
	Path       string  `json:"path"`        // SVG arc path
}

// DonutSlices converts a category breakdown into consecutive arcs, each
// spanning fraction*360 degrees. Returns nil when the grand total is zero.
func DonutSlices(b CategoryBreakdown) []DonutSlice {
	if !b.Total.IsPositive() {
		return nil
	}
	total, _ := b.Total.Float64()

	slices := make([]DonutSlice, 0, len(b.Entries))
	start := -90.0
	for _, entry := range b.Entries {
		amount, _ := entry.Total.Float64()
		frac := amount / total
		span := frac * 360.0
		end := start + span
		slices = append(slices, DonutSlice{
			Category:   entry.Category,
			Fraction:   frac,
			StartAngle: start,
			EndAngle:   end,
			Path:       arcPath(start, end, span),
		})
		start = end
	}
	return slices
}

func arcPath(startDeg, endDeg, spanDeg float64) string {
	x1 := donutCenterX + donutRadius*math.Cos(rad(startDeg))
	y1 := donutCenterY + donutRadius*math.Sin(rad(startDeg))
	x2 := donutCenterX + donutRadius*math.Cos(rad(endDeg))
	y2 := donutCenterY + donutRadius*math.Sin(rad(endDeg))
	large := 0
	if spanDeg > 180 {
		large = 1
	}
	return fmt.Sprintf("M %.3f %.3f A %.3f %.3f 0 %d 1 %.3f %.3f L %.3f %.3f Z",
		x1, y1, donutRadius, donutRadius, large, x2, y2, donutCenterX, donutCenterY)
}

func rad(deg float64) float64 {
	return deg * math.Pi / 180
}
