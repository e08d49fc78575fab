package analyzer

import (
	"image"
	"math"
	"sort"

	"go-face-palette/pkg/models"
)

// minPolygonPoints is the smallest vertex count that encloses an area
const minPolygonPoints = 3

type regionMaskBuilder struct{}

// NewRegionMaskBuilder creates a polygon-fill region mask builder
func NewRegionMaskBuilder() RegionMaskBuilder {
	return &regionMaskBuilder{}
}

// Build collects the pixels inside the polygon traced by the region's
// landmarks. Landmark coordinates are scaled by the image size and truncated.
// Indices beyond the landmark set are skipped; fewer than three surviving
// points yields an empty set. Pixels are returned in row-major order.
func (b *regionMaskBuilder) Build(buf *PixelBuffer, landmarks models.LandmarkSet, region RegionDefinition) RegionPixelSet {
	if buf == nil || buf.Width == 0 || buf.Height == 0 {
		return nil
	}

	points := b.polygonPoints(buf, landmarks, region)
	if points == nil {
		return nil
	}

	mask := b.fillPolygon(points, buf.Width, buf.Height)

	var pixels RegionPixelSet
	for y := 0; y < buf.Height; y++ {
		row := mask[y*buf.Width : (y+1)*buf.Width]
		for x, inside := range row {
			if inside {
				pixels = append(pixels, buf.At(x, y))
			}
		}
	}
	return pixels
}

// polygonPoints maps region indices to pixel coordinates. Consecutive
// duplicates are collapsed since they do not change the filled area.
func (b *regionMaskBuilder) polygonPoints(buf *PixelBuffer, landmarks models.LandmarkSet, region RegionDefinition) []image.Point {
	points := make([]image.Point, 0, len(region.Indices))
	valid := 0
	for _, idx := range region.Indices {
		if idx < 0 || idx >= len(landmarks) {
			continue
		}
		valid++
		lm := landmarks[idx]
		p := image.Point{
			X: int(lm.X * float64(buf.Width)),
			Y: int(lm.Y * float64(buf.Height)),
		}
		if n := len(points); n > 0 && points[n-1] == p {
			continue
		}
		points = append(points, p)
	}
	if valid < minPolygonPoints {
		return nil
	}
	return points
}

// fillPolygon marks the polygon interior with the even-odd rule, scanning
// each row and pairing edge crossings, then paints the closed outline so
// degenerate polygons such as a closed eye keep their line pixels.
func (b *regionMaskBuilder) fillPolygon(points []image.Point, width, height int) []bool {
	mask := make([]bool, width*height)
	set := func(x, y int) {
		if x >= 0 && x < width && y >= 0 && y < height {
			mask[y*width+x] = true
		}
	}

	n := len(points)
	var xs []float64
	for y := 0; y < height; y++ {
		xs = xs[:0]
		for i := 0; i < n; i++ {
			p0, p1 := points[i], points[(i+1)%n]
			if p0.Y == p1.Y {
				continue
			}
			if p0.Y > p1.Y {
				p0, p1 = p1, p0
			}
			// half-open so a shared vertex is crossed once
			if y < p0.Y || y >= p1.Y {
				continue
			}
			t := float64(y-p0.Y) / float64(p1.Y-p0.Y)
			xs = append(xs, float64(p0.X)+t*float64(p1.X-p0.X))
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for x := int(math.Ceil(xs[i])); x <= int(math.Floor(xs[i+1])); x++ {
				set(x, y)
			}
		}
	}

	for i := 0; i < n; i++ {
		drawLine(points[i], points[(i+1)%n], set)
	}
	return mask
}

// drawLine walks an 8-connected Bresenham line from a to b inclusive
func drawLine(a, b image.Point, set func(x, y int)) {
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	x, y := a.X, a.Y
	for {
		set(x, y)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
