// Package render draws distortion graphs as PNG images for quick visual
// inspection of a built dataset.
package render

import (
	"math"
	"sort"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	"golang.org/x/image/font/basicfont"

	"github.com/mindweave/mindweave/graph"
)

// Options controls the rendered image.
type Options struct {
	Width  int
	Height int
	Title  string
}

// DefaultOptions returns the defaults used by the CLI.
func DefaultOptions() Options {
	return Options{Width: 1200, Height: 900}
}

// WriteGraphPNG renders g on a circular layout and writes it to path.
// Distortion nodes are sized by occurrence count, intervention nodes by
// effectiveness; co-occurrence edges are gray, targets edges green, and edge
// width tracks weight.
func WriteGraphPNG(g *graph.DiGraph, path string, opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts = Options{Width: 1200, Height: 900, Title: opts.Title}
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	positions := forceLayout(g, float64(opts.Width), float64(opts.Height))

	for _, e := range g.Edges() {
		src, ok1 := positions[e.Source]
		dst, ok2 := positions[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		switch e.Type {
		case graph.EdgeTypeTargets, graph.EdgeTypeAddresses:
			dc.SetRGBA(0.2, 0.6, 0.3, 0.8)
		default:
			dc.SetRGBA(0.4, 0.4, 0.4, 0.6)
		}
		dc.SetLineWidth(edgeWidth(e.Weight))
		dc.DrawLine(src.x, src.y, dst.x, dst.y)
		dc.Stroke()
		drawArrowHead(dc, src, dst)
	}

	for _, n := range g.Nodes() {
		pos, ok := positions[n.ID]
		if !ok {
			continue
		}
		r := nodeRadius(n)
		if n.Type == graph.NodeTypeIntervention {
			dc.SetRGB(0.3, 0.65, 0.4)
		} else {
			dc.SetRGB(0.85, 0.45, 0.3)
		}
		dc.DrawCircle(pos.x, pos.y, r)
		dc.Fill()
		dc.SetRGB(0.15, 0.15, 0.15)
		dc.DrawCircle(pos.x, pos.y, r)
		dc.Stroke()
		dc.DrawStringAnchored(n.ID, pos.x, pos.y+r+10, 0.5, 0.5)
	}

	if opts.Title != "" {
		dc.SetRGB(0.1, 0.1, 0.1)
		dc.DrawStringAnchored(opts.Title, float64(opts.Width)/2, 20, 0.5, 0.5)
	}

	if err := dc.SavePNG(path); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

type point struct{ x, y float64 }

// forceLayout runs Fruchterman-Reingold spring iterations from a
// deterministic circular start, so the same graph always renders the same
// picture. Connected nodes pull together, all pairs push apart, and a cooling
// step damps movement until the layout settles.
func forceLayout(g *graph.DiGraph, width, height float64) map[string]point {
	positions := circularLayout(g, width, height)
	ids := g.NodeIDs()
	if len(ids) < 2 {
		return positions
	}

	const iterations = 120
	area := width * height
	k := math.Sqrt(area / float64(len(ids)))
	temp := math.Min(width, height) / 10

	for iter := 0; iter < iterations; iter++ {
		disp := make(map[string]point, len(ids))

		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := ids[i], ids[j]
				dx := positions[a].x - positions[b].x
				dy := positions[a].y - positions[b].y
				dist := math.Hypot(dx, dy)
				if dist < 1e-6 {
					dist = 1e-6
				}
				repulse := k * k / dist
				disp[a] = point{disp[a].x + dx/dist*repulse, disp[a].y + dy/dist*repulse}
				disp[b] = point{disp[b].x - dx/dist*repulse, disp[b].y - dy/dist*repulse}
			}
		}

		for _, e := range g.Edges() {
			dx := positions[e.Source].x - positions[e.Target].x
			dy := positions[e.Source].y - positions[e.Target].y
			dist := math.Hypot(dx, dy)
			if dist < 1e-6 {
				dist = 1e-6
			}
			attract := dist * dist / k
			disp[e.Source] = point{disp[e.Source].x - dx/dist*attract, disp[e.Source].y - dy/dist*attract}
			disp[e.Target] = point{disp[e.Target].x + dx/dist*attract, disp[e.Target].y + dy/dist*attract}
		}

		for _, id := range ids {
			d := disp[id]
			mag := math.Hypot(d.x, d.y)
			if mag < 1e-6 {
				continue
			}
			step := math.Min(mag, temp)
			p := point{
				x: positions[id].x + d.x/mag*step,
				y: positions[id].y + d.y/mag*step,
			}
			p.x = math.Min(width-80, math.Max(80, p.x))
			p.y = math.Min(height-60, math.Max(60, p.y))
			positions[id] = p
		}

		temp *= 0.95
	}
	return positions
}

// circularLayout spreads nodes evenly on a circle, distortions before
// interventions, alphabetical within each group. It seeds the force layout.
func circularLayout(g *graph.DiGraph, width, height float64) map[string]point {
	nodes := g.Nodes()
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Type != nodes[j].Type {
			return nodes[i].Type == graph.NodeTypeDistortion
		}
		return nodes[i].ID < nodes[j].ID
	})

	cx, cy := width/2, height/2
	radius := math.Min(width, height)/2 - 110

	positions := make(map[string]point, len(nodes))
	for i, n := range nodes {
		angle := 2 * math.Pi * float64(i) / float64(len(nodes))
		positions[n.ID] = point{
			x: cx + radius*math.Cos(angle),
			y: cy + radius*math.Sin(angle),
		}
	}
	return positions
}

func nodeRadius(n *graph.Node) float64 {
	const base, max = 10.0, 36.0
	var scale float64
	switch {
	case n.Distortion != nil:
		scale = math.Sqrt(float64(n.Distortion.Occurrences))
	case n.Intervention != nil:
		score := n.Intervention.EffectivenessScore
		// Global-graph interventions carry no severity deltas; size those by
		// cohort-level improvement instead.
		if n.Intervention.DeltaCount == 0 {
			score = n.Intervention.AvgImprovement
		}
		scale = score * 8
	}
	r := base + scale*3
	if r > max {
		return max
	}
	if r < base {
		return base
	}
	return r
}

func edgeWidth(weight int) float64 {
	w := 1 + math.Log1p(float64(weight))
	if w > 6 {
		return 6
	}
	return w
}

// drawArrowHead marks edge direction with a short chevron near the target.
func drawArrowHead(dc *gg.Context, src, dst point) {
	angle := math.Atan2(dst.y-src.y, dst.x-src.x)
	// Pull back from the node center so the head clears the circle.
	tipX := dst.x - 24*math.Cos(angle)
	tipY := dst.y - 24*math.Sin(angle)
	const size = 8.0
	dc.DrawLine(tipX, tipY, tipX-size*math.Cos(angle-0.4), tipY-size*math.Sin(angle-0.4))
	dc.DrawLine(tipX, tipY, tipX-size*math.Cos(angle+0.4), tipY-size*math.Sin(angle+0.4))
	dc.Stroke()
}
