package viewer

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/sudorandom/telescope/pkg/mapengine"
)

var (
	colorBackground = color.RGBA{8, 10, 16, 255}
	colorEdge       = color.RGBA{48, 58, 78, 255}
	colorPoint      = color.RGBA{190, 200, 220, 255}
	colorName       = color.RGBA{150, 160, 180, 255}
	colorLabel      = color.RGBA{110, 130, 170, 255}
	colorPulse      = color.RGBA{255, 70, 50, 255}
	colorMarker     = color.RGBA{80, 220, 120, 255}
	colorSelection  = color.RGBA{255, 210, 80, 255}
	colorBorder     = color.RGBA{36, 42, 53, 255}
)

const (
	pointRadius = 2.5
	// names are only drawn once few enough systems are on screen
	maxNamedPoints = 150
	pulseMinSize   = 10.0
	pulseMaxSize   = 60.0
)

func (v *Viewer) drawPane(screen *ebiten.Image, p *Pane, highlight bool) {
	b := p.bounds
	if b.W <= 0 || b.H <= 0 {
		return
	}
	dst := screen.SubImage(image.Rect(int(b.X), int(b.Y), int(b.X+b.W), int(b.Y+b.H))).(*ebiten.Image)
	o := b.origin()
	toScreen := func(w mapengine.Vec2) mapengine.Vec2 { return p.Engine.WorldToScreen(w).Add(o) }
	store := p.Engine.Store()

	for _, e := range p.frame.Edges {
		a, c := toScreen(e.From), toScreen(e.To)
		if !b.intersectsSegment(a, c) {
			continue
		}
		vector.StrokeLine(dst, float32(a.X), float32(a.Y), float32(c.X), float32(c.Y), 1, colorEdge, true)
	}

	named := len(p.frame.Visible) <= maxNamedPoints
	nameFace := &text.GoTextFace{Source: v.fontSource, Size: 11}
	for _, id := range p.frame.Visible {
		pt, ok := store.Point(id)
		if !ok {
			continue
		}
		s := toScreen(pt.Pos)
		if !b.contains(s) {
			continue
		}
		vector.DrawFilledCircle(dst, float32(s.X), float32(s.Y), pointRadius, colorPoint, true)
		if named && v.fontSource != nil {
			op := &text.DrawOptions{}
			op.GeoM.Translate(s.X+5, s.Y-14)
			op.ColorScale.ScaleWithColor(colorName)
			text.Draw(dst, pt.Name, nameFace, op)
		}
	}

	if v.fontSource != nil {
		labelFace := &text.GoTextFace{Source: v.fontSource, Size: 16}
		for _, l := range store.Labels() {
			s := toScreen(l.Anchor)
			if !b.contains(s) {
				continue
			}
			w, h := text.Measure(l.Name, labelFace, 0)
			op := &text.DrawOptions{}
			op.GeoM.Translate(s.X-w/2, s.Y-h/2)
			op.ColorScale.ScaleWithColor(colorLabel)
			op.ColorScale.ScaleAlpha(0.7)
			text.Draw(dst, l.Name, labelFace, op)
		}
	}

	v.drawPulses(dst, p, toScreen)

	for _, m := range p.Engine.Markers() {
		if !m.Resolved {
			continue
		}
		s := toScreen(m.Pos)
		vector.StrokeCircle(dst, float32(s.X), float32(s.Y), 7, 2, colorMarker, true)
	}

	if p.hasSelection {
		if pt, ok := store.Point(p.selected); ok {
			s := toScreen(pt.Pos)
			vector.StrokeCircle(dst, float32(s.X), float32(s.Y), 10, 1.5, colorSelection, true)
		}
	}

	if p.Engine.Pending() {
		v.drawCaption(dst, o.Add(mapengine.Vec2{X: 12, Y: b.H - 28}), "Loading...")
	}
	if v.debug {
		v.drawStats(dst, p)
	}
	if highlight {
		vector.StrokeRect(dst, float32(b.X)+1, float32(b.Y)+1, float32(b.W)-2, float32(b.H)-2, 2, colorSelection, false)
	} else {
		vector.StrokeRect(dst, float32(b.X), float32(b.Y), float32(b.W), float32(b.H), 1, colorBorder, false)
	}
}

func (v *Viewer) drawPulses(dst *ebiten.Image, p *Pane, toScreen func(mapengine.Vec2) mapengine.Vec2) {
	if len(p.frame.Pulses) == 0 || v.pulseImage == nil {
		return
	}
	imgW := float64(v.pulseImage.Bounds().Dx())
	halfW := imgW / 2
	r, g, bl := float64(colorPulse.R)/255.0, float64(colorPulse.G)/255.0, float64(colorPulse.B)/255.0
	op := &ebiten.DrawImageOptions{}
	op.Blend = ebiten.BlendLighter
	for id, alpha := range p.frame.Pulses {
		pt, ok := p.Engine.Store().Point(id)
		if !ok {
			continue
		}
		s := toScreen(pt.Pos)
		size := pulseMinSize + (1-alpha)*(pulseMaxSize-pulseMinSize)
		scale := size / imgW
		op.GeoM.Reset()
		op.GeoM.Translate(-halfW, -halfW)
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(s.X, s.Y)
		op.ColorScale.Reset()
		op.ColorScale.Scale(float32(r*alpha), float32(g*alpha), float32(bl*alpha), float32(alpha))
		dst.DrawImage(v.pulseImage, op)
	}
}

func (v *Viewer) drawCaption(dst *ebiten.Image, at mapengine.Vec2, s string) {
	if v.fontSource == nil {
		return
	}
	face := &text.GoTextFace{Source: v.fontSource, Size: 14}
	op := &text.DrawOptions{}
	op.GeoM.Translate(at.X, at.Y)
	op.ColorScale.Scale(1, 1, 1, 0.8)
	text.Draw(dst, s, face, op)
}

func (v *Viewer) drawStats(dst *ebiten.Image, p *Pane) {
	if v.monoSource == nil {
		return
	}
	lines := statsLines(p.ID, p.Engine.Stats(), v.opts.Broadcaster.Dropped(), ebiten.ActualFPS())
	fontSize := 12.0
	face := &text.GoTextFace{Source: v.monoSource, Size: fontSize}
	x, y := p.bounds.X+10, p.bounds.Y+10
	boxW, boxH := 280.0, float64(len(lines))*(fontSize+4)+12
	vector.DrawFilledRect(dst, float32(x), float32(y), float32(boxW), float32(boxH), color.RGBA{0, 0, 0, 160}, false)
	vector.StrokeRect(dst, float32(x), float32(y), float32(boxW), float32(boxH), 1, colorBorder, false)
	for i, line := range lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(x+8, y+6+float64(i)*(fontSize+4))
		op.ColorScale.Scale(1, 1, 1, 0.85)
		text.Draw(dst, line, face, op)
	}
}

// statsLines formats the debug overlay.
func statsLines(paneID string, s mapengine.Stats, dropped int64, fps float64) []string {
	return []string{
		fmt.Sprintf("pane     %s", paneID),
		fmt.Sprintf("points   %d (%d indexed)", s.Points, s.Indexed),
		fmt.Sprintf("edges    %d (%d dropped)", s.Edges, s.Dropped),
		fmt.Sprintf("visible  %d", s.Visible),
		fmt.Sprintf("center   %.1f, %.1f", s.Center.X, s.Center.Y),
		fmt.Sprintf("zoom     %.3f  radius %.1f", s.Zoom, s.Radius),
		fmt.Sprintf("queries  %d  gen %d", s.Recomputes, s.Generation),
		fmt.Sprintf("cmds     %d dropped", dropped),
		fmt.Sprintf("fps      %.0f", fps),
	}
}

// initPulseTexture renders the soft ring drawn for every pulse.
func (v *Viewer) initPulseTexture() {
	size := 128
	v.pulseImage = ebiten.NewImage(size, size)
	pixels := make([]byte, size*size*4)
	center, maxDist := float64(size)/2.0, float64(size)/2.0
	outer, inner := 0.9, 0.6
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist >= maxDist {
				continue
			}
			val := 0.0
			if dist > maxDist*outer {
				val = math.Cos(((dist - maxDist*outer) / (maxDist * (1 - outer))) * (math.Pi / 2))
			} else if dist > maxDist*inner {
				val = math.Sin(((dist - maxDist*inner) / (maxDist * (outer - inner))) * (math.Pi / 2))
			}
			// premultiplied white
			a := uint8(val * 255)
			i := (y*size + x) * 4
			pixels[i], pixels[i+1], pixels[i+2], pixels[i+3] = a, a, a, a
		}
	}
	v.pulseImage.WritePixels(pixels)
}
