package viewer

import (
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sudorandom/telescope/pkg/mapengine"
)

const (
	pickTolerance = 8.0
	// dragSlop is how far the cursor may travel before a press stops being
	// a click.
	dragSlop   = 3.0
	wheelStep  = 1.1
	keyPanStep = 40.0
	keyZoom    = 1.25
)

// panDelta turns a cursor movement into a viewport pan: dragging the map
// right moves the center left.
func panDelta(cursor mapengine.Vec2) mapengine.Vec2 {
	return cursor.Scale(-1)
}

// wheelFactor maps a wheel offset to a zoom multiplier.
func wheelFactor(dy float64) float64 {
	return math.Pow(wheelStep, dy)
}

type dragState struct {
	active bool
	pane   int
	start  mapengine.Vec2
	last   mapengine.Vec2
	moved  bool
}

func (v *Viewer) handleInput() {
	cx, cy := ebiten.CursorPosition()
	cursor := mapengine.Vec2{X: float64(cx), Y: float64(cy)}
	rects := v.rects()
	hover := paneAt(rects, cursor)

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && hover >= 0 {
		v.active = hover
		v.drag = dragState{active: true, pane: hover, start: cursor, last: cursor}
	}
	if v.drag.active && v.drag.pane < len(v.panes) {
		p := v.panes[v.drag.pane]
		if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
			if d := cursor.Sub(v.drag.last); d != (mapengine.Vec2{}) {
				p.Engine.Pan(panDelta(d))
				v.drag.last = cursor
			}
			if cursor.Dist(v.drag.start) > dragSlop {
				v.drag.moved = true
			}
		}
		if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
			if !v.drag.moved {
				v.selectAt(p, cursor)
			}
			v.drag = dragState{}
		}
	}

	if hover >= 0 {
		if _, dy := ebiten.Wheel(); dy != 0 {
			p := v.panes[hover]
			p.Engine.ZoomAt(cursor.Sub(p.bounds.origin()), wheelFactor(dy))
		}
	}

	v.handleKeys(cursor, hover)
}

func (v *Viewer) selectAt(p *Pane, cursor mapengine.Vec2) {
	pt, ok := p.Engine.PickAt(cursor.Sub(p.bounds.origin()), pickTolerance)
	p.selected, p.hasSelection = pt.ID, ok
	if ok {
		log.Printf("[MAP] Pane %s selected %s (%d)", p.ID, pt.Name, pt.ID)
	}
}

func (v *Viewer) handleKeys(cursor mapengine.Vec2, hover int) {
	p := v.activePane()
	if p == nil {
		return
	}
	center := mapengine.Vec2{X: p.bounds.W / 2, Y: p.bounds.H / 2}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyF3), inpututil.IsKeyJustPressed(ebiten.KeyD):
		v.debug = !v.debug
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyKPAdd):
		p.Engine.ZoomAt(center, keyZoom)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract):
		p.Engine.ZoomAt(center, 1/keyZoom)
	case inpututil.IsKeyJustPressed(ebiten.KeyHome):
		p.Engine.SetCenter(p.Engine.Store().Bounds().Midpoint())
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		if p.hasSelection {
			v.opts.Broadcaster.Publish(mapengine.CenterOn{Target: mapengine.TargetSystem, ID: p.selected})
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		v.AddPane()
	case inpututil.IsKeyJustPressed(ebiten.KeyW):
		if len(v.panes) > 1 {
			v.ClosePane(v.active)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyU):
		if v.opts.Universe != nil {
			p.Engine.RequestLoad(v.ctx, v.opts.Universe)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		if hover >= 0 {
			v.loadRegionAt(v.panes[hover], cursor)
		}
	}

	var pan mapengine.Vec2
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		pan.X -= keyPanStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		pan.X += keyPanStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		pan.Y -= keyPanStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		pan.Y += keyPanStep
	}
	if pan != (mapengine.Vec2{}) {
		p.Engine.Pan(pan)
	}
}

// loadRegionAt switches a pane to the schematic layout of the region whose
// label is nearest to the cursor.
func (v *Viewer) loadRegionAt(p *Pane, cursor mapengine.Vec2) {
	if v.opts.Region == nil {
		return
	}
	l, ok := p.Engine.LabelNear(p.Engine.ScreenToWorld(cursor.Sub(p.bounds.origin())))
	if !ok || l.ID == 0 {
		return
	}
	log.Printf("[MAP] Pane %s loading region %s", p.ID, l.Name)
	p.Engine.RequestLoad(v.ctx, v.opts.Region(l.ID))
}
