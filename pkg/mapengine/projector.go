package mapengine

// ToScreen maps a world position through the viewport:
// (world - center) * zoom + origin.
func ToScreen(world Vec2, v *Viewport, origin Vec2) Vec2 {
	return world.Sub(v.center).Scale(v.zoom).Add(origin)
}

// ToWorld is the inverse of ToScreen.
func ToWorld(screen Vec2, v *Viewport, origin Vec2) Vec2 {
	return screen.Sub(origin).Scale(1 / v.zoom).Add(v.center)
}
