package geom

// WorldToScreen maps a world point onto the screen: screen = world*zoom + pan.
func WorldToScreen(world Point, zoom float64, pan Point) Point {
	return Point{
		X: world.X*zoom + pan.X,
		Y: world.Y*zoom + pan.Y,
	}
}

// ScreenToWorld is the inverse of WorldToScreen.
// zoom must be non-zero and finite.
func ScreenToWorld(screen Point, zoom float64, pan Point) Point {
	return Point{
		X: (screen.X - pan.X) / zoom,
		Y: (screen.Y - pan.Y) / zoom,
	}
}

// RectToWorld inverse-transforms a screen rectangle into world units.
func RectToWorld(screen Rect, zoom float64, pan Point) Rect {
	return RectFromPoints(
		ScreenToWorld(screen.Min(), zoom, pan),
		ScreenToWorld(screen.Max(), zoom, pan),
	)
}

// RectToScreen maps a world rectangle onto the screen.
func RectToScreen(world Rect, zoom float64, pan Point) Rect {
	return RectFromPoints(
		WorldToScreen(world.Min(), zoom, pan),
		WorldToScreen(world.Max(), zoom, pan),
	)
}
