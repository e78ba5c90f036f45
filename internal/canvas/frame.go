package canvas

import "github.com/theonlysinjin/team-retro/internal/model"

// Frame converts between the viewport, container and canvas frames.
type Frame struct {
	// Container is the container's top-left corner in viewport coordinates.
	Container model.Position

	// Offset is the current pan offset.
	Offset model.Position
}

// ToContainer converts a viewport point to the container frame.
func (f Frame) ToContainer(viewport model.Position) model.Position {
	return viewport.Add(-f.Container.X, -f.Container.Y)
}

// ToCanvas converts a viewport point to the canvas frame.
func (f Frame) ToCanvas(viewport model.Position) model.Position {
	return f.ToContainer(viewport).Add(-f.Offset.X, -f.Offset.Y)
}

// ToViewport converts a canvas point back to the viewport frame.
func (f Frame) ToViewport(canvas model.Position) model.Position {
	return canvas.Add(f.Offset.X+f.Container.X, f.Offset.Y+f.Container.Y)
}
