package tile

import (
	"errors"
	"fmt"
)

// ErrInvalidGeometry is matched by every *GeometryError.
var ErrInvalidGeometry = errors.New("invalid geometry")

// GeometryError reports a tiling spec that cannot produce a valid grid.
type GeometryError struct {
	Field  string
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("invalid geometry: %s %s", e.Field, e.Reason)
}

// Is reports whether target is ErrInvalidGeometry.
func (e *GeometryError) Is(target error) bool {
	return target == ErrInvalidGeometry
}

func invalid(field, format string, args ...any) *GeometryError {
	return &GeometryError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// AspectMismatch is an advisory warning: the source image will be stretched
// because its aspect ratio differs from the tiled area.
type AspectMismatch struct {
	SourceRatio float64
	TargetRatio float64
	Tolerance   float64
}

func (m *AspectMismatch) Error() string {
	return fmt.Sprintf("aspect ratio mismatch: image is %.3f, tiling layout is %.3f; the image will be stretched to fit",
		m.SourceRatio, m.TargetRatio)
}
