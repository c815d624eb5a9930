package meshing

import "github.com/go-gl/mathgl/mgl32"

// Direction names one of the six faces of a chunk. Transitions between LODs
// are tracked per direction.
type Direction int

const (
	XMin Direction = iota
	XMax
	YMin
	YMax
	ZMin
	ZMax
)

// NumDirections is the number of chunk faces.
const NumDirections = 6

// Directions lists every face in index order.
var Directions = [NumDirections]Direction{XMin, XMax, YMin, YMax, ZMin, ZMax}

var directionNames = [NumDirections]string{"-X", "+X", "-Y", "+Y", "-Z", "+Z"}

// Opposite returns the face on the other side of the boundary.
func (d Direction) Opposite() Direction {
	return d ^ 1
}

// Axis returns 0, 1 or 2 for X, Y or Z.
func (d Direction) Axis() int {
	return int(d) / 2
}

// Positive reports whether the face normal points along +axis.
func (d Direction) Positive() bool {
	return d&1 == 1
}

// Normal returns the outward unit normal of the face.
func (d Direction) Normal() mgl32.Vec3 {
	var n mgl32.Vec3
	if d.Positive() {
		n[d.Axis()] = 1
	} else {
		n[d.Axis()] = -1
	}
	return n
}

func (d Direction) String() string {
	if d < 0 || int(d) >= NumDirections {
		return "invalid"
	}
	return directionNames[d]
}

// Vec3i is an integer voxel coordinate.
type Vec3i struct {
	X, Y, Z int
}

// Add returns v+o.
func (v Vec3i) Add(o Vec3i) Vec3i {
	return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Vec3 converts to a float vector.
func (v Vec3i) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// Component returns the coordinate along axis 0, 1 or 2.
func (v Vec3i) Component(axis int) int {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
