package chunk

import (
	"lod-terrain/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

// worldTransform maps chunk-local voxel positions to world space.
func worldTransform(origin [3]float32, voxelSize float32, corner meshing.Vec3i) mgl32.Mat4 {
	relative := mgl32.Translate3D(float32(corner.X), float32(corner.Y), float32(corner.Z))
	return mgl32.Translate3D(origin[0], origin[1], origin[2]).
		Mul4(mgl32.Scale3D(voxelSize, voxelSize, voxelSize)).
		Mul4(relative)
}

// stripScale normalizes the basis columns, keeping rotation and translation.
func stripScale(m mgl32.Mat4) mgl32.Mat4 {
	for c := 0; c < 3; c++ {
		col := m.Col(c).Vec3()
		if l := col.Len(); l > 0 {
			col = col.Mul(1 / l)
		}
		m.SetCol(c, col.Vec4(0))
	}
	return m
}
