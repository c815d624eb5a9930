package foliage

import (
	"hash/crc32"
	"math"
)

// Seed derives the per-chunk random seed handed to an instance sink. The
// result is stable for a (mesh, chunk) pair and never zero.
func Seed(mesh, chunk string) int32 {
	s := int32(crc32.ChecksumIEEE([]byte(mesh + chunk)))
	if s == 0 {
		s++
	}
	return s
}

// streamSeed mixes generator inputs into two PCG seed words.
func streamSeed(in *Input) (uint64, uint64) {
	c := in.Corner
	h := uint64(int64(c.X))*0x9E3779B97F4A7C15 ^
		uint64(int64(c.Y))*0x517CC1B727220A95 ^
		uint64(int64(c.Z))*0x6C62272E07BB0142
	h ^= uint64(crc32.ChecksumIEEE([]byte(in.Variety.Mesh)))<<32 | uint64(uint16(in.TypeIndex))<<16 | uint64(uint16(in.VarietyIndex))
	return h, uint64(math.Float32bits(in.VoxelSize))<<32 | uint64(math.Float32bits(in.DensityScale))
}
