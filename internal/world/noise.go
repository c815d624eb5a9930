package world

import "math"

// Deterministic 3D value noise: integer hashing for lattice values, quintic
// fade between them, summed over octaves.

func fade(t float64) float64 {
	// 6t^5 - 15t^4 + 10t^3
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// hash3 is a SplitMix64 finalizer over the packed coordinates. Each axis uses
// its own odd multiplier so swapped coordinates hash differently.
func hash3(x, y, z, seed int64) uint64 {
	v := uint64(x)*0x9E3779B97F4A7C15 + uint64(y)*0x517CC1B727220A95 + uint64(z)*0x6C62272E07BB0142 + uint64(seed)
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

func latticeValue3D(x, y, z, seed int64) float64 {
	return float64(hash3(x, y, z, seed)&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

// valueNoise3D returns a value in [0,1].
func valueNoise3D(x, y, z float64, seed int64) float64 {
	x0, y0, z0 := math.Floor(x), math.Floor(y), math.Floor(z)
	fx, fy, fz := fade(x-x0), fade(y-y0), fade(z-z0)
	ix, iy, iz := int64(x0), int64(y0), int64(z0)

	var c [2][2]float64 // collapsed along x, indexed [y][z]
	for dy := int64(0); dy < 2; dy++ {
		for dz := int64(0); dz < 2; dz++ {
			a := latticeValue3D(ix, iy+dy, iz+dz, seed)
			b := latticeValue3D(ix+1, iy+dy, iz+dz, seed)
			c[dy][dz] = lerp(a, b, fx)
		}
	}
	return lerp(lerp(c[0][0], c[1][0], fy), lerp(c[0][1], c[1][1], fy), fz)
}

// octaveNoise3D sums octaves of value noise, normalized back to [0,1].
func octaveNoise3D(x, y, z float64, seed int64, octaves int, persistence, lacunarity float64) float64 {
	amplitude, frequency := 1.0, 1.0
	sum, norm := 0.0, 0.0
	for i := range octaves {
		sum += valueNoise3D(x*frequency, y*frequency, z*frequency, seed+int64(i*131)) * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}
