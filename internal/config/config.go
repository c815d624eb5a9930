package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// MaxOctreeDepth bounds octree_depth so chunk steps stay within int range.
const MaxOctreeDepth = 16

// World holds everything the chunk pipeline reads as configuration. It is
// treated as read-only once loaded.
type World struct {
	VoxelSize           float32    `yaml:"voxel_size" json:"voxel_size"`
	Origin              [3]float32 `yaml:"origin" json:"origin"`
	OctreeDepth         int        `yaml:"octree_depth" json:"octree_depth"`
	LODDistanceFactor   float32    `yaml:"lod_distance_factor" json:"lod_distance_factor"`
	ComputeTransitions  bool       `yaml:"compute_transitions" json:"compute_transitions"`
	DeletionDelay       Duration   `yaml:"deletion_delay" json:"deletion_delay"`
	FoliageDensityScale float32    `yaml:"foliage_density_scale" json:"foliage_density_scale"`

	Workers    Workers     `yaml:"workers" json:"workers"`
	Density    Density     `yaml:"density" json:"density"`
	GrassTypes []GrassType `yaml:"grass_types" json:"grass_types"`
}

// Workers sizes the background pools.
type Workers struct {
	Mesh      int `yaml:"mesh" json:"mesh"`
	Foliage   int `yaml:"foliage" json:"foliage"`
	QueueSize int `yaml:"queue_size" json:"queue_size"`
}

// Density configures the procedural voxel field.
type Density struct {
	Seed             int64   `yaml:"seed" json:"seed"`
	Scale            float64 `yaml:"scale" json:"scale"` // noise frequency
	BaseHeight       int     `yaml:"base_height" json:"base_height"`
	GradientStrength float64 `yaml:"gradient_strength" json:"gradient_strength"`
	Octaves          int     `yaml:"octaves" json:"octaves"`
	Persistence      float64 `yaml:"persistence" json:"persistence"`
	Lacunarity       float64 `yaml:"lacunarity" json:"lacunarity"`
}

// GrassType groups varieties scattered together.
type GrassType struct {
	Name      string         `yaml:"name" json:"name"`
	Varieties []GrassVariety `yaml:"varieties" json:"varieties"`
}

// GrassVariety describes one instanced mesh and how it is scattered.
type GrassVariety struct {
	Mesh              string  `yaml:"mesh" json:"mesh"`
	Density           float32 `yaml:"density" json:"density"` // instances per 100 square units
	MinNormalY        float32 `yaml:"min_normal_y" json:"min_normal_y"`
	ScaleMin          float32 `yaml:"scale_min" json:"scale_min"`
	ScaleMax          float32 `yaml:"scale_max" json:"scale_max"`
	AlignToSurface    bool    `yaml:"align_to_surface" json:"align_to_surface"`
	RandomRotation    bool    `yaml:"random_rotation" json:"random_rotation"`
	StartCullDistance float32 `yaml:"start_cull_distance" json:"start_cull_distance"`
	EndCullDistance   float32 `yaml:"end_cull_distance" json:"end_cull_distance"`
	MinLOD            int     `yaml:"min_lod" json:"min_lod"`
	ReceivesDecals    bool    `yaml:"receives_decals" json:"receives_decals"`
	LightingChannels  uint8   `yaml:"lighting_channels" json:"lighting_channels"`
	CastShadow        bool    `yaml:"cast_shadow" json:"cast_shadow"`
	Collision         bool    `yaml:"collision" json:"collision"`
	AffectNavigation  bool    `yaml:"affect_navigation" json:"affect_navigation"`
}

// Default returns a small but complete world.
func Default() *World {
	return &World{
		VoxelSize:           1,
		Origin:              [3]float32{0, 0, 0},
		OctreeDepth:         4,
		LODDistanceFactor:   1.5,
		ComputeTransitions:  true,
		DeletionDelay:       Duration(500 * time.Millisecond),
		FoliageDensityScale: 1,
		Workers: Workers{
			Mesh:      4,
			Foliage:   2,
			QueueSize: 1024,
		},
		Density: Density{
			Seed:             1337,
			Scale:            1.0 / 64.0,
			BaseHeight:       0,
			GradientStrength: 32,
			Octaves:          4,
			Persistence:      0.5,
			Lacunarity:       2,
		},
		GrassTypes: []GrassType{
			{
				Name: "meadow",
				Varieties: []GrassVariety{
					{
						Mesh:              "grass_short",
						Density:           8,
						MinNormalY:        0.7,
						ScaleMin:          0.8,
						ScaleMax:          1.2,
						RandomRotation:    true,
						StartCullDistance: 96,
						EndCullDistance:   128,
						LightingChannels:  1,
					},
					{
						Mesh:              "flower",
						Density:           0.5,
						MinNormalY:        0.85,
						ScaleMin:          0.9,
						ScaleMax:          1.1,
						AlignToSurface:    true,
						RandomRotation:    true,
						StartCullDistance: 64,
						EndCullDistance:   96,
						LightingChannels:  1,
					},
				},
			},
		},
	}
}

// Load reads a YAML world file. An empty path returns defaults; fields absent
// from the file keep their default values.
func Load(path string) (*World, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c *World) Validate() error {
	if c.VoxelSize <= 0 {
		return invalid("voxel_size must be positive")
	}
	if c.OctreeDepth < 0 || c.OctreeDepth > MaxOctreeDepth {
		return invalid("octree_depth must be within [0, %d]", MaxOctreeDepth)
	}
	if c.LODDistanceFactor <= 0 {
		return invalid("lod_distance_factor must be positive")
	}
	if c.DeletionDelay < 0 {
		return invalid("deletion_delay cannot be negative")
	}
	if c.FoliageDensityScale < 0 {
		return invalid("foliage_density_scale cannot be negative")
	}
	if c.Workers.Mesh <= 0 {
		return invalid("workers.mesh must be positive")
	}
	if c.Workers.Foliage <= 0 {
		return invalid("workers.foliage must be positive")
	}
	if c.Workers.QueueSize < 0 {
		return invalid("workers.queue_size cannot be negative")
	}
	if c.Density.Scale <= 0 {
		return invalid("density.scale must be positive")
	}
	if c.Density.GradientStrength <= 0 {
		return invalid("density.gradient_strength must be positive")
	}
	if c.Density.Octaves <= 0 {
		return invalid("density.octaves must be positive")
	}
	for i, gt := range c.GrassTypes {
		if gt.Name == "" {
			return invalid("grass_types[%d].name must be set", i)
		}
		for j, v := range gt.Varieties {
			path := fmt.Sprintf("grass_types[%d].varieties[%d]", i, j)
			switch {
			case v.Mesh == "":
				return invalid("%s.mesh must be set", path)
			case v.Density < 0:
				return invalid("%s.density cannot be negative", path)
			case v.MinNormalY < -1 || v.MinNormalY > 1:
				return invalid("%s.min_normal_y must be within [-1, 1]", path)
			case v.ScaleMin <= 0 || v.ScaleMax < v.ScaleMin:
				return invalid("%s.scale_min must be positive and <= scale_max", path)
			case v.EndCullDistance < v.StartCullDistance:
				return invalid("%s.end_cull_distance must be >= start_cull_distance", path)
			case v.MinLOD < 0:
				return invalid("%s.min_lod cannot be negative", path)
			}
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}
