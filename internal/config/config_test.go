package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestValidateDefaultConfig(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default configuration should be valid: %v", err)
	}
}

func TestValidateDetectsInvalidConfigurations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*World)
		wantErr string
	}{
		{
			name:    "non positive voxel size",
			mutate:  func(c *World) { c.VoxelSize = 0 },
			wantErr: "voxel_size must be positive",
		},
		{
			name:    "octree too deep",
			mutate:  func(c *World) { c.OctreeDepth = MaxOctreeDepth + 1 },
			wantErr: "octree_depth must be within [0, 16]",
		},
		{
			name:    "negative deletion delay",
			mutate:  func(c *World) { c.DeletionDelay = Duration(-time.Second) },
			wantErr: "deletion_delay cannot be negative",
		},
		{
			name:    "no mesh workers",
			mutate:  func(c *World) { c.Workers.Mesh = 0 },
			wantErr: "workers.mesh must be positive",
		},
		{
			name:    "no noise octaves",
			mutate:  func(c *World) { c.Density.Octaves = 0 },
			wantErr: "density.octaves must be positive",
		},
		{
			name:    "unnamed grass type",
			mutate:  func(c *World) { c.GrassTypes[0].Name = "" },
			wantErr: "grass_types[0].name must be set",
		},
		{
			name:    "variety without mesh",
			mutate:  func(c *World) { c.GrassTypes[0].Varieties[1].Mesh = "" },
			wantErr: "grass_types[0].varieties[1].mesh must be set",
		},
		{
			name: "inverted scale range",
			mutate: func(c *World) {
				c.GrassTypes[0].Varieties[0].ScaleMin = 2
				c.GrassTypes[0].Varieties[0].ScaleMax = 1
			},
			wantErr: "grass_types[0].varieties[0].scale_min must be positive and <= scale_max",
		},
		{
			name:    "inverted cull distances",
			mutate:  func(c *World) { c.GrassTypes[0].Varieties[0].EndCullDistance = 1 },
			wantErr: "grass_types[0].varieties[0].end_cull_distance must be >= start_cull_distance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected an error, got nil")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("error %v does not wrap ErrInvalid", err)
			}
			if want := "invalid config: " + tt.wantErr; err.Error() != want {
				t.Fatalf("unexpected error: got %q want %q", err.Error(), want)
			}
		})
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load default config: %v", err)
	}
	if want := Default(); !reflect.DeepEqual(cfg, want) {
		t.Fatalf("default configuration mismatch:\nwant: %#v\n got: %#v", want, cfg)
	}
}

func TestLoadReadsFileAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")

	cfg := Default()
	cfg.OctreeDepth = 6
	cfg.DeletionDelay = Duration(2 * time.Second)
	cfg.Origin = [3]float32{10, -4, 2}
	cfg.GrassTypes[0].Varieties[0].CastShadow = true
	cfg.GrassTypes[0].Varieties[0].Collision = true
	cfg.GrassTypes[0].Varieties[1].AffectNavigation = true

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Fatalf("loaded configuration mismatch:\nwant: %#v\n got: %#v", cfg, got)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	doc := "octree_depth: 3\ndeletion_delay: 1500ms\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if got.OctreeDepth != 3 {
		t.Fatalf("octree_depth = %d, want 3", got.OctreeDepth)
	}
	if got.DeletionDelay.Duration() != 1500*time.Millisecond {
		t.Fatalf("deletion_delay = %v, want 1.5s", got.DeletionDelay)
	}
	if got.Workers != Default().Workers {
		t.Fatalf("workers = %+v, want defaults", got.Workers)
	}
}

func TestLoadInvalidConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	if err := os.WriteFile(path, []byte("voxel_size: -1\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected load to fail")
	}
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("error %v does not wrap ErrInvalid", err)
	}
	if !strings.Contains(err.Error(), "validate config: invalid config: voxel_size must be positive") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadSampleWorld(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "world.yaml"))
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("sample world drifted from defaults:\nwant: %#v\n got: %#v", Default(), cfg)
	}
}

func TestDurationYAML(t *testing.T) {
	tests := []struct {
		doc  string
		want time.Duration
	}{
		{"d: 250ms", 250 * time.Millisecond},
		{"d: 2s", 2 * time.Second},
		{"d: 1000", 1000},
		{"d: ", 0},
		{"d: null", 0},
	}
	for _, tt := range tests {
		var v struct {
			D Duration `yaml:"d"`
		}
		if err := yaml.Unmarshal([]byte(tt.doc), &v); err != nil {
			t.Fatalf("%q: %v", tt.doc, err)
		}
		if v.D.Duration() != tt.want {
			t.Fatalf("%q: got %v want %v", tt.doc, v.D.Duration(), tt.want)
		}
	}

	var bad struct {
		D Duration `yaml:"d"`
	}
	if err := yaml.Unmarshal([]byte("d: soon"), &bad); err == nil {
		t.Fatalf("expected parse failure")
	}
}

func TestDurationJSON(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`"750ms"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Duration() != 750*time.Millisecond {
		t.Fatalf("got %v", d)
	}
	if err := json.Unmarshal([]byte(`42`), &d); err != nil || d != 42 {
		t.Fatalf("numeric: %v %v", d, err)
	}
	out, err := json.Marshal(Duration(3 * time.Second))
	if err != nil || string(out) != `"3s"` {
		t.Fatalf("marshal: %s %v", out, err)
	}
}

func TestLODDistanceFactorClamps(t *testing.T) {
	defer SetLODDistanceFactor(GetLODDistanceFactor())
	SetLODDistanceFactor(100)
	if got := GetLODDistanceFactor(); got != 8 {
		t.Fatalf("clamp high: got %v", got)
	}
	SetLODDistanceFactor(0)
	if got := GetLODDistanceFactor(); got != 0.5 {
		t.Fatalf("clamp low: got %v", got)
	}
}
