package main

import (
	"fmt"
	"strconv"
	"strings"

	"lod-terrain/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

func parseFloats(s string, n int) ([]float32, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma separated numbers, got %q", n, s)
	}
	out := make([]float32, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", p, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

func parseVec3(s string) (mgl32.Vec3, error) {
	f, err := parseFloats(s, 3)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	return mgl32.Vec3{f[0], f[1], f[2]}, nil
}

func parseEdit(s string) (world.Edit, error) {
	f, err := parseFloats(s, 4)
	if err != nil {
		return world.Edit{}, err
	}
	return world.Edit{Center: mgl32.Vec3{f[0], f[1], f[2]}, Radius: f[3], Remove: true}, nil
}
