package meshdump

import (
	"sync"

	"lod-terrain/internal/chunk"
	"lod-terrain/internal/meshing"
	"lod-terrain/internal/render"

	"github.com/go-gl/mathgl/mgl32"
)

// Sink forwards to another mesh sink and records every applied section.
type Sink struct {
	chunk.MeshSink
	w    *Writer
	name string

	mu        sync.Mutex
	transform mgl32.Mat4
	err       error
}

// Wrap returns a recording sink in front of next.
func Wrap(next chunk.MeshSink, w *Writer, name string) *Sink {
	return &Sink{MeshSink: next, w: w, name: name}
}

func (s *Sink) SetTransform(m mgl32.Mat4) {
	s.mu.Lock()
	s.transform = m
	s.mu.Unlock()
	s.MeshSink.SetTransform(m)
}

func (s *Sink) ApplySection(sec *meshing.Section) {
	s.mu.Lock()
	rec := Record{Chunk: s.name, Transform: s.transform, Section: sec}
	s.mu.Unlock()
	if err := s.w.Write(rec); err != nil {
		s.mu.Lock()
		if s.err == nil {
			s.err = err
		}
		s.mu.Unlock()
	}
	s.MeshSink.ApplySection(sec)
}

// UpdateNavigation forwards to the wrapped sink when it feeds a navigation
// system.
func (s *Sink) UpdateNavigation(bounds meshing.AABB, transform mgl32.Mat4) {
	if nav, ok := s.MeshSink.(chunk.NavigationUpdater); ok {
		nav.UpdateNavigation(bounds, transform)
	}
}

// Err returns the first write error.
func (s *Sink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Sinks wraps every mesh sink created by the embedded Sinks in a recording
// Sink.
type Sinks struct {
	render.Sinks
	W *Writer

	mu      sync.Mutex
	created []*Sink
}

func (s *Sinks) CreateMeshSink(name string) chunk.MeshSink {
	rec := Wrap(s.Sinks.CreateMeshSink(name), s.W, name)
	s.mu.Lock()
	s.created = append(s.created, rec)
	s.mu.Unlock()
	return rec
}

// Err returns the first write error of any created sink.
func (s *Sinks) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.created {
		if err := rec.Err(); err != nil {
			return err
		}
	}
	return nil
}
