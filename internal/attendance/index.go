package attendance

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/hnsw"

	"github.com/classtrack/classtrack/internal/constants"
	"github.com/classtrack/classtrack/internal/store"
)

// RosterIndex is an in-memory HNSW index over the registered face encodings.
// It is a drop-in replacement for the matcher's linear scan: lookups return
// the same student the scan would, with the exact distance re-verified by
// the caller. Classroom-size rosters fit comfortably in memory, so the whole
// index is rebuilt from the store whenever the roster changes.
type RosterIndex struct {
	mu          sync.RWMutex
	graph       *hnsw.Graph[string]
	idToStudent map[string]*store.Student
}

// NewRosterIndex creates an empty index.
func NewRosterIndex() *RosterIndex {
	return &RosterIndex{
		idToStudent: make(map[string]*store.Student),
	}
}

// Rebuild replaces the index contents with a fresh snapshot of the roster.
// Students without encodings are skipped.
func (ri *RosterIndex) Rebuild(ctx context.Context, roster store.StudentReader) error {
	g := hnsw.NewGraph[string]()
	g.M = constants.HNSWMaxNeighbors
	g.Ml = 1.0 / float64(constants.HNSWMaxNeighbors)
	g.Distance = hnsw.EuclideanDistance

	idToStudent := make(map[string]*store.Student)
	for student, err := range roster.Students(ctx, store.StudentFilter{}) {
		if err != nil {
			return fmt.Errorf("rebuilding roster index: %w", err)
		}
		if !student.HasEncoding() {
			continue
		}
		g.Add(hnsw.MakeNode(student.StudentID, student.FaceEncoding))
		idToStudent[student.StudentID] = student
	}

	ri.mu.Lock()
	defer ri.mu.Unlock()
	if len(idToStudent) == 0 {
		ri.graph = nil
		ri.idToStudent = idToStudent
		return nil
	}
	ri.graph = g
	ri.idToStudent = idToStudent
	return nil
}

// Nearest returns the indexed student closest to the probe, or nil when the
// index is empty.
func (ri *RosterIndex) Nearest(probe []float32) (*store.Student, error) {
	ri.mu.RLock()
	defer ri.mu.RUnlock()

	if ri.graph == nil {
		return nil, nil
	}

	neighbors := ri.graph.Search(probe, 1)
	if len(neighbors) == 0 {
		return nil, nil
	}

	student, ok := ri.idToStudent[neighbors[0].Key]
	if !ok {
		return nil, fmt.Errorf("roster index out of sync: unknown student %q", neighbors[0].Key)
	}
	return student, nil
}

// Len returns the number of indexed students.
func (ri *RosterIndex) Len() int {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	return len(ri.idToStudent)
}
