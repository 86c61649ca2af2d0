// Package kinematics builds skeletons, kinematic trees of rigid bones, and evaluates their forward
// kinematics: the world pose of every bone for a given parameter assignment.
package kinematics

import (
	"fmt"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"

	"go.viam.com/kinetree/arena"
	"go.viam.com/kinetree/logging"
	"go.viam.com/kinetree/referenceframe"
	spatial "go.viam.com/kinetree/spatialmath"
	"go.viam.com/kinetree/utils"
)

// Assignment maps nodes to the parameters of their joints. It is supplied fresh for every evaluation
// and never stored in the skeleton.
type Assignment map[arena.NodeID]referenceframe.Parameter

// Skeleton is a named kinematic tree of bones. Adding bones takes an exclusive lock and evaluation
// holds a shared one, so the structure never changes during an evaluation pass.
type Skeleton[T spatial.Transformation[T]] struct {
	name    string
	backend spatial.Backend[T]
	logger  logging.Logger

	mu    sync.RWMutex
	tree  *arena.Tree[referenceframe.Rigid[T]]
	names map[string]arena.NodeID
}

// NewSkeleton returns an empty skeleton whose joints are built with backend.
func NewSkeleton[T spatial.Transformation[T]](name string, backend spatial.Backend[T], logger logging.Logger) *Skeleton[T] {
	return &Skeleton[T]{
		name:    name,
		backend: backend,
		logger:  logger,
		tree:    arena.New[referenceframe.Rigid[T]](),
		names:   map[string]arena.NodeID{},
	}
}

// Name returns the name of the skeleton.
func (s *Skeleton[T]) Name() string {
	return s.name
}

// Backend returns the backend the skeleton's transformations are built with.
func (s *Skeleton[T]) Backend() spatial.Backend[T] {
	return s.backend
}

// Logger returns the skeleton's logger.
func (s *Skeleton[T]) Logger() logging.Logger {
	return s.logger
}

func (s *Skeleton[T]) checkName(bone referenceframe.Rigid[T]) error {
	if bone == nil {
		return errors.New("bone cannot be nil")
	}
	if id, ok := s.names[bone.Name()]; ok {
		return errors.Errorf("bone with name %q already in skeleton %q as node %d", bone.Name(), s.name, id)
	}
	return nil
}

// AddRoot adds the root bone.
func (s *Skeleton[T]) AddRoot(bone referenceframe.Rigid[T]) (arena.NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkName(bone); err != nil {
		return arena.NoNode, err
	}
	id, err := s.tree.AddRoot(bone)
	if err != nil {
		return arena.NoNode, err
	}
	s.names[bone.Name()] = id
	s.logger.Debugw("added root", "skeleton", s.name, "bone", bone.Name())
	return id, nil
}

// AddChild attaches bone below parent.
func (s *Skeleton[T]) AddChild(parent arena.NodeID, bone referenceframe.Rigid[T]) (arena.NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkName(bone); err != nil {
		return arena.NoNode, err
	}
	id, err := s.tree.AddChild(parent, bone)
	if err != nil {
		return arena.NoNode, err
	}
	s.names[bone.Name()] = id
	s.logger.Debugw("added bone", "skeleton", s.name, "bone", bone.Name(), "node", id, "parent", parent)
	return id, nil
}

// Len returns the number of bones.
func (s *Skeleton[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}

// Root returns the root node.
func (s *Skeleton[T]) Root() (arena.NodeID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Root()
}

// Parent returns the parent of id; ok is false for the root.
func (s *Skeleton[T]) Parent(id arena.NodeID) (parent arena.NodeID, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Parent(id)
}

// Children returns the children of id in insertion order.
func (s *Skeleton[T]) Children(id arena.NodeID) ([]arena.NodeID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Children(id)
}

// Depth returns the depth of id below the root.
func (s *Skeleton[T]) Depth(id arena.NodeID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Depth(id)
}

// Bone returns the bone stored at id.
func (s *Skeleton[T]) Bone(id arena.NodeID) (referenceframe.Rigid[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Payload(id)
}

// Lookup returns the node of the bone with the given name.
func (s *Skeleton[T]) Lookup(name string) (arena.NodeID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.names[name]
	if !ok {
		return arena.NoNode, errors.Errorf("bone with name %q not in skeleton %q", name, s.name)
	}
	return id, nil
}

// Names returns the bone names ordered by node.
func (s *Skeleton[T]) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, s.tree.Len())
	for name, id := range s.names {
		names[id] = name
	}
	return names
}

// Subtree returns the nodes of the subtree rooted at id in depth first order.
func (s *Skeleton[T]) Subtree(id arena.NodeID) ([]arena.NodeID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	width, err := s.tree.Width(id)
	if err != nil {
		return nil, err
	}
	out := make([]arena.NodeID, 0, width)
	for n := range s.tree.DepthFirst(id) {
		out = append(out, n)
	}
	return out, nil
}

// IsAncestor reports whether ancestor is id or lies on its path to the root.
func (s *Skeleton[T]) IsAncestor(ancestor, id arena.NodeID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.IsAncestor(ancestor, id)
}

// NeutralAssignment returns the parameters at which every joint is the identity.
func (s *Skeleton[T]) NeutralAssignment() Assignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Assignment{}
	for i := 0; i < s.tree.Len(); i++ {
		bone, _ := s.tree.Payload(arena.NodeID(i))
		if bone.Joint().RequiresParameter() {
			out[arena.NodeID(i)] = bone.Joint().Neutral()
		}
	}
	return out
}

// Validate re-checks the structure of the underlying tree.
func (s *Skeleton[T]) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Validate()
}

// String renders the skeleton as a table of bones with their parents, joints and offsets.
func (s *Skeleton[T]) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := table.NewWriter()
	t.SetTitle(s.name)
	t.AppendHeader(table.Row{"#", "Name", "Parent", "Joint", "Translation", "Orientation"})
	for i := 0; i < s.tree.Len(); i++ {
		id := arena.NodeID(i)
		bone, _ := s.tree.Payload(id)
		parentName := ""
		if parent, ok, _ := s.tree.Parent(id); ok {
			p, _ := s.tree.Payload(parent)
			parentName = p.Name()
		}
		tra := spatial.Point(bone.Offset())
		ori := spatial.QuatToEulerAngles(spatial.QuaternionOf(bone.Offset()))
		t.AppendRow([]interface{}{
			fmt.Sprintf("%d", id),
			bone.Name(),
			parentName,
			bone.Joint().Kind().String(),
			fmt.Sprintf("X:%.2f, Y:%.2f, Z:%.2f", tra.X, tra.Y, tra.Z),
			fmt.Sprintf(
				"Roll:%.2f, Pitch:%.2f, Yaw:%.2f",
				utils.RadToDeg(ori.Roll),
				utils.RadToDeg(ori.Pitch),
				utils.RadToDeg(ori.Yaw),
			),
		})
	}
	return t.Render()
}
