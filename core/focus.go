package core

import "fmt"

// Focus tracks which body a viewer is centred on and which of its children
// is selected. It only reads the Scene through its public methods.
type Focus struct {
	scene      *Scene
	current    BodyID
	childIndex int
}

// NewFocus focuses the first root of s.
func NewFocus(s *Scene) (*Focus, error) {
	roots := s.Roots()
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: scene has no roots", ErrBodyNotFound)
	}
	return &Focus{scene: s, current: roots[0]}, nil
}

// Current returns the focused body.
func (f *Focus) Current() BodyID { return f.current }

// SelectedChild returns the child the pointer is on, if the focused body has
// children.
func (f *Focus) SelectedChild() (BodyID, bool) {
	children, err := f.scene.Children(f.current)
	if err != nil || len(children) == 0 {
		return 0, false
	}
	return children[f.childIndex%len(children)], true
}

// Enter moves focus to the selected child.
func (f *Focus) Enter() error {
	child, ok := f.SelectedChild()
	if !ok {
		return fmt.Errorf("%w: focused body has no children", ErrBodyNotFound)
	}
	f.set(child)
	return nil
}

// Up moves focus to the parent of the focused body. The selected child
// becomes the body focus came from.
func (f *Focus) Up() error {
	parent, err := f.scene.Parent(f.current)
	if err != nil {
		return err
	}
	if parent == NoParent {
		return fmt.Errorf("%w: focused body is a root", ErrBodyNotFound)
	}
	from := f.current
	f.set(parent)
	children, _ := f.scene.Children(parent)
	for i, c := range children {
		if c == from {
			f.childIndex = i
		}
	}
	return nil
}

// NextSibling moves focus to the next body sharing the focused body's
// parent, wrapping around. Roots are siblings of each other.
func (f *Focus) NextSibling() error { return f.stepSibling(1) }

// PrevSibling moves focus to the previous sibling, wrapping around.
func (f *Focus) PrevSibling() error { return f.stepSibling(-1) }

// NextChild moves the child pointer forward, wrapping around.
func (f *Focus) NextChild() { f.stepChild(1) }

// PrevChild moves the child pointer back, wrapping around.
func (f *Focus) PrevChild() { f.stepChild(-1) }

func (f *Focus) stepSibling(dir int) error {
	siblings, err := f.siblings()
	if err != nil {
		return err
	}
	for i, id := range siblings {
		if id == f.current {
			f.set(siblings[wrap(i+dir, len(siblings))])
			return nil
		}
	}
	return fmt.Errorf("%w: focused body %d", ErrBodyNotFound, f.current)
}

func (f *Focus) stepChild(dir int) {
	children, err := f.scene.Children(f.current)
	if err != nil || len(children) == 0 {
		return
	}
	f.childIndex = wrap(f.childIndex+dir, len(children))
}

func (f *Focus) siblings() ([]BodyID, error) {
	parent, err := f.scene.Parent(f.current)
	if err != nil {
		return nil, err
	}
	if parent == NoParent {
		return f.scene.Roots(), nil
	}
	return f.scene.Children(parent)
}

func (f *Focus) set(id BodyID) {
	f.current = id
	f.childIndex = 0
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
