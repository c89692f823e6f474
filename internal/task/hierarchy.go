package task

// AddChild appends c unless it is already a child, and points c back at t.
func (t *Task) AddChild(c *Task) {
	if t.hasChild(c) {
		return
	}
	t.children = append(t.children, c)
	if c.parent != t {
		c.parent = t
	}
}

// RemoveChild drops c from the children and clears its parent when that
// parent is t.
func (t *Task) RemoveChild(c *Task) {
	for i, child := range t.children {
		if child == c {
			t.children = append(t.children[:i:i], t.children[i+1:]...)
			break
		}
	}
	if c.parent == t {
		c.parent = nil
	}
}

// Detach removes t from its parent, making it a root.
func (t *Task) Detach() {
	if t.parent != nil {
		t.parent.RemoveChild(t)
	}
	t.parent = nil
}

func (t *Task) IsRoot() bool { return t.parent == nil }
func (t *Task) IsLeaf() bool { return len(t.children) == 0 }

func (t *Task) Depth() int {
	if t.IsRoot() {
		return 0
	}
	return t.parent.Depth() + 1
}

// Ancestors lists parents nearest first.
func (t *Task) Ancestors() []*Task {
	var out []*Task
	for p := t.parent; p != nil; p = p.parent {
		out = append(out, p)
	}
	return out
}

// IsAncestorOf reports whether t appears on other's parent chain.
func (t *Task) IsAncestorOf(other *Task) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == t {
			return true
		}
	}
	return false
}

// Descendants returns every transitive child, depth first.
func (t *Task) Descendants() []*Task {
	var out []*Task
	for _, c := range t.children {
		out = append(out, c)
		out = append(out, c.Descendants()...)
	}
	return out
}

func (t *Task) Siblings() []*Task {
	if t.IsRoot() {
		return nil
	}
	var out []*Task
	for _, c := range t.parent.children {
		if c != t {
			out = append(out, c)
		}
	}
	return out
}

func (t *Task) hasChild(c *Task) bool {
	for _, child := range t.children {
		if child == c {
			return true
		}
	}
	return false
}
