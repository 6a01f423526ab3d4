package screen

import (
	"sync"

	"github.com/pragma/screennav/pkg/animation"
)

// Node is a headless visual. It tracks what a renderer would draw:
// visibility, z-order among its siblings and per-animation progress.
type Node struct {
	name string

	mu           sync.RWMutex
	active       bool
	siblingIndex int
	progress     map[string]float64
}

// NewNode creates an inactive node
func NewNode(name string) *Node {
	return &Node{
		name:     name,
		progress: make(map[string]float64),
	}
}

// Name implements animation.Visual
func (n *Node) Name() string { return n.name }

// SetActive implements animation.Visual
func (n *Node) SetActive(active bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.active = active
}

// SetSiblingIndex implements animation.Visual
func (n *Node) SetSiblingIndex(index int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.siblingIndex = index
}

// SetProgress implements animation.ProgressSink
func (n *Node) SetProgress(animationID string, progress float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.progress[animationID] = progress
}

// Active reports whether the node is visible
func (n *Node) Active() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.active
}

// SiblingIndex returns the node's z-order position
func (n *Node) SiblingIndex() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.siblingIndex
}

// Progress returns the last reported progress of an animation
func (n *Node) Progress(animationID string) (float64, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	p, ok := n.progress[animationID]
	return p, ok
}

// Root is the default Container. Every attached node is appended on top.
type Root struct {
	mu    sync.Mutex
	nodes []*Node
}

// NewRoot creates an empty root container
func NewRoot() *Root {
	return &Root{}
}

// Attach implements Container
func (r *Root) Attach(name string) animation.Visual {
	return r.AttachNode(name)
}

// AttachNode creates an inactive node on top of the existing children.
func (r *Root) AttachNode(name string) *Node {
	r.mu.Lock()
	defer r.mu.Unlock()

	node := NewNode(name)
	node.siblingIndex = len(r.nodes)
	r.nodes = append(r.nodes, node)
	return node
}

// Nodes returns the attached nodes in attach order
func (r *Root) Nodes() []*Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Node, len(r.nodes))
	copy(out, r.nodes)
	return out
}
