// database.go
package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// DurationSample is one point of a node's history. For window snapshots
// both totals are cumulative since the profile was created and never
// decrease; snapshots that carry their own totals overwrite them.
type DurationSample struct {
	At                  time.Time
	CumulativeInclusive time.Duration
	CumulativeExclusive time.Duration
}

// ProfileNode is a single call path within a profile. The root node has key
// 0. All methods are safe on a nil receiver, which reads as an invalid node.
type ProfileNode struct {
	key         int
	parent      int
	name        string
	fileName    string
	line        int
	projectCode bool
	children    []int
	data        []DurationSample
}

func (n *ProfileNode) IsValid() bool { return n != nil && n.key >= 0 }

func (n *ProfileNode) NodeKey() int {
	if n == nil {
		return -1
	}
	return n.key
}

func (n *ProfileNode) ParentKey() int {
	if n == nil {
		return -1
	}
	return n.parent
}

func (n *ProfileNode) Name() string {
	if n == nil {
		return ""
	}
	return n.name
}

func (n *ProfileNode) FileName() string {
	if n == nil {
		return ""
	}
	return n.fileName
}

func (n *ProfileNode) Line() int {
	if n == nil {
		return 0
	}
	return n.line
}

func (n *ProfileNode) IsProjectCode() bool { return n != nil && n.projectCode }

func (n *ProfileNode) ChildKeys() []int {
	if n == nil {
		return nil
	}
	return n.children
}

func (n *ProfileNode) HasChildren() bool { return n != nil && len(n.children) > 0 }

func (n *ProfileNode) Data() []DurationSample {
	if n == nil {
		return nil
	}
	return n.data
}

// Latest returns the most recent sample, which holds the node's current
// totals.
func (n *ProfileNode) Latest() (DurationSample, bool) {
	if n == nil || len(n.data) == 0 {
		return DurationSample{}, false
	}
	return n.data[len(n.data)-1], true
}

type pathKey struct {
	parent int
	name   string
}

// Profile is the call tree of one profiled program.
type Profile struct {
	key   int
	name  string
	unit  string
	nodes []*ProfileNode
	paths map[pathKey]int
}

func (p *Profile) IsValid() bool { return p != nil && len(p.nodes) > 0 }

func (p *Profile) ProfileKey() int {
	if p == nil {
		return -1
	}
	return p.key
}

func (p *Profile) Name() string {
	if p == nil {
		return ""
	}
	return p.name
}

func (p *Profile) Unit() string {
	if p == nil {
		return ""
	}
	return p.unit
}

func (p *Profile) NodeCount() int {
	if p == nil {
		return 0
	}
	return len(p.nodes)
}

func (p *Profile) RootNode() *ProfileNode { return p.Node(0) }

// Node returns nil for unknown keys.
func (p *Profile) Node(key int) *ProfileNode {
	if p == nil || key < 0 || key >= len(p.nodes) {
		return nil
	}
	return p.nodes[key]
}

// Walk visits the tree depth first in child order.
func (p *Profile) Walk(fn func(node *ProfileNode, depth int)) {
	root := p.RootNode()
	if !root.IsValid() {
		return
	}
	type entry struct {
		key   int
		depth int
	}
	stack := []entry{{key: root.key}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := p.Node(top.key)
		fn(node, top.depth)
		for i := len(node.children) - 1; i >= 0; i-- {
			stack = append(stack, entry{key: node.children[i], depth: top.depth + 1})
		}
	}
}

// PathTo returns the nodes from the root down to key, or nil for unknown
// keys.
func (p *Profile) PathTo(key int) []*ProfileNode {
	var path []*ProfileNode
	for n := p.Node(key); n.IsValid(); n = p.Node(n.parent) {
		path = append(path, n)
	}
	// Reverse the path to be from root to target
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (p *Profile) child(parent *ProfileNode, c *CallNode) (*ProfileNode, bool) {
	k := pathKey{parent: parent.key, name: c.Name}
	if key, ok := p.paths[k]; ok {
		return p.nodes[key], false
	}
	node := &ProfileNode{
		key:      len(p.nodes),
		parent:   parent.key,
		name:     c.Name,
		fileName: c.FileName,
		line:     c.Line,
	}
	p.nodes = append(p.nodes, node)
	p.paths[k] = node.key
	parent.children = append(parent.children, node.key)
	return node, true
}

// DatabaseKey addresses one node of one profile.
type DatabaseKey struct {
	ProfileKey int
	NodeKey    int
}

var invalidKey = DatabaseKey{ProfileKey: -1, NodeKey: -1}

func (k DatabaseKey) IsValid() bool { return k.ProfileKey >= 0 && k.NodeKey >= 0 }

type EventKind int

const (
	ProfileAdded EventKind = iota
	NodesAdded
	DataAdded
)

func (k EventKind) String() string {
	switch k {
	case ProfileAdded:
		return "profile added"
	case NodesAdded:
		return "nodes added"
	default:
		return "data added"
	}
}

type Event struct {
	Kind       EventKind
	ProfileKey int
}

// Database collects profiles and merges new snapshots into them.
// Listeners are called synchronously, on the goroutine that changed the
// database.
type Database struct {
	profiles  []*Profile
	listeners []func(Event)
	logger    *log.Logger
}

func NewDatabase(logger *log.Logger) *Database {
	if logger == nil {
		logger = log.Default()
	}
	return &Database{logger: logger}
}

func (db *Database) Subscribe(fn func(Event)) {
	db.listeners = append(db.listeners, fn)
}

func (db *Database) emit(kind EventKind, profileKey int) {
	for _, fn := range db.listeners {
		fn(Event{Kind: kind, ProfileKey: profileKey})
	}
}

// CreateProfile adds an empty profile whose root node carries name.
func (db *Database) CreateProfile(name, unit string) int {
	p := &Profile{
		key:   len(db.profiles),
		name:  name,
		unit:  unit,
		paths: make(map[pathKey]int),
	}
	p.nodes = append(p.nodes, &ProfileNode{key: 0, parent: -1, name: name})
	db.profiles = append(db.profiles, p)

	db.logger.Debug("profile added", "profile", p.key, "name", name)
	db.emit(ProfileAdded, p.key)
	return p.key
}

// Profile returns nil for unknown keys; a nil *Profile reads as invalid.
func (db *Database) Profile(key int) *Profile {
	if key < 0 || key >= len(db.profiles) {
		return nil
	}
	return db.profiles[key]
}

// AddSnapshot merges one call tree that covers a single window, such as a
// CPU profile taken over a few seconds. Its values are added on top of the
// totals already recorded. Every node of the profile gets a new sample,
// including nodes the snapshot did not touch.
func (db *Database) AddSnapshot(profileKey int, tree *CallNode, at time.Time) error {
	return db.merge(profileKey, tree, at, true)
}

// SetSnapshot merges one call tree whose values are already totals: counts
// since the program started (alloc_space, contentions) or current levels
// (inuse_space, goroutine). The snapshot replaces the recorded totals, and
// nodes it did not touch drop to zero.
func (db *Database) SetSnapshot(profileKey int, tree *CallNode, at time.Time) error {
	return db.merge(profileKey, tree, at, false)
}

// MergeSnapshot adds snap when it covers a window and replaces the totals
// with it otherwise.
func (db *Database) MergeSnapshot(profileKey int, snap *Snapshot, at time.Time) error {
	if snap == nil {
		return fmt.Errorf("profile %d: empty snapshot", profileKey)
	}
	return db.merge(profileKey, snap.Root, at, snap.IsWindow())
}

func (db *Database) merge(profileKey int, tree *CallNode, at time.Time, accumulate bool) error {
	p := db.Profile(profileKey)
	if !p.IsValid() {
		return fmt.Errorf("unknown profile %d", profileKey)
	}
	if tree == nil {
		return fmt.Errorf("profile %d: empty snapshot", profileKey)
	}

	type delta struct{ inclusive, exclusive int64 }
	deltas := make(map[int]delta)
	created := 0

	type entry struct {
		node *ProfileNode
		call *CallNode
	}
	stack := []entry{{node: p.RootNode(), call: tree}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		d := deltas[top.node.key]
		d.inclusive += top.call.Value
		d.exclusive += top.call.Self
		deltas[top.node.key] = d
		top.node.projectCode = top.node.projectCode || top.call.IsProjectCode

		for _, c := range top.call.Children {
			child, isNew := p.child(top.node, c)
			if isNew {
				created++
			}
			stack = append(stack, entry{node: child, call: c})
		}
	}

	for _, node := range p.nodes {
		var prev DurationSample
		if accumulate {
			prev, _ = node.Latest()
		}
		d := deltas[node.key]
		node.data = append(node.data, DurationSample{
			At:                  at,
			CumulativeInclusive: prev.CumulativeInclusive + time.Duration(d.inclusive),
			CumulativeExclusive: prev.CumulativeExclusive + time.Duration(d.exclusive),
		})
	}

	db.logger.Debug("snapshot merged", "profile", profileKey, "nodes", len(p.nodes), "new", created, "accumulate", accumulate)
	if created > 0 {
		db.emit(NodesAdded, profileKey)
	}
	db.emit(DataAdded, profileKey)
	return nil
}
