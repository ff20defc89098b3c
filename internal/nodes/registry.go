package nodes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// nodesFile is the filename for the node registry.
const nodesFile = "nodes.yaml"

// Node is a working context (usually a git worktree) that owns tabs.
type Node struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// DisplayName returns the name, falling back to the id.
func (n Node) DisplayName() string {
	if s := strings.TrimSpace(n.Name); s != "" {
		return s
	}
	return n.ID
}

// nodesConfig is the YAML structure for the nodes file.
type nodesConfig struct {
	Nodes []Node `yaml:"nodes"`
}

// Registry reads and edits the YAML node registry.
type Registry struct {
	mu       sync.Mutex
	filePath string
}

// NewRegistry creates a Registry backed by basePath/nodes.yaml.
func NewRegistry(basePath string) *Registry {
	return &Registry{filePath: filepath.Join(basePath, nodesFile)}
}

// FilePath returns the path to the nodes.yaml file.
func (r *Registry) FilePath() string {
	return r.filePath
}

// List returns all nodes. Entries without an id and repeated ids are
// skipped. A missing file is an empty registry.
func (r *Registry) List() ([]Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read()
}

// IDs returns the ids of all registered nodes, in file order. The result
// is non-nil so callers can tell "no nodes" from "unknown".
func (r *Registry) IDs() ([]string, error) {
	list, err := r.List()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, n := range list {
		ids = append(ids, n.ID)
	}
	return ids, nil
}

// Get looks a node up by id.
func (r *Registry) Get(id string) (Node, bool, error) {
	list, err := r.List()
	if err != nil {
		return Node{}, false, err
	}
	for _, n := range list {
		if n.ID == id {
			return n, true, nil
		}
	}
	return Node{}, false, nil
}

// Put adds a node or replaces the one with the same id.
func (r *Registry) Put(node Node) error {
	node.ID = strings.TrimSpace(node.ID)
	if node.ID == "" {
		return fmt.Errorf("node id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.read()
	if err != nil {
		return err
	}
	replaced := false
	for i := range list {
		if list[i].ID == node.ID {
			list[i] = node
			replaced = true
		}
	}
	if !replaced {
		list = append(list, node)
	}
	return r.write(list)
}

// Remove deletes a node by id. Removing an unknown id is not an error.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.read()
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, n := range list {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(list) {
		return nil
	}
	return r.write(kept)
}

func (r *Registry) read() ([]Node, error) {
	data, err := os.ReadFile(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read nodes file: %w", err)
	}

	var cfg nodesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse nodes file: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Nodes))
	out := make([]Node, 0, len(cfg.Nodes))
	for _, n := range cfg.Nodes {
		n.ID = strings.TrimSpace(n.ID)
		if n.ID == "" || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	return out, nil
}

func (r *Registry) write(list []Node) error {
	if err := os.MkdirAll(filepath.Dir(r.filePath), 0o755); err != nil {
		return fmt.Errorf("create nodes directory: %w", err)
	}
	data, err := yaml.Marshal(nodesConfig{Nodes: list})
	if err != nil {
		return fmt.Errorf("marshal nodes: %w", err)
	}
	tmpPath := r.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write nodes file: %w", err)
	}
	if err := os.Rename(tmpPath, r.filePath); err != nil {
		return fmt.Errorf("rename nodes file: %w", err)
	}
	return nil
}
