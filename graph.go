package injector

// DependencyGraph manages service dependencies.
type DependencyGraph struct {
	nodes map[ServiceID]*node
	order []ServiceID // Preserve insertion order
}

type node struct {
	id           ServiceID
	dependencies []ServiceID
}

// NewDependencyGraph creates a new dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[ServiceID]*node),
		order: make([]ServiceID, 0),
	}
}

// AddNode adds a node with its dependencies. Adding an existing node
// replaces its dependencies but keeps its original position.
func (g *DependencyGraph) AddNode(id ServiceID, dependencies []ServiceID) {
	if _, exists := g.nodes[id]; !exists {
		g.order = append(g.order, id)
	}

	g.nodes[id] = &node{
		id:           id,
		dependencies: dependencies,
	}
}

// GetDependencies returns the dependencies of a node.
func (g *DependencyGraph) GetDependencies(id ServiceID) []ServiceID {
	if node, ok := g.nodes[id]; ok {
		return node.dependencies
	}

	return nil
}

// HasNode checks if a node exists in the graph.
func (g *DependencyGraph) HasNode(id ServiceID) bool {
	_, ok := g.nodes[id]

	return ok
}

// TopologicalSort returns nodes in dependency order, dependencies first.
// Independent nodes keep their insertion order. A cycle is reported as
// ErrDependencyCycle with the full path, starting and ending at the same id.
func (g *DependencyGraph) TopologicalSort() ([]ServiceID, error) {
	visited := make(map[ServiceID]bool)
	result := make([]ServiceID, 0, len(g.nodes))

	for _, id := range g.order {
		if err := g.visit(id, visited, nil, &result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// visit performs DFS traversal. stack holds the ids currently being visited.
func (g *DependencyGraph) visit(id ServiceID, visited map[ServiceID]bool, stack []ServiceID, result *[]ServiceID) error {
	if visited[id] {
		return nil
	}

	for i, onStack := range stack {
		if onStack == id {
			cycle := append(append([]ServiceID{}, stack[i:]...), id)

			return DependencyCycleError(cycle)
		}
	}

	node := g.nodes[id]
	if node == nil {
		// Unknown ids are reported at resolution time
		return nil
	}

	stack = append(stack, id)

	for _, dep := range node.dependencies {
		if err := g.visit(dep, visited, stack, result); err != nil {
			return err
		}
	}

	visited[id] = true
	*result = append(*result, id)

	return nil
}
