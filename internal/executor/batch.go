package executor

// batchBuilder accumulates paths until the caller's batch size or the
// command-line budget of any template would be exceeded.
type batchBuilder struct {
	templates []*Template
	maxPaths  int
	budget    int

	paths []string
	costs []int
}

func newBatchBuilder(templates []*Template, maxPaths, budget int) *batchBuilder {
	b := &batchBuilder{
		templates: templates,
		maxPaths:  maxPaths,
		budget:    budget,
		costs:     make([]int, len(templates)),
	}
	b.reset()
	return b
}

func (b *batchBuilder) reset() {
	b.paths = nil
	for i, t := range b.templates {
		b.costs[i] = t.fixedCost()
	}
}

// fits reports whether path can join the current batch. An empty batch
// accepts any path so that an oversized path still runs on its own.
func (b *batchBuilder) fits(path string) bool {
	if len(b.paths) == 0 {
		return true
	}
	for i, t := range b.templates {
		if b.costs[i]+t.pathCost(path) > b.budget {
			return false
		}
	}
	return true
}

func (b *batchBuilder) add(path string) {
	b.paths = append(b.paths, path)
	for i, t := range b.templates {
		b.costs[i] += t.pathCost(path)
	}
}

func (b *batchBuilder) full() bool {
	return b.maxPaths > 0 && len(b.paths) >= b.maxPaths
}

func (b *batchBuilder) empty() bool {
	return len(b.paths) == 0
}

// take returns the pending paths and starts a new batch.
func (b *batchBuilder) take() []string {
	paths := b.paths
	b.reset()
	return paths
}
