package graphstore

// CSR is a Compressed Sparse Row index over a directed edge list, grouping
// edges by one endpoint (source for ByFrom, destination for ByTo). It is
// built once in Θ(V+E) time via a two-pass counting sort and never mutated
// afterward, so reads need no locking.
type CSR struct {
	// offsets has length vertexCount+1; Neighbors(v) is targets[offsets[v]:offsets[v+1]].
	offsets []uint32
	// targets holds the other endpoint of each edge, grouped by offsets.
	targets []uint32
}

// buildCSR groups (groupBy[i], pairWith[i]) edge pairs by groupBy, returning
// a CSR where Neighbors(v) yields pairWith[i] for every i with groupBy[i]==v.
func buildCSR(vertexCount uint32, groupBy, pairWith []uint32) *CSR {
	offsets := make([]uint32, vertexCount+1)

	// Pass 1: count edges per vertex.
	for _, v := range groupBy {
		offsets[v+1]++
	}
	// Prefix-sum into start offsets.
	for i := uint32(0); i < vertexCount; i++ {
		offsets[i+1] += offsets[i]
	}

	// Pass 2: scatter into place using a scratch cursor per vertex.
	cursor := make([]uint32, vertexCount)
	copy(cursor, offsets[:vertexCount])
	targets := make([]uint32, len(groupBy))
	for i, v := range groupBy {
		pos := cursor[v]
		targets[pos] = pairWith[i]
		cursor[v]++
	}

	return &CSR{offsets: offsets, targets: targets}
}

// Neighbors returns the other endpoints of every edge grouped under v.
// The returned slice is a view into the CSR's backing array and must not be
// modified or retained past the graph's lifetime.
func (c *CSR) Neighbors(v uint32) []uint32 {
	return c.targets[c.offsets[v]:c.offsets[v+1]]
}

// Degree returns the number of edges grouped under v.
func (c *CSR) Degree(v uint32) int {
	return int(c.offsets[v+1] - c.offsets[v])
}
