package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/graphengine/pkg/columnstore"
	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/graphstore"
)

func buildTinyGraph(t *testing.T) *graphstore.Graph {
	t.Helper()
	g := graphstore.New()
	_, err := g.AddVertex([]byte("a"))
	require.NoError(t, err)
	require.NoError(t, g.SealVertices())
	require.NoError(t, g.Seal())
	return g
}

func TestLoadJobRegistersGraph(t *testing.T) {
	r := New()
	job, graphID := r.CreateLoadJob()
	assert.Equal(t, CompLoadData, job.CompType)

	_, err := r.GetGraph(graphID)
	assert.True(t, errors.Is(err, errors.CodeNotFound), "graph not visible before RegisterGraph")

	g := buildTinyGraph(t)
	require.NoError(t, r.RegisterGraph(graphID, g, columnstore.New(g.VertexCount())))

	handle, err := r.GetGraph(graphID)
	require.NoError(t, err)
	assert.Equal(t, graphID, handle.ID)
}

func TestDeleteGraphFailsWhileReferenced(t *testing.T) {
	r := New()
	job, graphID := r.CreateLoadJob()
	g := buildTinyGraph(t)
	require.NoError(t, r.RegisterGraph(graphID, g, columnstore.New(g.VertexCount())))

	// The LoadData job itself still holds a reference.
	err := r.DeleteGraph(graphID)
	assert.True(t, errors.Is(err, errors.CodeInUse))

	require.NoError(t, r.DeleteJob(job.ID))
	require.NoError(t, r.DeleteGraph(graphID))

	_, err = r.GetGraph(graphID)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestCreateJobAgainstMissingGraphFails(t *testing.T) {
	r := New()
	_, err := r.CreateJob(CompWCC, 999)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestDeleteJobReleasesGraphReference(t *testing.T) {
	r := New()
	loadJob, graphID := r.CreateLoadJob()
	g := buildTinyGraph(t)
	require.NoError(t, r.RegisterGraph(graphID, g, columnstore.New(g.VertexCount())))
	require.NoError(t, r.DeleteJob(loadJob.ID))

	wccJob, err := r.CreateJob(CompWCC, graphID)
	require.NoError(t, err)

	assert.True(t, errors.Is(r.DeleteGraph(graphID), errors.CodeInUse))
	require.NoError(t, r.DeleteJob(wccJob.ID))
	require.NoError(t, r.DeleteGraph(graphID))
}

func TestDeleteJobCancelsUnfinishedWork(t *testing.T) {
	r := New()
	job, _ := r.CreateLoadJob()
	assert.False(t, job.IsCancelled())
	require.NoError(t, r.DeleteJob(job.ID))
	assert.True(t, job.IsCancelled())

	_, err := r.GetJob(job.ID)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestListGraphsOnlyReturnsReadyGraphs(t *testing.T) {
	r := New()
	_, graphID := r.CreateLoadJob()
	assert.Empty(t, r.ListGraphs())

	g := buildTinyGraph(t)
	require.NoError(t, r.RegisterGraph(graphID, g, columnstore.New(g.VertexCount())))
	assert.Len(t, r.ListGraphs(), 1)
}

func TestJobSnapshotReportsCompletion(t *testing.T) {
	r := New()
	job, _ := r.CreateLoadJob()
	job.SetTotal(10)
	job.AddProgress(4)
	job.Complete([]float64{1, 2, 3}, 24)

	snap := job.Snapshot()
	assert.True(t, snap.Done)
	assert.Equal(t, uint64(10), snap.Progress)
	assert.Equal(t, uint64(10), snap.Total)
	assert.Equal(t, uint64(24), snap.MemoryUsage)
}

func TestJobSnapshotReportsFailure(t *testing.T) {
	r := New()
	job, _ := r.CreateLoadJob()
	job.Fail(errors.New(errors.CodeLoadError, "boom"))

	snap := job.Snapshot()
	assert.True(t, snap.Done)
	assert.Equal(t, errors.CodeLoadError, snap.ErrCode)
	assert.Equal(t, "boom", snap.ErrMsg)
}

func TestCompleteIsOneShot(t *testing.T) {
	r := New()
	job, _ := r.CreateLoadJob()
	job.Complete("first", 1)
	job.Complete("second", 2)

	snap := job.Snapshot()
	assert.Equal(t, "first", snap.Result)
	assert.Equal(t, uint64(1), snap.MemoryUsage)
}
