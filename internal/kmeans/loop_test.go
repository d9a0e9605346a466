package kmeans

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/heterokit/offload/internal/device"
	"github.com/heterokit/offload/internal/graph"
)

func TestNewValidation(t *testing.T) {
	reg := device.NewStaticRegistry(1)
	points := []graph.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}

	t.Run("k below 1", func(t *testing.T) {
		_, err := New(reg, points, 0, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("k above point count", func(t *testing.T) {
		_, err := New(reg, points, 3, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("wrong initial centroid count", func(t *testing.T) {
		_, err := New(reg, points, 2, zap.NewNop(), WithInitialCentroids([]graph.Point{{X: 0, Y: 0}}))
		assert.Error(t, err)
	})
}

func TestTwoClusterConvergence(t *testing.T) {
	reg := device.NewStaticRegistry(1)
	points := []graph.Point{
		{X: 0, Y: 0},
		{X: 0, Y: 1},
		{X: 10, Y: 0},
		{X: 10, Y: 1},
	}
	initial := []graph.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}

	l, err := New(reg, points, 2, zap.NewNop(), WithInitialCentroids(initial))
	require.NoError(t, err)
	res, err := l.Run()
	require.NoError(t, err)

	// First assign splits front/back pairs; the single update moves the
	// centroids to the column means; the second assign reproduces the
	// partition and the following update changes nothing.
	assert.Equal(t, []int{0, 0, 1, 1}, res.Assignments)
	assert.Equal(t, [][]int{{0, 1}, {2, 3}}, res.Members)
	assert.Equal(t, []graph.Point{{X: 0, Y: 0.5}, {X: 10, Y: 0.5}}, res.Centroids)
	assert.Equal(t, 2, res.Iterations)
}

func TestPartitionInvariant(t *testing.T) {
	reg := device.NewHostRegistry(zap.NewNop())
	rng := rand.New(rand.NewSource(11))

	const n, k = 500, 5
	points := make([]graph.Point, n)
	for i := range points {
		points[i] = graph.Point{X: rng.Float64() * 100, Y: rng.Float64() * 100}
	}

	l, err := New(reg, points, k, zap.NewNop(), WithSeed(11))
	require.NoError(t, err)
	res, err := l.Run()
	require.NoError(t, err)

	// Every point in exactly one cluster, and the union covers the range.
	seen := make([]bool, n)
	total := 0
	for _, members := range res.Members {
		for _, i := range members {
			require.False(t, seen[i], "point %d assigned twice", i)
			seen[i] = true
			total++
		}
	}
	assert.Equal(t, n, total)
	for i, c := range res.Assignments {
		require.GreaterOrEqual(t, c, 0, "point %d", i)
		require.Less(t, c, k, "point %d", i)
	}
}

func TestTieBreakLowestIndexWins(t *testing.T) {
	reg := device.NewStaticRegistry(1)
	// The middle point is exactly equidistant from both centroids.
	points := []graph.Point{
		{X: 0, Y: 0},
		{X: 5, Y: 0},
		{X: 10, Y: 0},
	}
	initial := []graph.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}

	for run := 0; run < 3; run++ {
		l, err := New(reg, points, 2, zap.NewNop(), WithInitialCentroids(initial))
		require.NoError(t, err)
		res, err := l.Run()
		require.NoError(t, err)
		assert.Equal(t, 0, res.Assignments[1], "run %d: equidistant point must go to the lower-indexed centroid", run)
	}
}

func TestEmptyClusterKeepsCentroid(t *testing.T) {
	reg := device.NewStaticRegistry(1)
	points := []graph.Point{
		{X: 0, Y: 0},
		{X: 1, Y: 0},
	}
	// The second centroid is too far away to attract any point.
	initial := []graph.Point{{X: 0, Y: 0}, {X: 100, Y: 100}}

	l, err := New(reg, points, 2, zap.NewNop(), WithInitialCentroids(initial))
	require.NoError(t, err)
	res, err := l.Run()
	require.NoError(t, err)

	assert.Empty(t, res.Members[1])
	assert.Equal(t, graph.Point{X: 100, Y: 100}, res.Centroids[1])
	assert.False(t, math64IsNaN(res.Centroids[1]))
	assert.Equal(t, graph.Point{X: 0.5, Y: 0}, res.Centroids[0])
}

func math64IsNaN(p graph.Point) bool {
	return p.X != p.X || p.Y != p.Y
}

func TestSerialAndParallelAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const n, k = 300, 4
	points := make([]graph.Point, n)
	for i := range points {
		points[i] = graph.Point{X: rng.Float64() * 50, Y: rng.Float64() * 50}
	}
	initial := make([]graph.Point, k)
	for i := range initial {
		initial[i] = points[i*n/k]
	}

	reg := device.NewHostRegistry(zap.NewNop())

	serial, err := New(reg, points, k, zap.NewNop(),
		WithInitialCentroids(initial),
		WithDevice(device.Handle{Backend: 0, Device: 0}))
	require.NoError(t, err)
	serialRes, err := serial.Run()
	require.NoError(t, err)

	parallel, err := New(reg, points, k, zap.NewNop(),
		WithInitialCentroids(initial),
		WithDevice(device.Handle{Backend: 1, Device: 0}))
	require.NoError(t, err)
	parallelRes, err := parallel.Run()
	require.NoError(t, err)

	assert.Equal(t, serialRes.Assignments, parallelRes.Assignments)
	assert.Equal(t, serialRes.Centroids, parallelRes.Centroids)
	assert.Equal(t, serialRes.Iterations, parallelRes.Iterations)
}

func TestRunSequential(t *testing.T) {
	points := []graph.Point{
		{X: 0, Y: 0}, {X: 0, Y: 1},
		{X: 10, Y: 0}, {X: 10, Y: 1},
	}
	res, err := RunSequential(points, 2, zap.NewNop(),
		WithInitialCentroids([]graph.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1, 1}, res.Assignments)
}
