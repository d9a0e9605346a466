// Package kmeans runs iterative 2D clustering on top of an offload
// session: the assign phase is a data-parallel kernel executed on the
// bound device, the centroid update runs on the host, and the two
// alternate until the centroids stop moving.
package kmeans

import (
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/heterokit/offload/internal/device"
	"github.com/heterokit/offload/internal/graph"
)

// Option configures a Loop.
type Option func(*Loop)

// WithSeed fixes the seed used to sample the initial centroids.
func WithSeed(seed int64) Option {
	return func(l *Loop) { l.seed = &seed }
}

// WithDevice selects the device the assign phase runs on.
func WithDevice(h device.Handle) Option {
	return func(l *Loop) { l.handle = &h }
}

// WithInitialCentroids bypasses random sampling and starts from the
// given centroids. len must equal k.
func WithInitialCentroids(centroids []graph.Point) Option {
	return func(l *Loop) {
		l.initial = make([]graph.Point, len(centroids))
		copy(l.initial, centroids)
	}
}

// Loop is the two-phase clustering state machine. It is single-threaded:
// phases strictly alternate, and the assign phase never overlaps a
// centroid update.
type Loop struct {
	log *zap.Logger
	k   int

	points      *graph.Points
	centroids   *graph.Points
	assignments *graph.I32
	session     *graph.Session

	seed    *int64
	handle  *device.Handle
	initial []graph.Point
}

// Result is the terminal state of a converged loop.
type Result struct {
	// Centroids is the final centroid vector, index-aligned with
	// clusters.
	Centroids []graph.Point
	// Assignments maps each point index to its cluster index.
	Assignments []int
	// Members lists, per cluster, the point indices assigned to it in
	// ascending order.
	Members [][]int
	// Iterations counts assign-phase executions.
	Iterations int
	Elapsed    time.Duration
}

// New builds a clustering loop over the given points. k centroids are
// initialized from k distinct points sampled without replacement unless
// WithInitialCentroids overrides them.
func New(reg device.Registry, points []graph.Point, k int, logger *zap.Logger, opts ...Option) (*Loop, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if k < 1 {
		return nil, errors.Errorf("k must be at least 1, got %d", k)
	}
	if k > len(points) {
		return nil, errors.Errorf("k (%d) exceeds the number of points (%d)", k, len(points))
	}

	l := &Loop{
		log: logger.Named("kmeans"),
		k:   k,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.points = graph.NewPoints("points", len(points))
	copy(l.points.Data, points)
	l.centroids = graph.NewPoints("centroids", k)
	l.assignments = graph.NewI32("assignments", len(points))

	if l.initial != nil {
		if len(l.initial) != k {
			return nil, errors.Errorf("got %d initial centroids, want %d", len(l.initial), k)
		}
		copy(l.centroids.Data, l.initial)
	} else {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		if l.seed != nil {
			rng = rand.New(rand.NewSource(*l.seed))
		}
		for i, pi := range rng.Perm(len(points))[:k] {
			l.centroids.Data[i] = points[pi]
		}
	}

	g, err := graph.New("clustering", l.assignStage())
	if err != nil {
		return nil, err
	}
	l.session = graph.NewSession(reg, g, logger)
	if l.handle != nil {
		l.session.WithDevice(*l.handle)
	}
	return l, nil
}

// assignStage builds the data-parallel assign phase: every point picks
// the closest centroid. The point set moves to the device once;
// centroids move every execution because the host rewrites them between
// runs.
func (l *Loop) assignStage() graph.Stage {
	points := l.points
	centroids := l.centroids
	assignments := l.assignments
	return graph.Stage{
		Name:         "assign",
		Inputs:       []graph.Buffer{points, centroids},
		TransferIn:   graph.EveryExecution,
		ParallelDims: []int{points.Len()},
		Kernel: func(b *graph.Bindings, idx []int) {
			p := b.Points(points.Name()).Data[idx[0]]
			cs := b.Points(centroids.Name()).Data
			closest := int32(0)
			minDistance := math.MaxFloat64
			// Strict < on a left-to-right scan: equidistant points go to
			// the lowest-indexed centroid.
			for c := 0; c < len(cs); c++ {
				if d := distance(p, cs[c]); d < minDistance {
					minDistance = d
					closest = int32(c)
				}
			}
			b.I32(assignments.Name()).Data[idx[0]] = closest
		},
		Outputs:     []graph.Buffer{assignments},
		TransferOut: graph.EveryExecution,
	}
}

func distance(a, b graph.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Run executes assign and update phases until an update changes no
// centroid. Change detection is exact coordinate equality, matching the
// reference behavior; centroids that keep oscillating by representable
// deltas would keep the loop running.
func (l *Loop) Run() (*Result, error) {
	start := time.Now()

	iterations := 0
	execute := func() error {
		if _, err := l.session.Execute(); err != nil {
			return errors.Wrap(err, "assign phase")
		}
		iterations++
		return nil
	}

	if err := execute(); err != nil {
		return nil, err
	}
	for l.updateCentroids() {
		if err := execute(); err != nil {
			return nil, err
		}
	}

	res := &Result{
		Centroids:   append([]graph.Point(nil), l.centroids.Data...),
		Assignments: make([]int, l.points.Len()),
		Members:     make([][]int, l.k),
		Iterations:  iterations,
		Elapsed:     time.Since(start),
	}
	for i, c := range l.assignments.Data {
		res.Assignments[i] = int(c)
		res.Members[c] = append(res.Members[c], i)
	}

	l.log.Info("clustering converged",
		zap.Int("points", l.points.Len()),
		zap.Int("k", l.k),
		zap.Int("iterations", iterations),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// updateCentroids recomputes every centroid as the mean of its assigned
// points and reports whether any centroid moved. A cluster with no
// points keeps its previous centroid.
func (l *Loop) updateCentroids() bool {
	sumX := make([]float64, l.k)
	sumY := make([]float64, l.k)
	count := make([]int, l.k)
	for i, c := range l.assignments.Data {
		p := l.points.Data[i]
		sumX[c] += p.X
		sumY[c] += p.Y
		count[c]++
	}

	changed := false
	for c := 0; c < l.k; c++ {
		if count[c] == 0 {
			continue
		}
		next := graph.Point{
			X: sumX[c] / float64(count[c]),
			Y: sumY[c] / float64(count[c]),
		}
		prev := l.centroids.Data[c]
		if next.X != prev.X || next.Y != prev.Y {
			l.centroids.Data[c] = next
			changed = true
		}
	}
	return changed
}

// RunSequential is the reference path: the same assign kernel forced
// onto the serial host device. Only the scheduling differs from an
// accelerated run.
func RunSequential(points []graph.Point, k int, logger *zap.Logger, opts ...Option) (*Result, error) {
	reg := device.NewHostRegistry(logger)
	opts = append(opts, WithDevice(device.Handle{Backend: 0, Device: 0}))
	l, err := New(reg, points, k, logger, opts...)
	if err != nil {
		return nil, err
	}
	return l.Run()
}
