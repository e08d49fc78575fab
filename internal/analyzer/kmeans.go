package analyzer

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// KMeans is a Lloyd k-means clusterer with k-means++ seeding. Every Fit call
// starts from the same seed, so identical input gives identical output.
// A KMeans value holds no state between calls and is safe for concurrent use.
type KMeans struct {
	Seed          int64
	Restarts      int
	MaxIterations int
	Tolerance     float64
}

// NewKMeans creates a clusterer from analysis options
func NewKMeans(opts AnalysisOptions) *KMeans {
	opts = opts.normalized()
	return &KMeans{
		Seed:          opts.Seed,
		Restarts:      opts.Restarts,
		MaxIterations: opts.MaxIterations,
		Tolerance:     opts.Tolerance,
	}
}

// Fit clusters points into k groups and returns the centroids of the run with
// the lowest inertia together with each point's cluster label
func (km *KMeans) Fit(points [][3]float64, k int) ([][3]float64, []int, error) {
	n := len(points)
	if n == 0 {
		return nil, nil, fmt.Errorf("%w: no points", ErrDegenerateInput)
	}
	if k < 1 || k > n {
		return nil, nil, fmt.Errorf("%w: k=%d with %d points", ErrDegenerateInput, k, n)
	}
	for _, p := range points {
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, nil, fmt.Errorf("%w: non-finite coordinate", ErrDegenerateInput)
			}
		}
	}

	rng := rand.New(rand.NewSource(km.Seed))
	tol := km.Tolerance * meanVariance(points)

	restarts := max(km.Restarts, 1)
	var (
		bestCentroids [][3]float64
		bestLabels    []int
		bestInertia   = math.Inf(1)
	)
	for run := 0; run < restarts; run++ {
		centroids := seedPlusPlus(points, k, rng)
		labels, inertia := km.lloyd(points, centroids, tol)
		if inertia < bestInertia {
			bestCentroids, bestLabels, bestInertia = centroids, labels, inertia
		}
	}
	return bestCentroids, bestLabels, nil
}

// lloyd refines centroids in place and returns the final labels and inertia
func (km *KMeans) lloyd(points [][3]float64, centroids [][3]float64, tol float64) ([]int, float64) {
	k := len(centroids)
	labels := make([]int, len(points))
	channel := make([][]float64, 3)
	for c := range channel {
		channel[c] = make([]float64, 0, len(points))
	}

	maxIter := max(km.MaxIterations, 1)
	for iter := 0; iter < maxIter; iter++ {
		assign(points, centroids, labels)

		var shift float64
		for j := 0; j < k; j++ {
			for c := range channel {
				channel[c] = channel[c][:0]
			}
			for i, p := range points {
				if labels[i] == j {
					channel[0] = append(channel[0], p[0])
					channel[1] = append(channel[1], p[1])
					channel[2] = append(channel[2], p[2])
				}
			}
			// An empty cluster keeps its previous centroid
			if len(channel[0]) == 0 {
				continue
			}
			next := [3]float64{
				stat.Mean(channel[0], nil),
				stat.Mean(channel[1], nil),
				stat.Mean(channel[2], nil),
			}
			d := floats.Distance(next[:], centroids[j][:], 2)
			shift += d * d
			centroids[j] = next
		}
		if shift <= tol {
			break
		}
	}

	inertia := assign(points, centroids, labels)
	return labels, inertia
}

// assign labels every point with its nearest centroid, lowest index on ties,
// and returns the summed squared distance
func assign(points [][3]float64, centroids [][3]float64, labels []int) float64 {
	var inertia float64
	for i := range points {
		best := 0
		bestDist := math.Inf(1)
		for j := range centroids {
			d := floats.Distance(points[i][:], centroids[j][:], 2)
			if d < bestDist {
				best, bestDist = j, d
			}
		}
		labels[i] = best
		inertia += bestDist * bestDist
	}
	return inertia
}

// seedPlusPlus picks k initial centroids with D² weighting
func seedPlusPlus(points [][3]float64, k int, rng *rand.Rand) [][3]float64 {
	n := len(points)
	centroids := make([][3]float64, 0, k)
	centroids = append(centroids, points[rng.Intn(n)])

	dist := make([]float64, n)
	for i, p := range points {
		d := floats.Distance(p[:], centroids[0][:], 2)
		dist[i] = d * d
	}

	for len(centroids) < k {
		total := floats.Sum(dist)
		var next int
		if total == 0 {
			// Fewer distinct points than clusters
			next = rng.Intn(n)
		} else {
			target := rng.Float64() * total
			var acc float64
			next = n - 1
			for i, d := range dist {
				acc += d
				if acc >= target && d > 0 {
					next = i
					break
				}
			}
		}
		c := points[next]
		centroids = append(centroids, c)
		for i, p := range points {
			d := floats.Distance(p[:], c[:], 2)
			if d*d < dist[i] {
				dist[i] = d * d
			}
		}
	}
	return centroids
}

// meanVariance is the average per-channel variance, used to scale tolerance
func meanVariance(points [][3]float64) float64 {
	if len(points) < 2 {
		return 0
	}
	channel := make([]float64, len(points))
	var sum float64
	for c := 0; c < 3; c++ {
		for i, p := range points {
			channel[i] = p[c]
		}
		sum += stat.PopVariance(channel, nil)
	}
	return sum / 3
}
