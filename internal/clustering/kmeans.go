package clustering

import (
	"math"
	"math/rand"
)

const (
	kmeansMaxIterations = 100
	kmeansTolerance     = 1e-6
)

// fallbackK picks the cluster count for the k-means fallback from the
// dataset size: one cluster per ~2500 reviews, clamped to [6, 12] and
// never more than the number of rows.
func fallbackK(n int) int {
	k := n / 2500
	if k < 6 {
		k = 6
	}
	if k > 12 {
		k = 12
	}
	if k > n {
		k = n
	}
	return k
}

// runKMeans assigns every vector to one of k clusters. Initialization and
// tie-breaking are driven by the seeded source, so a given dataset always
// produces the same labels.
func runKMeans(vectors [][]float64, k int, seed int64) []int {
	n := len(vectors)
	if k <= 1 || n <= k {
		return make([]int, n)
	}

	rng := rand.New(rand.NewSource(seed))
	centroids := initCentroidsPlusPlus(vectors, k, rng)
	assignments := make([]int, n)

	for iter := 0; iter < kmeansMaxIterations; iter++ {
		for i, v := range vectors {
			best, bestDist := 0, math.Inf(1)
			for c, centroid := range centroids {
				if d := cosineDistance(v, centroid); d < bestDist {
					best, bestDist = c, d
				}
			}
			assignments[i] = best
		}

		next := recomputeCentroids(vectors, assignments, k, rng)

		var shift float64
		for c := range centroids {
			shift += cosineDistance(centroids[c], next[c])
		}
		centroids = next
		if shift < kmeansTolerance {
			break
		}
	}

	return assignments
}

// initCentroidsPlusPlus seeds centroids with k-means++: the first is drawn
// uniformly, each following one proportionally to its squared distance
// from the nearest centroid chosen so far.
func initCentroidsPlusPlus(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, vectors[rng.Intn(len(vectors))])

	distances := make([]float64, len(vectors))
	for len(centroids) < k {
		var total float64
		for i, v := range vectors {
			nearest := math.Inf(1)
			for _, c := range centroids {
				if d := cosineDistance(v, c); d < nearest {
					nearest = d
				}
			}
			distances[i] = nearest * nearest
			total += distances[i]
		}

		if total == 0 {
			centroids = append(centroids, vectors[rng.Intn(len(vectors))])
			continue
		}

		target := rng.Float64() * total
		var sum float64
		chosen := len(vectors) - 1
		for i, d := range distances {
			sum += d
			if sum >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, vectors[chosen])
	}

	return centroids
}

func recomputeCentroids(vectors [][]float64, assignments []int, k int, rng *rand.Rand) [][]float64 {
	dim := len(vectors[0])
	centroids := make([][]float64, k)
	counts := make([]int, k)
	for c := range centroids {
		centroids[c] = make([]float64, dim)
	}

	for i, v := range vectors {
		c := assignments[i]
		counts[c]++
		for j, val := range v {
			centroids[c][j] += val
		}
	}

	for c := range centroids {
		if counts[c] == 0 {
			// Re-seed empty clusters from a random point so k stays stable.
			copy(centroids[c], vectors[rng.Intn(len(vectors))])
			continue
		}
		for j := range centroids[c] {
			centroids[c][j] /= float64(counts[c])
		}
	}

	return centroids
}
