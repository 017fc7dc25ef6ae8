package clustering

import (
	"fmt"
	"math"
	"reflect"

	"github.com/humilityai/hdbscan"
)

// cosineDistance computes cosine distance between two vectors.
// For high-dimensional embeddings cosine distance works much better than
// Euclidean. Distance = 1 - similarity, range [0, 2].
func cosineDistance(x1, x2 []float64) float64 {
	if len(x1) != len(x2) {
		return 1.0
	}

	var dotProduct, mag1, mag2 float64
	for i := range x1 {
		dotProduct += x1[i] * x2[i]
		mag1 += x1[i] * x1[i]
		mag2 += x2[i] * x2[i]
	}

	if mag1 == 0 || mag2 == 0 {
		return 1.0
	}

	similarity := dotProduct / (math.Sqrt(mag1) * math.Sqrt(mag2))

	// Clamp to [-1, 1] to handle floating point errors
	if similarity > 1.0 {
		similarity = 1.0
	} else if similarity < -1.0 {
		similarity = -1.0
	}

	return 1.0 - similarity
}

// runHDBSCAN clusters the vectors with density-based clustering and returns
// one label per input row. Unassigned rows (noise) get label -1.
func runHDBSCAN(vectors [][]float64, minClusterSize int) ([]int, error) {
	clustering, err := hdbscan.NewClustering(vectors, minClusterSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create HDBSCAN clustering: %w", err)
	}

	clustering = clustering.OutlierDetection()

	if err := clustering.Run(cosineDistance, hdbscan.VarianceScore, true); err != nil {
		return nil, fmt.Errorf("HDBSCAN clustering failed: %w", err)
	}

	labels := make([]int, len(vectors))
	for i := range labels {
		labels[i] = -1
	}
	for clusterID, cluster := range extractClusterPoints(clustering) {
		for _, pointIdx := range cluster {
			if pointIdx >= 0 && pointIdx < len(labels) {
				labels[pointIdx] = clusterID
			}
		}
	}
	return labels, nil
}

// extractClusterPoints uses reflection to read point assignments out of the
// library's Clustering result. The Clusters field is a slice of *cluster
// whose element type is unexported; its Points field ([]int) holds the row
// indices assigned to that cluster.
func extractClusterPoints(clustering *hdbscan.Clustering) [][]int {
	v := reflect.ValueOf(clustering).Elem()
	clustersField := v.FieldByName("Clusters")
	if !clustersField.IsValid() {
		return nil
	}

	result := make([][]int, clustersField.Len())
	for i := 0; i < clustersField.Len(); i++ {
		clusterPtr := clustersField.Index(i)
		if clusterPtr.Kind() == reflect.Ptr {
			clusterPtr = clusterPtr.Elem()
		}

		pointsField := clusterPtr.FieldByName("Points")
		if !pointsField.IsValid() || pointsField.Kind() != reflect.Slice {
			continue
		}
		points := make([]int, pointsField.Len())
		for j := 0; j < pointsField.Len(); j++ {
			points[j] = int(pointsField.Index(j).Int())
		}
		result[i] = points
	}
	return result
}
