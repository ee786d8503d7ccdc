package attendance

import "math"

// Distance computes the Euclidean distance between a probe encoding and a
// reference encoding. Non-negative, increases with dissimilarity. Vectors of
// differing length fail fast with MalformedEncodingError rather than silently
// truncating; the reference length is the expected dimension.
func Distance(probe, reference []float32) (float64, error) {
	if len(probe) == 0 || len(reference) == 0 {
		return 0, &MalformedEncodingError{}
	}
	if len(probe) != len(reference) {
		return 0, &MalformedEncodingError{Want: len(reference), Got: len(probe)}
	}

	var sum float64
	for i := range probe {
		d := float64(probe[i]) - float64(reference[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}
