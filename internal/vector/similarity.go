package vector

// InnerProduct scores two vectors. Embedders return unit vectors, so this is their cosine
// similarity. Vectors of different length score 0.
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for i, x := range a {
		dot += float64(x) * float64(b[i])
	}
	return dot
}
