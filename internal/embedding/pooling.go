package embedding

// meanPool averages token vectors of hidden ([tokens, dim], row-major) over
// positions where mask is set, writing the result into dst.
func meanPool(dst []float32, hidden []float32, mask []int64) {
	dim := len(dst)
	var count float32
	for t, m := range mask {
		if m == 0 {
			continue
		}
		row := hidden[t*dim : (t+1)*dim]
		for i, v := range row {
			dst[i] += v
		}
		count++
	}
	if count == 0 {
		return
	}
	for i := range dst {
		dst[i] /= count
	}
}
