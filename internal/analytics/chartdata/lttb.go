package chartdata

import "math"

// lttb selects threshold indices of items with the Largest-Triangle-Three-
// Buckets algorithm, using the row position as x. The first and last rows
// are always kept.
func lttb(items []Item, threshold int) []int {
	n := len(items)
	if n <= threshold {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	if threshold <= 2 {
		if n >= 2 {
			return []int{0, n - 1}
		}
		return []int{0}
	}

	sampled := make([]int, 0, threshold)
	sampled = append(sampled, 0)

	bucket := float64(n-2) / float64(threshold-2)
	a := 0

	for i := 0; i < threshold-2; i++ {
		nextStart := int(math.Floor(float64(i+1)*bucket)) + 1
		nextEnd := int(math.Floor(float64(i+2)*bucket)) + 1
		if nextEnd > n {
			nextEnd = n
		}

		var avgX, avgY float64
		for j := nextStart; j < nextEnd; j++ {
			avgX += float64(j)
			avgY += items[j].Value
		}
		if span := float64(nextEnd - nextStart); span > 0 {
			avgX /= span
			avgY /= span
		}

		from := int(math.Floor(float64(i)*bucket)) + 1
		to := int(math.Floor(float64(i+1)*bucket)) + 1

		ax, ay := float64(a), items[a].Value
		best, bestArea := from, -1.0
		for j := from; j < to; j++ {
			area := math.Abs((ax-avgX)*(items[j].Value-ay)-(ax-float64(j))*(avgY-ay)) * 0.5
			if area > bestArea {
				bestArea = area
				best = j
			}
		}

		sampled = append(sampled, best)
		a = best
	}

	return append(sampled, n-1)
}
