package simulation

import "math"

// buildHistogram groups identical week values of an ascending slice into buckets.
func buildHistogram(sorted []int) []Bucket {
	if len(sorted) == 0 {
		return nil
	}
	n := float64(len(sorted))

	var buckets []Bucket
	for _, d := range sorted {
		if last := len(buckets) - 1; last >= 0 && buckets[last].Week == d {
			buckets[last].Count++
			continue
		}
		buckets = append(buckets, Bucket{Week: d, Count: 1})
	}
	for i := range buckets {
		buckets[i].Probability = float64(buckets[i].Count) / n
	}
	return buckets
}

// CumulativeProbability returns P(finished within week) for each bucket, in order.
func CumulativeProbability(histogram []Bucket) []float64 {
	out := make([]float64, len(histogram))
	total := 0
	count := 0
	for _, b := range histogram {
		total += b.Count
	}
	for i, b := range histogram {
		count += b.Count
		if total > 0 {
			out[i] = float64(count) / float64(total)
		}
	}
	return out
}

// buildBurndown projects remaining work with one fixed weekly rate per curve: the
// sample median for P50 and the pessimistic 20th percentile for P80.
func buildBurndown(remaining float64, tp ThroughputSummary, p50, p80 int) Burndown {
	return Burndown{
		P50Rate: tp.Median,
		P80Rate: tp.P20,
		P50:     projectBurndown(remaining, tp.Median, p50),
		P80:     projectBurndown(remaining, tp.P20, p80),
	}
}

// projectBurndown subtracts rate once per week until the work is gone or untilWeek is reached.
func projectBurndown(remaining, rate float64, untilWeek int) []BurndownPoint {
	points := []BurndownPoint{{Week: 0, Remaining: remaining}}
	for week := 1; week <= untilWeek && remaining > 0; week++ {
		remaining = math.Max(0, remaining-rate)
		points = append(points, BurndownPoint{Week: week, Remaining: remaining})
	}
	return points
}
