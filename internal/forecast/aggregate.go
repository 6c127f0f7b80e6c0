package forecast

import "math"

// Aggregate combines per-waypoint forecasts for one route into mean and max
// statistics per horizon index. Results whose forecast is nil, empty, or has
// a NaN first horizon are excluded from the statistics. When no valid
// forecast remains the route is dropped: the second return value is false
// and no summary is produced.
func Aggregate(routeIndex int, results []WaypointResult) (RouteSummary, bool) {
	readingCount := 0
	var valid [][]float64

	for _, r := range results {
		if r.HadReading {
			readingCount++
		}
		if len(r.Forecast) == 0 || math.IsNaN(r.Forecast[0]) {
			continue
		}
		valid = append(valid, r.Forecast)
	}

	if len(valid) == 0 {
		return RouteSummary{}, false
	}

	horizons := len(valid[0])
	mean := make([]float64, horizons)
	max := make([]float64, horizons)

	for h := 0; h < horizons; h++ {
		sum := 0.0
		count := 0
		best := math.Inf(-1)
		for _, v := range valid {
			if h >= len(v) || math.IsNaN(v[h]) {
				continue
			}
			sum += v[h]
			count++
			if v[h] > best {
				best = v[h]
			}
		}
		if count == 0 {
			mean[h] = 0
			max[h] = 0
			continue
		}
		mean[h] = sum / float64(count)
		max[h] = best
	}

	return RouteSummary{
		RouteIndex:    routeIndex,
		MeanForecast:  mean,
		MaxForecast:   max,
		WaypointCount: readingCount,
	}, true
}
