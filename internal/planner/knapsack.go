package planner

// Solve returns the subset of items whose total weight is the largest that fits in capacity.
//
// It is the 0/1 knapsack with value equal to weight, solved bottom-up over
// best[i][w], the heaviest load reachable with the first i items under budget w.
// The selection is rebuilt by walking the table back from (n, capacity): an item is
// taken only where it strictly improved on the row above, so the chosen subset among
// equally heavy ones depends on input order. The result is ordered from the highest
// input index down. Table size is O(len(items) * min(capacity, total weight)).
func Solve(items []Location, capacity int) []Location {
	n := len(items)
	if n == 0 || capacity <= 0 {
		return []Location{}
	}
	capacity = reachable(items, capacity)
	if capacity == 0 {
		return []Location{}
	}

	width := capacity + 1
	best := make([]int, (n+1)*width)

	for i := 1; i <= n; i++ {
		weight := items[i-1].Weight
		row := best[i*width : (i+1)*width]
		prev := best[(i-1)*width : i*width]
		for w := 1; w <= capacity; w++ {
			row[w] = prev[w]
			if weight >= 0 && weight <= w {
				if with := weight + prev[w-weight]; with > row[w] {
					row[w] = with
				}
			}
		}
	}

	selected := make([]Location, 0, n)
	w := capacity
	for i := n; i > 0 && w > 0; i-- {
		if best[i*width+w] != best[(i-1)*width+w] {
			selected = append(selected, items[i-1])
			w -= items[i-1].Weight
		}
	}

	return selected
}

// reachable returns the largest budget the table needs: the sum of the
// non-negative weights that fit, saturated at capacity.
func reachable(items []Location, capacity int) int {
	sum := 0
	for _, item := range items {
		if item.Weight < 0 || item.Weight > capacity {
			continue
		}
		if item.Weight >= capacity-sum {
			return capacity
		}
		sum += item.Weight
	}
	return sum
}
