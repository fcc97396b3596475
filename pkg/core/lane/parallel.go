package lane

// ParallelGroup returns every item reachable from the item with id target
// through a chain of pairwise overlaps, target included, ordered by start.
// It returns nil when no item has that id.
func ParallelGroup(items []Item, target string) []Item {
	sorted := sortByStart(items)
	start := -1
	for i, it := range sorted {
		if it.ID == target {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}
	return closure(sorted, start, make([]bool, len(sorted)))
}

// Groups partitions items into parallel groups. Groups come out in order of
// their earliest item; items inside a group are ordered by start.
func Groups(items []Item) [][]Item {
	sorted := sortByStart(items)
	visited := make([]bool, len(sorted))
	var out [][]Item
	for i := range sorted {
		if visited[i] {
			continue
		}
		out = append(out, closure(sorted, i, visited))
	}
	return out
}

// closure expands breadth-first from sorted[from], marking visited indices.
// The result keeps the start order of sorted.
func closure(sorted []Item, from int, visited []bool) []Item {
	members := make([]bool, len(sorted))
	queue := []int{from}
	visited[from], members[from] = true, true
	for len(queue) > 0 {
		cur := sorted[queue[0]]
		queue = queue[1:]
		for j, other := range sorted {
			if visited[j] || !cur.Overlaps(other) {
				continue
			}
			visited[j], members[j] = true, true
			queue = append(queue, j)
		}
	}

	var group []Item
	for i, in := range members {
		if in {
			group = append(group, sorted[i])
		}
	}
	return group
}
