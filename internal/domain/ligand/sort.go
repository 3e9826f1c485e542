package ligand

import "sort"

// Sort orders records by score in place. It is stable, so records with equal
// scores keep their relative order and repeated calls are idempotent.
func Sort(records []Record, order ScoreOrder) {
	if order == OrderDescending {
		sort.SliceStable(records, func(i, j int) bool { return records[i].Score > records[j].Score })
		return
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Score < records[j].Score })
}

// IsSorted reports whether records are ordered by score in the given direction.
func IsSorted(records []Record, order ScoreOrder) bool {
	for i := 1; i < len(records); i++ {
		if order == OrderDescending && records[i-1].Score < records[i].Score {
			return false
		}
		if order != OrderDescending && records[i-1].Score > records[i].Score {
			return false
		}
	}
	return true
}
