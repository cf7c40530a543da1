package local

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// loadLabels reads the class vocabulary. Three JSON shapes are accepted:
//
//	["Apple___Apple_scab", "Apple___Black_rot"]          // index = position
//	{"0": "Apple___Apple_scab", "1": "Apple___Black_rot"} // index -> label
//	{"Apple___Apple_scab": 0, "Apple___Black_rot": 1}     // label -> index
//
// The returned slice is ordered by class index. Indices must be dense.
func loadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	labels, err := parseLabels(data)
	if err != nil {
		return nil, fmt.Errorf("labels: %s: %w", path, err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels: file is empty: %s", path)
	}
	return labels, nil
}

func parseLabels(data []byte) ([]string, error) {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var byIndex map[string]string
	if err := json.Unmarshal(data, &byIndex); err == nil {
		indexed := make(map[int]string, len(byIndex))
		for k, v := range byIndex {
			i, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("non-numeric index %q", k)
			}
			indexed[i] = v
		}
		return dense(indexed)
	}

	var byLabel map[string]int
	if err := json.Unmarshal(data, &byLabel); err == nil {
		indexed := make(map[int]string, len(byLabel))
		for label, i := range byLabel {
			if prev, dup := indexed[i]; dup {
				return nil, fmt.Errorf("index %d used by %q and %q", i, prev, label)
			}
			indexed[i] = label
		}
		return dense(indexed)
	}

	return nil, fmt.Errorf("expected a JSON array or object of labels")
}

// dense turns an index -> label map into a slice, rejecting gaps.
func dense(indexed map[int]string) ([]string, error) {
	idx := make([]int, 0, len(indexed))
	for i := range indexed {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	out := make([]string, len(idx))
	for pos, i := range idx {
		if i != pos {
			return nil, fmt.Errorf("class indices are not contiguous: missing %d", pos)
		}
		out[pos] = indexed[i]
	}
	return out, nil
}
