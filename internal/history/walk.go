package history

import "folio/internal/model"

// Walk follows parent pointers from head through index and returns the chain
// most recent first. It stops at a snapshot without a parent, at a parent id
// missing from index, or when an id repeats. The second result reports
// whether the walk stopped on a repeated id.
func Walk(head model.SnapshotID, index map[model.SnapshotID]*model.Snapshot) ([]*model.Snapshot, bool) {
	var chain []*model.Snapshot
	visited := make(map[model.SnapshotID]bool)

	for id := head; !id.IsZero(); {
		if visited[id] {
			return chain, true
		}
		snapshot, ok := index[id]
		if !ok {
			break
		}
		visited[id] = true
		chain = append(chain, snapshot)
		id = snapshot.ParentSnapshotID
	}
	return chain, false
}
