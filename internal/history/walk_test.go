package history_test

import (
	"testing"

	"folio/internal/history"
	"folio/internal/model"
)

func chainIndex(parents map[model.SnapshotID]model.SnapshotID) map[model.SnapshotID]*model.Snapshot {
	index := make(map[model.SnapshotID]*model.Snapshot, len(parents))
	for id, parent := range parents {
		index[id] = &model.Snapshot{ID: id, ParentSnapshotID: parent}
	}
	return index
}

func ids(chain []*model.Snapshot) []model.SnapshotID {
	out := make([]model.SnapshotID, 0, len(chain))
	for _, s := range chain {
		out = append(out, s.ID)
	}
	return out
}

func TestWalk(t *testing.T) {
	tests := []struct {
		name      string
		head      model.SnapshotID
		parents   map[model.SnapshotID]model.SnapshotID
		want      []model.SnapshotID
		wantCycle bool
	}{
		{
			name:    "linear chain",
			head:    "s3",
			parents: map[model.SnapshotID]model.SnapshotID{"s1": "", "s2": "s1", "s3": "s2"},
			want:    []model.SnapshotID{"s3", "s2", "s1"},
		},
		{
			name:      "cycle stops after each snapshot once",
			head:      "s3",
			parents:   map[model.SnapshotID]model.SnapshotID{"s1": "s3", "s2": "s1", "s3": "s2"},
			want:      []model.SnapshotID{"s3", "s2", "s1"},
			wantCycle: true,
		},
		{
			name:      "self parent",
			head:      "s1",
			parents:   map[model.SnapshotID]model.SnapshotID{"s1": "s1"},
			want:      []model.SnapshotID{"s1"},
			wantCycle: true,
		},
		{
			name:    "dangling parent",
			head:    "s2",
			parents: map[model.SnapshotID]model.SnapshotID{"s2": "gone"},
			want:    []model.SnapshotID{"s2"},
		},
		{
			name:    "no head",
			head:    "",
			parents: map[model.SnapshotID]model.SnapshotID{"s1": ""},
			want:    []model.SnapshotID{},
		},
		{
			name:    "head missing from index",
			head:    "ghost",
			parents: map[model.SnapshotID]model.SnapshotID{"s1": ""},
			want:    []model.SnapshotID{},
		},
		{
			name:    "ignores other branches",
			head:    "b2",
			parents: map[model.SnapshotID]model.SnapshotID{"s1": "", "s2": "s1", "b1": "s1", "b2": "b1"},
			want:    []model.SnapshotID{"b2", "b1", "s1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, cycle := history.Walk(tt.head, chainIndex(tt.parents))
			got := ids(chain)
			if len(got) != len(tt.want) {
				t.Fatalf("Walk() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Walk()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
			if cycle != tt.wantCycle {
				t.Errorf("cycle = %v, want %v", cycle, tt.wantCycle)
			}
		})
	}
}

func TestTriggerIcon(t *testing.T) {
	tests := []struct {
		trigger string
		want    string
	}{
		{trigger: "snapshot", want: history.IconManualSave},
		{trigger: "ai_action", want: history.IconAIAction},
		{trigger: "", want: history.IconManualSave},
		{trigger: "something-new", want: history.IconManualSave},
	}
	for _, tt := range tests {
		if got := history.TriggerIcon(tt.trigger); got != tt.want {
			t.Errorf("TriggerIcon(%q) = %q, want %q", tt.trigger, got, tt.want)
		}
	}
}
