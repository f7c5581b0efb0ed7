package tree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/swayctl/internal/testutil/testlog"
)

func loadTree(t *testing.T) *Node {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "get_tree.json"))
	if err != nil {
		t.Fatalf("read testdata: %v", err)
	}
	root, err := Parse(data)
	if err != nil {
		t.Fatalf("parse tree: %v", err)
	}
	return root
}

func TestFlattenCountsEveryContainer(t *testing.T) {
	testlog.Start(t)
	root := loadTree(t)
	entries := Flatten(root)
	if len(entries) != 10 {
		t.Fatalf("flatten got=%d want=10", len(entries))
	}
	if entries[0].ID != 1 || entries[0].Parent != 0 {
		t.Fatalf("root should come first, got=%+v", entries[0])
	}
	seen := map[int64]bool{}
	for _, e := range entries {
		if seen[e.ID] {
			t.Fatalf("container %d listed twice", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestFlattenRecordsParents(t *testing.T) {
	testlog.Start(t)
	root := loadTree(t)
	parents := map[int64]int64{}
	for _, e := range Flatten(root) {
		parents[e.ID] = e.Parent
	}
	if parents[8] != 5 {
		t.Fatalf("floating con parent got=%d want=5", parents[8])
	}
	if parents[10] != 9 {
		t.Fatalf("con parent got=%d want=9", parents[10])
	}
}

func TestFlattenNil(t *testing.T) {
	testlog.Start(t)
	if got := Flatten(nil); got != nil {
		t.Fatalf("expected nil, got=%v", got)
	}
}

func TestFindFocused(t *testing.T) {
	testlog.Start(t)
	root := loadTree(t)
	focused := FindFocused(root)
	if focused == nil {
		t.Fatalf("expected a focused container")
	}
	if focused.ID != 7 || focused.AppID != "firefox" {
		t.Fatalf("unexpected focused container: id=%d app_id=%q", focused.ID, focused.AppID)
	}
}

func TestContentFiltersWindows(t *testing.T) {
	testlog.Start(t)
	root := loadTree(t)
	content := Content(root)
	if len(content) != 4 {
		t.Fatalf("content got=%d want=4", len(content))
	}
	for _, e := range content {
		if !e.IsContent() {
			t.Fatalf("non-content entry %d type=%s", e.ID, e.Type)
		}
	}
}

func TestWorkspaceOf(t *testing.T) {
	testlog.Start(t)
	root := loadTree(t)
	ws, ok := WorkspaceOf(root, 8)
	if !ok || ws.Name != "1" {
		t.Fatalf("workspace of 8 got=%v ok=%v", ws, ok)
	}
	if _, ok := WorkspaceOf(root, 4); ok {
		t.Fatalf("output should have no workspace")
	}
	if _, ok := Find(root, 99); ok {
		t.Fatalf("unexpected container 99")
	}
}

func TestOutputHelpers(t *testing.T) {
	testlog.Start(t)
	o := Output{Make: "Dell", Model: "U2720Q", Serial: "ABC", Rect: Rect{Width: 3840, Height: 2160}}
	if o.Identity() != "Dell U2720Q ABC" {
		t.Fatalf("identity got=%q", o.Identity())
	}
	if o.Resolution() != "3840x2160" {
		t.Fatalf("resolution got=%q", o.Resolution())
	}
	if (Output{}).Resolution() != "" {
		t.Fatalf("expected empty resolution")
	}
}
