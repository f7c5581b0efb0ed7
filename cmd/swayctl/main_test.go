package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/swayctl/internal/testutil/testlog"
)

const treeReply = `{"id":1,"type":"root","name":"root","nodes":[
 {"id":2,"type":"output","name":"DP-1","nodes":[
  {"id":3,"type":"workspace","name":"1","nodes":[
   {"id":4,"type":"con","name":"term","focused":true,"app_id":"foot","nodes":[],"floating_nodes":[]}
  ],"floating_nodes":[]}
 ],"floating_nodes":[]}
],"floating_nodes":[]}`

type scriptedRunner struct {
	replies map[string]string
	argv    [][]string
}

func (r *scriptedRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, int, error) {
	r.argv = append(r.argv, append([]string{name}, args...))
	key := "run_command"
	for i, a := range args {
		if a == "-t" && i+1 < len(args) {
			key = args[i+1]
		}
	}
	return []byte(r.replies[key]), nil, 0, nil
}

func execute(t *testing.T, r *scriptedRunner, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("IPC_PROVIDER", "")
	root := newRootCmd(&app{runner: r})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMsgPassesTypeAndPayload(t *testing.T) {
	testlog.Start(t)
	r := &scriptedRunner{replies: map[string]string{"subscribe": `{"success":true}`}}
	out, err := execute(t, r, "msg", "-t", "subscribe", "-m", `["window"]`)
	if err != nil {
		t.Fatalf("msg: %v", err)
	}
	if strings.TrimSpace(out) != `{"success":true}` {
		t.Fatalf("output got=%q", out)
	}
	want := "swaymsg --raw -t subscribe -m [\"window\"]"
	if got := strings.Join(r.argv[0], " "); got != want {
		t.Fatalf("argv got=%q want=%q", got, want)
	}
}

func TestMsgRunCommandTypeOnSway(t *testing.T) {
	testlog.Start(t)
	r := &scriptedRunner{replies: map[string]string{"command": `[{"success":true}]`}}
	out, err := execute(t, r, "msg", "-t", "run_command", "-m", `"focus left"`)
	if err != nil {
		t.Fatalf("msg: %v", err)
	}
	if !strings.Contains(out, `"success":true`) {
		t.Fatalf("output got=%q", out)
	}
	want := `swaymsg --raw -t command -m "focus left"`
	if got := strings.Join(r.argv[0], " "); got != want {
		t.Fatalf("argv got=%q want=%q", got, want)
	}
}

func TestMsgRawRunCommandWithI3(t *testing.T) {
	testlog.Start(t)
	r := &scriptedRunner{replies: map[string]string{"run_command": `[{"success":true}]`}}
	if _, err := execute(t, r, "--provider", "i3", "msg", "[class=Firefox]", "focus"); err != nil {
		t.Fatalf("msg: %v", err)
	}
	if got := strings.Join(r.argv[0], " "); got != "i3-msg [class=Firefox] focus" {
		t.Fatalf("argv got=%q", got)
	}
}

func TestMsgRejectsBadInput(t *testing.T) {
	testlog.Start(t)
	r := &scriptedRunner{}
	if _, err := execute(t, r, "msg", "-t", "get_everything"); err == nil {
		t.Fatalf("expected unknown command error")
	}
	if _, err := execute(t, r, "msg", "-t", "subscribe", "-m", "[window"); err == nil {
		t.Fatalf("expected invalid JSON error")
	}
	if len(r.argv) != 0 {
		t.Fatalf("nothing should have been spawned, got %v", r.argv)
	}
}

func TestTreeAndFocused(t *testing.T) {
	testlog.Start(t)
	r := &scriptedRunner{replies: map[string]string{"get_tree": treeReply}}

	out, err := execute(t, r, "tree", "--content")
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "term") {
		t.Fatalf("unexpected tree output:\n%s", out)
	}

	out, err = execute(t, r, "focused")
	if err != nil {
		t.Fatalf("focused: %v", err)
	}
	var node struct {
		ID    int64  `json:"id"`
		AppID string `json:"app_id"`
	}
	if err := json.Unmarshal([]byte(out), &node); err != nil {
		t.Fatalf("focused output is not JSON: %v\n%s", err, out)
	}
	if node.ID != 4 || node.AppID != "foot" {
		t.Fatalf("focused got=%+v", node)
	}
}

func TestFocusedYAML(t *testing.T) {
	testlog.Start(t)
	r := &scriptedRunner{replies: map[string]string{"get_tree": treeReply}}
	out, err := execute(t, r, "focused", "--format", "yaml")
	if err != nil {
		t.Fatalf("focused: %v", err)
	}
	if !strings.Contains(out, "id: 4\n") || !strings.Contains(out, "appid: foot\n") {
		t.Fatalf("unexpected yaml:\n%s", out)
	}
	if _, err := execute(t, r, "focused", "--format", "xml"); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestUnknownProviderFails(t *testing.T) {
	testlog.Start(t)
	if _, err := execute(t, &scriptedRunner{}, "--provider", "xmonad", "tree"); err == nil {
		t.Fatalf("expected provider error")
	}
}

func TestWatchStopWithoutWatcher(t *testing.T) {
	testlog.Start(t)
	cfgDir := t.TempDir()
	lock := filepath.Join(cfgDir, "watch.pid")
	cfgPath := filepath.Join(cfgDir, "config.toml")
	if err := os.WriteFile(cfgPath, []byte("lock_file = \""+lock+"\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := execute(t, &scriptedRunner{}, "--config", cfgPath, "watch", "stop"); err != nil {
		t.Fatalf("watch stop: %v", err)
	}
}

func TestRunReportsErrorsAsExitCode(t *testing.T) {
	testlog.Start(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var stdout, stderr bytes.Buffer
	if code := run([]string{"msg", "-t", "nope"}, &stdout, &stderr); code != 1 {
		t.Fatalf("exit code got=%d want=1", code)
	}
	if !strings.Contains(stderr.String(), "swayctl:") {
		t.Fatalf("stderr got=%q", stderr.String())
	}
}
