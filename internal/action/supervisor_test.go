package action

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gray-switch/internal/bridgecfg"
)

// writeScript drops an executable shell script into a temp dir.
func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

// newTestSupervisor builds a checked registry and supervisor over the
// given actions, collecting every transition for inspection.
func newTestSupervisor(t *testing.T, actions []bridgecfg.Action, timeout time.Duration) (*Registry, *Supervisor, *[]Transition) {
	t.Helper()
	reg := NewRegistry(actions)
	reg.CheckExecutables()
	sup := NewSupervisor(reg, timeout)

	var transitions []Transition
	sup.SetOnTransition(func(tr Transition) {
		transitions = append(transitions, tr)
	})
	return reg, sup, &transitions
}

// waitForState polls until the entry reaches want or the deadline passes.
func waitForState(t *testing.T, reg *Registry, e *Entry, want State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if state, _ := reg.StateOf(e); state == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	state, pid := reg.StateOf(e)
	t.Fatalf("state = %v (pid %d), want %v", state, pid, want)
}

func TestSupervisor_OneshotIdleBeforeApplyReturns(t *testing.T) {
	path := writeScript(t, "oneshot.sh", "exit 0\n")
	reg, sup, transitions := newTestSupervisor(t,
		[]bridgecfg.Action{{ID: "siren", Path: path, Oneshot: true}},
		5*time.Second,
	)
	e := reg.Entries()[0]

	sup.Apply(e, true)

	// The oneshot contract: reaped in-line, idle again by the time Apply
	// returns, with both transitions already observed.
	if state, _ := reg.StateOf(e); state != StateIdle {
		t.Errorf("state after Apply = %v, want idle", state)
	}
	if len(*transitions) != 2 {
		t.Fatalf("got %d transitions, want 2 (running then idle)", len(*transitions))
	}
	if (*transitions)[0].State != StateRunning || (*transitions)[1].State != StateIdle {
		t.Errorf("transitions = %v then %v, want running then idle",
			(*transitions)[0].State, (*transitions)[1].State)
	}
	if (*transitions)[1].ExitCode != 0 {
		t.Errorf("idle transition ExitCode = %d, want 0", (*transitions)[1].ExitCode)
	}
}

func TestSupervisor_DoubleAssertSingleSpawn(t *testing.T) {
	path := writeScript(t, "long.sh", "sleep 30\n")
	reg, sup, transitions := newTestSupervisor(t,
		[]bridgecfg.Action{{ID: "pump", Path: path}},
		5*time.Second,
	)
	e := reg.Entries()[0]

	sup.Apply(e, true)
	_, firstPID := reg.StateOf(e)
	if firstPID == 0 {
		t.Fatal("no pid tracked after first assert")
	}

	sup.Apply(e, true)

	state, pid := reg.StateOf(e)
	if state != StateRunning {
		t.Errorf("state after second assert = %v, want running", state)
	}
	if pid != firstPID {
		t.Errorf("pid after second assert = %d, want %d (no second spawn)", pid, firstPID)
	}
	if len(*transitions) != 1 {
		t.Errorf("got %d transitions, want 1 (second assert is a no-op)", len(*transitions))
	}

	sup.Apply(e, false)
	waitForState(t, reg, e, StateIdle)
}

func TestSupervisor_DeassertStopsRunningAction(t *testing.T) {
	path := writeScript(t, "long.sh", "sleep 30\n")
	reg, sup, _ := newTestSupervisor(t,
		[]bridgecfg.Action{{ID: "pump", Path: path}},
		5*time.Second,
	)
	e := reg.Entries()[0]

	sup.Apply(e, true)
	if state, _ := reg.StateOf(e); state != StateRunning {
		t.Fatalf("state after assert = %v, want running", state)
	}

	sup.Apply(e, false)
	if state, _ := reg.StateOf(e); state != StateIdle {
		t.Errorf("state after deassert = %v, want idle", state)
	}
}

func TestSupervisor_DeassertWhenIdleIsNoop(t *testing.T) {
	path := writeScript(t, "ok.sh", "exit 0\n")
	reg, sup, transitions := newTestSupervisor(t,
		[]bridgecfg.Action{{ID: "pump", Path: path}},
		5*time.Second,
	)
	e := reg.Entries()[0]

	sup.Apply(e, false)

	if state, _ := reg.StateOf(e); state != StateIdle {
		t.Errorf("state = %v, want idle", state)
	}
	if len(*transitions) != 0 {
		t.Errorf("got %d transitions, want 0", len(*transitions))
	}
}

func TestSupervisor_InvalidActionNeverSpawns(t *testing.T) {
	reg, sup, transitions := newTestSupervisor(t,
		[]bridgecfg.Action{{ID: "ghost", Path: "/nonexistent/binary"}},
		5*time.Second,
	)
	e := reg.Entries()[0]

	if e.Valid {
		t.Fatal("entry marked valid for nonexistent path")
	}

	sup.Apply(e, true)

	if state, _ := reg.StateOf(e); state != StateIdle {
		t.Errorf("state = %v, want idle", state)
	}
	if len(*transitions) != 0 {
		t.Errorf("got %d transitions, want 0", len(*transitions))
	}
}

func TestSupervisor_SelfExitReturnsToIdle(t *testing.T) {
	path := writeScript(t, "brief.sh", "sleep 0.1\n")
	reg, sup, _ := newTestSupervisor(t,
		[]bridgecfg.Action{{ID: "brief", Path: path}},
		5*time.Second,
	)
	e := reg.Entries()[0]

	sup.Apply(e, true)

	// Not oneshot, so the exit monitor reaps it in the background.
	waitForState(t, reg, e, StateIdle)
}

func TestSupervisor_SigkillEscalation(t *testing.T) {
	// The child ignores SIGTERM and keeps respawning sleeps, so only the
	// SIGKILL escalation can bring it down.
	path := writeScript(t, "stubborn.sh", "trap '' TERM\nwhile :; do sleep 1; done\n")
	reg, sup, _ := newTestSupervisor(t,
		[]bridgecfg.Action{{ID: "stubborn", Path: path}},
		300*time.Millisecond,
	)
	e := reg.Entries()[0]

	sup.Apply(e, true)
	if state, _ := reg.StateOf(e); state != StateRunning {
		t.Fatalf("state after assert = %v, want running", state)
	}

	sup.Apply(e, false)
	if state, _ := reg.StateOf(e); state != StateIdle {
		t.Errorf("state after escalated stop = %v, want idle", state)
	}
}
