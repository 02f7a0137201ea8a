package output

import (
	"errors"
	"testing"

	"github.com/nerrad567/gray-switch/internal/bridgecfg"
	"github.com/nerrad567/gray-switch/internal/gpio"
)

func testOutputs() []bridgecfg.Output {
	return []bridgecfg.Output{
		{ID: "relay1", Chip: "gpiochip0", Pin: 4},
		{ID: "relay2", Chip: "gpiochip0", Pin: 17},
		{ID: "pump", Chip: "gpiochip1", Pin: 2},
	}
}

func TestRegistry_AcquireAll(t *testing.T) {
	opener := gpio.NewMemOpener()
	reg := NewRegistry(opener, testOutputs())

	if err := reg.AcquireAll(); err != nil {
		t.Fatalf("AcquireAll() error = %v", err)
	}

	// Every line is driven low at acquisition, before any message arrives.
	for _, want := range []struct {
		chip string
		pin  int
	}{
		{"gpiochip0", 4},
		{"gpiochip0", 17},
		{"gpiochip1", 2},
	} {
		v, ok := opener.Value(want.chip, want.pin)
		if !ok {
			t.Errorf("line %s:%d not requested", want.chip, want.pin)
			continue
		}
		if v != 0 {
			t.Errorf("line %s:%d initial value = %d, want 0", want.chip, want.pin, v)
		}
	}
}

func TestRegistry_AcquireAll_Twice(t *testing.T) {
	reg := NewRegistry(gpio.NewMemOpener(), testOutputs())
	if err := reg.AcquireAll(); err != nil {
		t.Fatalf("AcquireAll() error = %v", err)
	}
	if err := reg.AcquireAll(); err == nil {
		t.Error("second AcquireAll() error = nil, want error")
	}
}

func TestRegistry_AcquireAll_PartialFailureReleases(t *testing.T) {
	opener := gpio.NewMemOpener()
	opener.OpenErrs["gpiochip1"] = errors.New("no such device")
	reg := NewRegistry(opener, testOutputs())

	if err := reg.AcquireAll(); err == nil {
		t.Fatal("AcquireAll() error = nil, want error for failing chip")
	}

	// The two lines acquired before the failure must have been released.
	if _, ok := opener.Value("gpiochip0", 4); ok {
		t.Error("line gpiochip0:4 still held after failed acquisition")
	}
	if _, ok := opener.Value("gpiochip0", 17); ok {
		t.Error("line gpiochip0:17 still held after failed acquisition")
	}
}

func TestRegistry_Drive(t *testing.T) {
	opener := gpio.NewMemOpener()
	reg := NewRegistry(opener, testOutputs())
	if err := reg.AcquireAll(); err != nil {
		t.Fatalf("AcquireAll() error = %v", err)
	}

	e := reg.Entries()[0]
	if err := reg.Drive(e, 1); err != nil {
		t.Fatalf("Drive() error = %v", err)
	}
	if v, _ := opener.Value("gpiochip0", 4); v != 1 {
		t.Errorf("value after Drive(1) = %d, want 1", v)
	}

	if err := reg.Drive(e, 0); err != nil {
		t.Fatalf("Drive() error = %v", err)
	}
	if v, _ := opener.Value("gpiochip0", 4); v != 0 {
		t.Errorf("value after Drive(0) = %d, want 0", v)
	}
}

func TestRegistry_Drive_NotAcquired(t *testing.T) {
	reg := NewRegistry(gpio.NewMemOpener(), testOutputs())
	if err := reg.Drive(reg.Entries()[0], 1); err == nil {
		t.Error("Drive() before AcquireAll error = nil, want error")
	}
}

func TestRegistry_Drive_WriteError(t *testing.T) {
	opener := gpio.NewMemOpener()
	reg := NewRegistry(opener, testOutputs())
	if err := reg.AcquireAll(); err != nil {
		t.Fatalf("AcquireAll() error = %v", err)
	}

	opener.SetErr = errors.New("io error")
	if err := reg.Drive(reg.Entries()[0], 1); err == nil {
		t.Error("Drive() with failing line error = nil, want error")
	}
}

func TestRegistry_ReleaseAll_Idempotent(t *testing.T) {
	opener := gpio.NewMemOpener()
	reg := NewRegistry(opener, testOutputs())
	if err := reg.AcquireAll(); err != nil {
		t.Fatalf("AcquireAll() error = %v", err)
	}

	// A second release must not double-close; MemLine reports that as an
	// error and the registry logs it, so just verify the lines are gone
	// and the call is safe to repeat.
	reg.ReleaseAll()
	reg.ReleaseAll()

	if _, ok := opener.Value("gpiochip0", 4); ok {
		t.Error("line gpiochip0:4 still held after ReleaseAll")
	}
}

func TestRegistry_MatchPrefix(t *testing.T) {
	reg := NewRegistry(gpio.NewMemOpener(), []bridgecfg.Output{
		{ID: "X", Chip: "gpiochip0", Pin: 1},
		{ID: "XY", Chip: "gpiochip0", Pin: 2},
		{ID: "Y", Chip: "gpiochip0", Pin: 3},
	})

	matched := reg.MatchPrefix("X")
	if len(matched) != 2 {
		t.Fatalf("MatchPrefix(X) matched %d entries, want 2", len(matched))
	}
	if matched[0].ID != "X" || matched[1].ID != "XY" {
		t.Errorf("MatchPrefix(X) = [%s %s], want [X XY]", matched[0].ID, matched[1].ID)
	}

	if got := reg.MatchPrefix("Y"); len(got) != 1 || got[0].ID != "Y" {
		t.Errorf("MatchPrefix(Y) = %d entries, want exactly Y", len(got))
	}

	if got := reg.MatchPrefix("Z"); len(got) != 0 {
		t.Errorf("MatchPrefix(Z) matched %d entries, want 0", len(got))
	}
}
