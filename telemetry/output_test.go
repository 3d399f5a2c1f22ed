package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/maunakea/config"
	"github.com/pthm-cable/maunakea/player"
)

func TestOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatal(err)
	}
	if om != nil {
		t.Fatal("expected nil manager for empty dir")
	}
	// Every method must be a no-op on nil.
	if err := om.WriteGeneration(GenerationStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteInputs("f", nil, ""); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManager_HeaderOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for i := range 3 {
		if err := om.WriteFrame(FrameStats{Frame: i, Angle: "90.0", Outcome: "nothing"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "frames.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 rows:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "frame,angle,score") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Count(string(data), "frame,angle") != 1 {
		t.Error("header written more than once")
	}

	// Nothing was written to the other sinks, so their files never exist.
	if _, err := os.Stat(filepath.Join(dir, "generations.csv")); !os.IsNotExist(err) {
		t.Errorf("generations.csv should not exist, stat err = %v", err)
	}
}

func TestOutputManager_InputsAndConfig(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	inputs := []player.Angle{4200, 99300, 99300}
	if err := om.WriteInputs("f", inputs, "exhausted"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "inputs.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "# exhausted\n1,f,4.2\n2,f,99.3\n"; string(data) != want {
		t.Errorf("inputs.txt = %q, want %q", data, want)
	}

	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config snapshot does not load: %v", err)
	}
}
