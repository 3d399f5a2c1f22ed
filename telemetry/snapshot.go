package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/maunakea/geom"
	"github.com/pthm-cable/maunakea/player"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot records the character state at the end of a run so a replay of
// the written inputs can be checked against it.
type Snapshot struct {
	Version     int    `json:"version"`
	Fingerprint uint64 `json:"fingerprint"` // world the run was made in
	Frame       int    `json:"frame"`
	Status      string `json:"status"`

	X         int32      `json:"x"`
	Y         int32      `json:"y"`
	Remainder geom.Point `json:"remainder"`
	Speed     geom.Point `json:"speed"`

	RetainValue float32 `json:"retain_value"`
	RetainTTL   int     `json:"retain_ttl"`
}

// CaptureSnapshot records st after frame simulated frames.
func CaptureSnapshot(st *player.State, fingerprint uint64, frame int, status string) *Snapshot {
	return &Snapshot{
		Version:     SnapshotVersion,
		Fingerprint: fingerprint,
		Frame:       frame,
		Status:      status,
		X:           st.X,
		Y:           st.Y,
		Remainder:   st.Remainder,
		Speed:       st.Speed,
		RetainValue: st.Retain.Value(),
		RetainTTL:   st.Retain.TTL(),
	}
}

// Mismatch compares st with the recorded state and describes the first
// difference, or returns "" when they agree exactly.
func (s *Snapshot) Mismatch(st *player.State) string {
	switch {
	case st.X != s.X || st.Y != s.Y:
		return fmt.Sprintf("cell (%d, %d), recorded (%d, %d)", st.X, st.Y, s.X, s.Y)
	case st.Remainder != s.Remainder:
		return fmt.Sprintf("remainder %v, recorded %v", st.Remainder, s.Remainder)
	case st.Speed != s.Speed:
		return fmt.Sprintf("speed %v, recorded %v", st.Speed, s.Speed)
	case st.Retain.TTL() != s.RetainTTL || st.Retain.Value() != s.RetainValue:
		return fmt.Sprintf("retention %g/%d, recorded %g/%d",
			st.Retain.Value(), st.Retain.TTL(), s.RetainValue, s.RetainTTL)
	}
	return ""
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Frame))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
