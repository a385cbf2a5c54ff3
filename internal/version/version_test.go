package version

import "testing"

func TestString(t *testing.T) {
	old := [3]string{Version, Commit, Date}
	defer func() { Version, Commit, Date = old[0], old[1], old[2] }()

	Version, Commit, Date = "1.2.0", "abc123", "2026-01-02"
	if got, want := String(), "1.2.0 (commit abc123, built 2026-01-02)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
