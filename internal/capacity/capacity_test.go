package capacity

import (
	"errors"
	"testing"

	"flacmirror/internal/services"
)

func withStatfs(t *testing.T, free int64, err error) {
	t.Helper()
	previous := statfs
	statfs = func(string) (int64, error) { return free, err }
	t.Cleanup(func() { statfs = previous })
}

func TestPlanSufficientSpace(t *testing.T) {
	withStatfs(t, 1<<30, nil)

	est, err := Plan("/dst", 1<<30, 0.40, 0.10)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	// 1 GiB * 0.40 * 1.10
	input := int64(1 << 30)
	want := int64(float64(input) * 0.40 * (1 + 0.10))
	if est.RequiredBytes != want {
		t.Fatalf("required = %d, want %d", est.RequiredBytes, want)
	}
}

func TestPlanInsufficientSpace(t *testing.T) {
	withStatfs(t, 1024, nil)

	_, err := Plan("/dst", 1<<30, 0.40, 0.10)
	if err == nil {
		t.Fatal("expected insufficient space error")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected fatal configuration marker, got %v", err)
	}
}

func TestPlanStatfsFailure(t *testing.T) {
	withStatfs(t, 0, errors.New("no such device"))

	if _, err := Plan("/dst", 1024, 0.40, 0.10); err == nil {
		t.Fatal("expected error when statfs fails")
	}
}

func TestPlanZeroInput(t *testing.T) {
	withStatfs(t, 0, nil)

	if _, err := Plan("/dst", 0, 0.40, 0.10); err != nil {
		t.Fatalf("zero input should always fit: %v", err)
	}
}

func TestPlanRealFilesystem(t *testing.T) {
	// Exercise the real statfs path against the test temp dir.
	if _, err := Plan(t.TempDir(), 0, 0.40, 0.10); err != nil {
		t.Fatalf("Plan on temp dir: %v", err)
	}
}
