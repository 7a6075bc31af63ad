package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestTrack_CopiesUpstreamIntoOverrides(t *testing.T) {
	eng, fs, _, _ := newTestEngine(t)
	seedUpstream(fs, map[string]string{"src/pages/Lead.vue": "<template/>"})

	result, err := eng.Track(context.Background(), &TrackRequest{
		Paths: []string{"src/pages/Lead.vue"},
	})
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	if !reflect.DeepEqual(result.Tracked, []string{"src/pages/Lead.vue"}) {
		t.Errorf("Tracked = %v", result.Tracked)
	}
	content, err := fs.ReadFile(testOverrides + "/src/pages/Lead.vue")
	if err != nil {
		t.Fatalf("override file missing: %v", err)
	}
	if string(content) != "<template/>" {
		t.Errorf("override content = %q", content)
	}
}

func TestTrack_ReportsMissingUpstreamFiles(t *testing.T) {
	eng, fs, _, _ := newTestEngine(t)
	seedUpstream(fs, map[string]string{"a.txt": "1"})

	result, err := eng.Track(context.Background(), &TrackRequest{
		Paths: []string{"a.txt", "no-such.txt"},
	})
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	if !reflect.DeepEqual(result.Tracked, []string{"a.txt"}) {
		t.Errorf("Tracked = %v", result.Tracked)
	}
	if !reflect.DeepEqual(result.Missing, []string{"no-such.txt"}) {
		t.Errorf("Missing = %v", result.Missing)
	}
}

func TestTrack_SkipsExistingOverrides(t *testing.T) {
	eng, fs, _, _ := newTestEngine(t)
	seedUpstream(fs, map[string]string{"a.txt": "upstream"})
	seedOverrides(fs, map[string]string{"a.txt": "custom"})

	result, err := eng.Track(context.Background(), &TrackRequest{
		Paths: []string{"a.txt"},
	})
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	if !reflect.DeepEqual(result.Skipped, []string{"a.txt"}) {
		t.Errorf("Skipped = %v", result.Skipped)
	}

	// The customized override is untouched.
	content, _ := fs.ReadFile(testOverrides + "/a.txt")
	if string(content) != "custom" {
		t.Errorf("override content = %q, want %q", content, "custom")
	}
}

func TestTrack_ForceOverwritesOverride(t *testing.T) {
	eng, fs, _, _ := newTestEngine(t)
	seedUpstream(fs, map[string]string{"a.txt": "upstream"})
	seedOverrides(fs, map[string]string{"a.txt": "custom"})

	result, err := eng.Track(context.Background(), &TrackRequest{
		Paths: []string{"a.txt"},
		Force: true,
	})
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	if !reflect.DeepEqual(result.Tracked, []string{"a.txt"}) {
		t.Errorf("Tracked = %v", result.Tracked)
	}
	content, _ := fs.ReadFile(testOverrides + "/a.txt")
	if string(content) != "upstream" {
		t.Errorf("override content = %q, want %q", content, "upstream")
	}
}

func TestTrack_RejectsDirectories(t *testing.T) {
	eng, fs, _, _ := newTestEngine(t)
	seedUpstream(fs, map[string]string{"src/a.txt": "1"})

	_, err := eng.Track(context.Background(), &TrackRequest{Paths: []string{"src"}})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for a directory, got %v", err)
	}
}

func TestTrack_RejectsUnsafePaths(t *testing.T) {
	eng, fs, _, _ := newTestEngine(t)
	seedUpstream(fs, map[string]string{"a.txt": "1"})

	tests := []string{"../escape.txt", "/etc/passwd", "."}
	for _, path := range tests {
		if _, err := eng.Track(context.Background(), &TrackRequest{Paths: []string{path}}); !errors.Is(err, ErrValidation) {
			t.Errorf("Track(%q): expected ErrValidation, got %v", path, err)
		}
	}
}

func TestTrack_RejectsEmptyRequest(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)

	if _, err := eng.Track(context.Background(), &TrackRequest{}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestUntrack_RemovesOverride(t *testing.T) {
	eng, fs, _, _ := newTestEngine(t)
	seedOverrides(fs, map[string]string{"a.txt": "custom", "b.txt": "keep"})

	result, err := eng.Untrack(context.Background(), &UntrackRequest{
		Paths: []string{"a.txt", "never-tracked.txt"},
	})
	if err != nil {
		t.Fatalf("Untrack failed: %v", err)
	}

	if !reflect.DeepEqual(result.Removed, []string{"a.txt"}) {
		t.Errorf("Removed = %v", result.Removed)
	}
	if !reflect.DeepEqual(result.NotFound, []string{"never-tracked.txt"}) {
		t.Errorf("NotFound = %v", result.NotFound)
	}

	if _, err := fs.ReadFile(testOverrides + "/a.txt"); err == nil {
		t.Error("expected a.txt to be removed from the override tree")
	}
	if _, err := fs.ReadFile(testOverrides + "/b.txt"); err != nil {
		t.Error("expected b.txt to survive")
	}
}
