package aerialqc

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// touch creates an empty file at dir/rel, creating parents as needed.
func touch(t *testing.T, dir, rel string) string {
	t.Helper()
	p := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestIsImageFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"DJI_0001.JPG", true},
		{"a.jpeg", true},
		{"a.Png", true},
		{"raw.DNG", true},
		{"scan.tiff", true},
		{"scan.tif", false},
		{"clip.mp4", false},
		{"notes.txt", false},
		{"jpg", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := IsImageFile(tc.name); got != tc.want {
			t.Errorf("IsImageFile(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCollectImages(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	a := touch(t, base, "A.JPG")
	b := touch(t, base, "b.png")
	touch(t, base, "notes.txt")
	touch(t, base, "sorting_log.txt")
	touch(t, base, filepath.Join(DefaultGoodDir, "old.jpg"))
	touch(t, base, filepath.Join(DefaultBadDir, "older.jpg"))
	nested := touch(t, base, filepath.Join("flight2", "c.dng"))
	if err := os.Mkdir(filepath.Join(base, "dir.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}

	good := filepath.Join(base, DefaultGoodDir)
	bad := filepath.Join(base, DefaultBadDir)

	tests := []struct {
		name      string
		recursive bool
		want      []string
	}{
		{name: "top level only", recursive: false, want: []string{a, b}},
		{name: "recursive skips destinations", recursive: true, want: []string{a, b, nested}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := CollectImages(base, tc.recursive, good, bad)
			if err != nil {
				t.Fatalf("CollectImages error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("CollectImages() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCollectImages_MissingDir(t *testing.T) {
	t.Parallel()

	if _, err := CollectImages(filepath.Join(t.TempDir(), "nope"), false); err == nil {
		t.Error("CollectImages on a missing directory should fail")
	}
}

func TestIsWithin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path, dir string
		want      bool
	}{
		{"/data/_GOOD_IMAGES", "/data/_GOOD_IMAGES", true},
		{"/data/_GOOD_IMAGES/x.jpg", "/data/_GOOD_IMAGES", true},
		{"/data/_GOOD_IMAGES_old/x.jpg", "/data/_GOOD_IMAGES", false},
		{"/data/x.jpg", "/data/_GOOD_IMAGES", false},
		{"/data/..foo/x.jpg", "/data", true},
		{"/data/x.jpg", "", false},
	}
	for _, tc := range tests {
		if got := isWithin(filepath.FromSlash(tc.path), filepath.FromSlash(tc.dir)); got != tc.want {
			t.Errorf("isWithin(%q, %q) = %v, want %v", tc.path, tc.dir, got, tc.want)
		}
	}
}
