package match

import "testing"

func TestCommonDir(t *testing.T) {
	cases := []struct {
		paths []string
		want  string
	}{
		{nil, ""},
		{[]string{"/mnt/restore/acc1/a.tif"}, "/mnt/restore/acc1"},
		{[]string{"/mnt/restore/acc1/a.tif", "/mnt/restore/acc1/sub/b.tif"}, "/mnt/restore/acc1"},
		{[]string{"/mnt/restore/acc1/a.tif", "/mnt/restore/acc10/b.tif"}, "/mnt/restore"},
		{[]string{"/a/x.tif", "/b/y.tif"}, "/"},
		{[]string{"rel/x.tif", "/abs/y.tif"}, ""},
	}
	for _, tc := range cases {
		if got := commonDir(tc.paths); got != tc.want {
			t.Fatalf("commonDir(%v) = %q, want %q", tc.paths, got, tc.want)
		}
	}
}

func TestWithin(t *testing.T) {
	cases := []struct {
		root, path string
		want       bool
	}{
		{"", "/anything", true},
		{"/", "/x/y", true},
		{"/mnt/acc1", "/mnt/acc1/a.tif", true},
		{"/mnt/acc1", "/mnt/acc10/a.tif", false},
		{"/mnt/acc1", "/mnt/acc1", true},
		{"/mnt/acc1", "/old/acc1/a.tif", false},
	}
	for _, tc := range cases {
		if got := within(tc.root, tc.path); got != tc.want {
			t.Fatalf("within(%q, %q) = %v", tc.root, tc.path, got)
		}
	}
}

func TestOptionsExclusion(t *testing.T) {
	opts := Options{Excludes: []string{"Thumbs.db", "*.tmp"}, HiddenPrefix: "."}
	cases := map[string]bool{
		"Thumbs.db":  true,
		"thumbs.db":  false,
		"scan.tmp":   true,
		".DS_Store":  true,
		"photo.tif":  false,
		"Thumbs.db2": false,
	}
	for name, want := range cases {
		if _, got := opts.exclusion(name); got != want {
			t.Fatalf("exclusion(%q) = %v, want %v", name, got, want)
		}
	}
	if _, hidden := (Options{}).exclusion(".hidden"); !hidden {
		t.Fatal("dot files stay hidden with an empty prefix")
	}
	extra := Options{HiddenPrefix: "~"}
	for _, name := range []string{"~lock.tif", ".hidden"} {
		if reason, hidden := extra.exclusion(name); !hidden || reason != "hidden file" {
			t.Fatalf("exclusion(%q) = %q, %v", name, reason, hidden)
		}
	}
	if _, hidden := extra.exclusion("photo~.tif"); hidden {
		t.Fatal("prefix only applies at the start of the name")
	}
}
