package imaging

import "testing"

func TestLookup(t *testing.T) {
	cases := []struct {
		name       string
		want       string
		advertised bool
		wholeSlide bool
	}{
		{"slide.SVS", "image/x-aperio-svs", true, true},
		{"scan.ndpi", "image/x-hamamatsu-ndpi", true, true},
		{"tile.jpeg", "image/jpeg", true, false},
		{"tile.TIF", "image/tiff", true, false},
		{"notes.txt", DefaultContentType, false, false},
		{"noext", DefaultContentType, false, false},
	}
	for _, tc := range cases {
		f, ok := Lookup(tc.name)
		if ok != tc.advertised || f.ContentType != tc.want || f.WholeSlide != tc.wholeSlide {
			t.Fatalf("Lookup(%q) = %+v, %v", tc.name, f, ok)
		}
	}
}

func TestAcceptAttribute(t *testing.T) {
	want := "image/png,image/jpeg,image/tiff,.svs,.ndpi"
	if got := AcceptAttribute(); got != want {
		t.Fatalf("AcceptAttribute() = %q, want %q", got, want)
	}
}
