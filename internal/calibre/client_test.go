package calibre

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseAddedID(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		want   int
		ok     bool
	}{
		{
			name:   "single id",
			stdout: "Backing up metadata\nAdded book ids: 712\n",
			want:   712,
			ok:     true,
		},
		{
			name:   "multiple ids take the first",
			stdout: "Added book ids: 712, 713\n",
			want:   712,
			ok:     true,
		},
		{
			name:   "marker missing",
			stdout: "The following books were not added as they already exist\n",
			ok:     false,
		},
		{
			name:   "marker without a number",
			stdout: "Added book ids: \n",
			ok:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseAddedID(tt.stdout)
			if ok != tt.ok || got != tt.want {
				t.Errorf("parseAddedID() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		id    int
		want  []string
	}{
		{
			name: "single line",
			lines: []string{
				"id  formats",
				"12  [/books/Dune/Dune.epub, /books/Dune/Dune.mobi]",
			},
			id:   12,
			want: []string{"epub", "mobi"},
		},
		{
			name: "wrapped formats cell",
			lines: []string{
				"id  formats",
				"12  [/books/The Left Hand of Darkness.epub,",
				"    /books/The Left Hand of Darkness.azw]",
			},
			id:   12,
			want: []string{"epub", "azw"},
		},
		{
			name: "other records skipped",
			lines: []string{
				"7   [/books/Other.pdf]",
				"12  [/books/Dune.epub]",
				"19  [/books/Another.mobi]",
			},
			id:   12,
			want: []string{"epub"},
		},
		{
			name: "failure output",
			lines: []string{
				"Fail: could not open database",
			},
			id:   12,
			want: nil,
		},
		{
			name: "id absent",
			lines: []string{
				"7  [/books/Other.epub]",
			},
			id:   12,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(strings.Join(tt.lines, "\n"), tt.id)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseFormats() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseConvertOutput(t *testing.T) {
	stdout := strings.Join([]string{
		"1% Converting input to HTML...",
		"34% Running transforms...",
		"Output saved to /home/u/temp/Dune.mobi",
	}, "\n")
	got, ok := parseConvertOutput(stdout)
	if !ok || got != "/home/u/temp/Dune.mobi" {
		t.Errorf("parseConvertOutput() = (%q, %v), want path and true", got, ok)
	}

	if _, ok := parseConvertOutput("Conversion error: something broke"); ok {
		t.Error("parseConvertOutput() reported success without the marker")
	}
}
