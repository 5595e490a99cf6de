package overlay

import (
	"testing"
	"time"

	"clipreel/internal/testsupport"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"morning single digit hour", time.Date(2024, time.January, 5, 9, 7, 0, 0, time.Local), "January 05, 2024 at 9:07am"},
		{"afternoon", time.Date(2024, time.November, 23, 15, 30, 59, 0, time.Local), "November 23, 2024 at 3:30pm"},
		{"midnight", time.Date(2023, time.December, 31, 0, 0, 0, 0, time.Local), "December 31, 2023 at 12:00am"},
		{"noon", time.Date(2025, time.July, 4, 12, 5, 0, 0, time.Local), "July 04, 2025 at 12:05pm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimestamp(tt.in); got != tt.want {
				t.Fatalf("FormatTimestamp() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatTimestampUsesLocalTime(t *testing.T) {
	in := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	if got, want := FormatTimestamp(in), in.Local().Format(Layout); got != want {
		t.Fatalf("FormatTimestamp() = %q, want %q", got, want)
	}
}

func TestEscapeDrawtext(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"January 05, 2024 at 9:07am", `January 05\, 2024 at 9\\:07am`},
		{"Tom's clip", `Tom\\\'s clip`},
		{`back\slash`, `back\\\\\\\\slash`},
		{"100%", `100\\\\%`},
		{"[x];y", `\[x\]\;y`},
		{" lead", `\\ lead`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := EscapeDrawtext(tt.in); got != tt.want {
			t.Errorf("EscapeDrawtext(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeDrawtextSurvivesFFmpegUnescaping(t *testing.T) {
	captions := []string{
		"Nick's January 05, 2024 at 9:07am",
		`Recorded: 'quoted' \ back\'slash`,
		"100% [done]; a,b:c",
		"  padded  ",
		"%{localtime}",
		"Café at 9:07pm",
	}
	for _, caption := range captions {
		filter := "drawtext=text=" + EscapeDrawtext(caption) + ":x=100:y=100"
		_, opts, err := testsupport.ParseFilterOptions(filter)
		if err != nil {
			t.Fatalf("%q: %v (filter %q)", caption, err, filter)
		}
		if opts["x"] != "100" || opts["y"] != "100" {
			t.Fatalf("%q: options after text were swallowed: %q", caption, opts)
		}
		got, err := testsupport.ExpandDrawtext(opts["text"])
		if err != nil {
			t.Fatalf("%q: %v", caption, err)
		}
		if got != caption {
			t.Errorf("rendered caption = %q, want %q", got, caption)
		}
	}
}

func TestEscapeFilterValue(t *testing.T) {
	path := `C:\Fonts\it's a,b.ttf`
	got := EscapeFilterValue(path)
	if want := `C\\:\\\\Fonts\\\\it\\\'s a\,b.ttf`; got != want {
		t.Fatalf("EscapeFilterValue = %q, want %q", got, want)
	}
	_, opts, err := testsupport.ParseFilterOptions("drawtext=fontfile=" + got + ":text=hi")
	if err != nil {
		t.Fatal(err)
	}
	if opts["fontfile"] != path || opts["text"] != "hi" {
		t.Fatalf("parsed options = %q", opts)
	}
}

func TestText(t *testing.T) {
	ts := time.Date(2024, time.January, 5, 9, 7, 0, 0, time.Local)
	if got := Text(ts, "Recorded: "); got != "Recorded: January 05, 2024 at 9:07am" {
		t.Fatalf("Text() = %q", got)
	}
	if got := Text(ts, ""); got != "January 05, 2024 at 9:07am" {
		t.Fatalf("Text() without prefix = %q", got)
	}
}
