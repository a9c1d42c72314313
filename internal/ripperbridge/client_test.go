package ripperbridge

import (
	"context"
	"testing"
)

type fakeExecutor struct {
	lines []string
}

func (f fakeExecutor) Run(_ context.Context, _ string, _ []string, onLine func(string)) error {
	for _, l := range f.lines {
		onLine(l)
	}
	return nil
}

func TestClientRipCollectsOutputFilesAndProgress(t *testing.T) {
	lines := []string{
		`TCOUT:1`,
		`TINFO:0,26,0,"title00.mkv"`,
		`PRGV:100,200,200`,
		`PRGV:200,200,200`,
	}
	c, err := New("makemkvcon", WithExecutor(fakeExecutor{lines: lines}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var percents []float64
	result, err := c.Rip(context.Background(), "/dev/sr0", "/tmp/dest", nil, func(p Progress) {
		if p.Title == "" {
			percents = append(percents, p.Percent)
		}
	}, nil)
	if err != nil {
		t.Fatalf("Rip: %v", err)
	}
	if result.TitleCount != 1 {
		t.Errorf("TitleCount = %d, want 1", result.TitleCount)
	}
	if len(result.OutputFiles) != 1 || result.OutputFiles[0] != "title00.mkv" {
		t.Errorf("OutputFiles = %v", result.OutputFiles)
	}
	if len(percents) != 2 || percents[1] != 100 {
		t.Errorf("percents = %v", percents)
	}
}

func TestNormalizeDeviceArg(t *testing.T) {
	cases := map[string]string{
		"":          "disc:0",
		"/dev/sr0":  "dev:/dev/sr0",
		"dev:/x":    "dev:/x",
		"disc:2":    "disc:2",
		"something": "something",
	}
	for in, want := range cases {
		if got := normalizeDeviceArg(in); got != want {
			t.Errorf("normalizeDeviceArg(%q) = %q, want %q", in, got, want)
		}
	}
}
