package shared

import "testing"

func TestOpener(t *testing.T) {
	for _, goos := range []string{"darwin", "linux", "windows"} {
		cmd, err := opener(goos, "https://example.com/poster.jpg")
		if err != nil {
			t.Errorf("opener(%s) failed: %v", goos, err)
		}
		if cmd == nil || len(cmd.Args) == 0 {
			t.Errorf("opener(%s) returned no command", goos)
		}
	}

	if _, err := opener("plan9", "https://example.com"); err == nil {
		t.Error("expected error for unsupported platform")
	}
}
