package ui

import (
	"testing"

	"github.com/five82/simdeck/internal/logtail"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	want := []string{"Nightfox", "Kanagawa", "Slate"}
	if len(names) != len(want) {
		t.Fatalf("ThemeNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("ThemeNames() = %v, want %v", names, want)
		}
	}
}

func TestNextTheme(t *testing.T) {
	tests := []struct {
		current string
		want    string
	}{
		{"Nightfox", "Kanagawa"},
		{"Kanagawa", "Slate"},
		{"Slate", "Nightfox"},
		{"Unknown", "Nightfox"},
	}
	for _, tt := range tests {
		if got := NextTheme(tt.current); got != tt.want {
			t.Fatalf("NextTheme(%s) = %q, want %q", tt.current, got, tt.want)
		}
	}
}

func TestGetTheme(t *testing.T) {
	for _, name := range ThemeNames() {
		if got := GetTheme(name).Name; got != name {
			t.Fatalf("GetTheme(%s).Name = %q, want %q", name, got, name)
		}
	}
	if got := GetTheme("Unknown").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Unknown).Name = %q, want Nightfox (fallback)", got)
	}
}

func TestLevelStyle(t *testing.T) {
	th := GetTheme("Slate")
	styles := th.Styles()

	if got := styles.LevelStyle(logtail.LevelError).GetForeground(); got != styles.DangerText.GetForeground() {
		t.Fatalf("LevelStyle(error) foreground = %v, want %v", got, styles.DangerText.GetForeground())
	}
	if got := styles.LevelStyle(logtail.LevelWarn).GetForeground(); got != styles.WarningText.GetForeground() {
		t.Fatalf("LevelStyle(warn) foreground = %v, want %v", got, styles.WarningText.GetForeground())
	}
	if got := styles.LevelStyle(logtail.LevelInfo).GetForeground(); got != styles.Text.GetForeground() {
		t.Fatalf("LevelStyle(info) foreground = %v, want %v", got, styles.Text.GetForeground())
	}
}
