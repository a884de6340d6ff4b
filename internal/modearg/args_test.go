package modearg

import "testing"

func TestParseDefaultIsDaemon(t *testing.T) {
	p, err := Parse(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Mode != ModeDaemon {
		t.Errorf("Mode = %v, want ModeDaemon", p.Mode)
	}
	if p.CacheDir != "" {
		t.Errorf("CacheDir = %q, want empty", p.CacheDir)
	}
}

func TestParseModeFlags(t *testing.T) {
	cases := []struct {
		args []string
		want Mode
	}{
		{[]string{"--oneshot"}, ModeOneshot},
		{[]string{"--get-clipboard"}, ModeGetClipboard},
		{[]string{"--copy-clipboard"}, ModeCopyClipboard},
		{[]string{"--clear-primary"}, ModeClearPrimary},
		{[]string{"--help"}, ModeHelp},
		{[]string{"-h"}, ModeHelp},
	}
	for _, c := range cases {
		p, err := Parse(c.args)
		if err != nil {
			t.Fatalf("Parse(%v): unexpected error: %v", c.args, err)
		}
		if p.Mode != c.want {
			t.Errorf("Parse(%v).Mode = %v, want %v", c.args, p.Mode, c.want)
		}
	}
}

func TestParseCacheDirOverride(t *testing.T) {
	p, err := Parse([]string{"/tmp/somewhere", "--oneshot"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CacheDir != "/tmp/somewhere" {
		t.Errorf("CacheDir = %q, want /tmp/somewhere", p.CacheDir)
	}
	if p.Mode != ModeOneshot {
		t.Errorf("Mode = %v, want ModeOneshot", p.Mode)
	}
}

func TestParseLastModeWins(t *testing.T) {
	p, err := Parse([]string{"--oneshot", "--clear-primary"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Mode != ModeClearPrimary {
		t.Errorf("Mode = %v, want ModeClearPrimary (last flag wins)", p.Mode)
	}
}

func TestParseInternalDaemonFlag(t *testing.T) {
	p, err := Parse([]string{"--internal-daemon"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.InternalDaemon {
		t.Error("InternalDaemon = false, want true")
	}
	if p.Mode != ModeDaemon {
		t.Errorf("Mode = %v, want ModeDaemon", p.Mode)
	}
}

func TestParseInternalFlagRequiresPayload(t *testing.T) {
	if _, err := Parse([]string{"--internal-copy-serve"}); err == nil {
		t.Error("expected error when --internal-copy-serve has no payload path")
	}

	p, err := Parse([]string{"--internal-copy-serve", "/tmp/payload"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Internal || p.PayloadPath != "/tmp/payload" {
		t.Errorf("got Internal=%v PayloadPath=%q, want true /tmp/payload", p.Internal, p.PayloadPath)
	}
}
