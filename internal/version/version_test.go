package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet_UsesLdflags(t *testing.T) {
	defer func(v, c, b string) { Version, Commit, BuildTime = v, c, b }(Version, Commit, BuildTime)
	Version, Commit, BuildTime = "1.2.3", "abc1234", "2025-08-20T01:02:03Z"

	got := Get()
	if got.Version != "1.2.3" || got.Commit != "abc1234" || got.BuildTime != "2025-08-20T01:02:03Z" {
		t.Errorf("Get() = %+v", got)
	}
	if got.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", got.GoVersion, runtime.Version())
	}
}

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, Version+" (") {
		t.Errorf("String() = %q", s)
	}
	if !strings.Contains(s, "built") {
		t.Errorf("String() = %q, want build time", s)
	}
}
