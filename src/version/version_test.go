package version

import (
	"regexp"
	"testing"
)

func TestVersionFormat(t *testing.T) {
	if !regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z]+)*$`).MatchString(Version) {
		t.Fatalf("malformed version %q", Version)
	}
}
