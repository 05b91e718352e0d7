package store

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocationDeterministic(t *testing.T) {
	uri := "https://example.com/feed.xml?page=2#frag"
	if Location("/cache", uri) != Location("/cache", uri) {
		t.Fatal("same URI mapped to different locations")
	}
}

func TestLocationDistinctForNearIdenticalURIs(t *testing.T) {
	seen := make(map[string]string)
	for i := 0; i < 2000; i++ {
		for _, uri := range []string{
			fmt.Sprintf("https://example.com/data?page=%d", i),
			fmt.Sprintf("https://example.com/data?page=%d&sort=asc", i),
			fmt.Sprintf("https://example.com/data#%d", i),
		} {
			loc := Location("/cache", uri)
			if prev, ok := seen[loc]; ok {
				t.Fatalf("collision: %q and %q both map to %s", prev, uri, loc)
			}
			seen[loc] = uri
		}
	}
}

func TestLocationStaysInsideDir(t *testing.T) {
	for _, uri := range []string{
		"https://example.com/../../etc/passwd",
		"https://example.com/a/b/../../..",
		"https://example.com/päivä/ö?q=/../x",
		"https://example.com//",
	} {
		loc := Location("/cache", uri)
		if filepath.Dir(loc) != "/cache" {
			t.Fatalf("location for %q escaped the cache dir: %s", uri, loc)
		}
		if strings.ContainsAny(filepath.Base(loc), "/\\") {
			t.Fatalf("location for %q contains a separator: %s", uri, loc)
		}
	}
}
