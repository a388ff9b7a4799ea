package workflow

import (
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// RepositoryEvent is a source control event that may fire workflow triggers.
// Branch and Tag are empty when not applicable.
type RepositoryEvent struct {
	Type   string
	Branch string
	Tag    string
}

// Matches reports whether the trigger fires for ev. An empty filter matches
// everything; ignore patterns win over include patterns. A trigger that only
// filters tags ignores branch events, and one that only filters branches
// ignores tag events.
func (t TriggerSpec) Matches(ev RepositoryEvent) bool {
	if len(t.Events) > 0 && !slices.Contains(t.Events, ev.Type) {
		return false
	}
	if ev.Branch != "" {
		if len(t.Branches) == 0 && len(t.Tags) > 0 {
			return false
		}
		if len(t.Branches) > 0 && !matchAny(t.Branches, ev.Branch) {
			return false
		}
		if matchAny(t.IgnoreBranches, ev.Branch) {
			return false
		}
	}
	if ev.Tag != "" {
		if len(t.Tags) == 0 && len(t.Branches) > 0 {
			return false
		}
		if len(t.Tags) > 0 && !matchAny(t.Tags, ev.Tag) {
			return false
		}
		if matchAny(t.IgnoreTags, ev.Tag) {
			return false
		}
	}
	return true
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
