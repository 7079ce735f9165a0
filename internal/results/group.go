package results

import (
	"math"
	"strings"
)

// Identity is the logical test key: suite path plus test name, compared
// exactly.
type Identity struct {
	Suite string
	Name  string
}

// String renders the identity as "<suite> -> <test>". The separator is
// dropped when the suite is already breadcrumb formatted.
func (id Identity) String() string {
	if id.Suite == "" {
		return id.Name
	}
	sep := " -> "
	if strings.HasSuffix(id.Suite, " -> ") || strings.HasSuffix(id.Suite, " › ") {
		sep = ""
	}
	return id.Suite + sep + id.Name
}

// Group holds all executions (retries) of one logical test.
type Group struct {
	Identity
	Executions []Execution
	Passes     int
	Fails      int
	Skipped    int
}

// GroupExecutions groups executions by identity. Groups are returned in
// first-seen order and executions keep file order within a group.
func GroupExecutions(executions []Execution) []*Group {
	var groups []*Group
	index := make(map[Identity]*Group)

	for _, exec := range executions {
		id := Identity{Suite: exec.Suite, Name: exec.Name}
		group, ok := index[id]
		if !ok {
			group = &Group{Identity: id}
			index[id] = group
			groups = append(groups, group)
		}
		group.Executions = append(group.Executions, exec)
		switch exec.Outcome {
		case Fail:
			group.Fails++
		case Skip:
			group.Skipped++
		default:
			group.Passes++
		}
	}

	return groups
}

// Classification of a group's outcomes across retries.
type Classification int

const (
	StablePass Classification = iota
	StableFail
	Flaky
	Skipped
)

func (c Classification) String() string {
	switch c {
	case StableFail:
		return "STABLE_FAIL"
	case Flaky:
		return "FLAKY"
	case Skipped:
		return "SKIPPED"
	default:
		return "STABLE_PASS"
	}
}

// Classify reports FLAKY whenever a group has both passes and failures,
// whatever the ratio.
func (g *Group) Classify() Classification {
	switch {
	case g.Passes > 0 && g.Fails > 0:
		return Flaky
	case g.Fails > 0:
		return StableFail
	case g.Passes > 0:
		return StablePass
	default:
		return Skipped
	}
}

// Flakiness returns the rounded percentage of failing executions among the
// non-skipped ones. ok is false when every execution was skipped.
func (g *Group) Flakiness() (percent int, ok bool) {
	ran := g.Passes + g.Fails
	if ran == 0 {
		return 0, false
	}
	return int(math.Round(float64(g.Fails) / float64(ran) * 100)), true
}
