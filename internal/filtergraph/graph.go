package filtergraph

import (
	"fmt"
	"regexp"
	"strings"
)

// Arg is one filter option. An empty Key renders a positional value.
type Arg struct {
	Key   string
	Value string
}

// Filter is a single ffmpeg filter invocation.
type Filter struct {
	Name string
	Args []Arg
}

// F builds a filter from alternating key/value strings.
func F(name string, kv ...string) Filter {
	f := Filter{Name: name}
	for i := 0; i+1 < len(kv); i += 2 {
		f.Args = append(f.Args, Arg{Key: kv[i], Value: kv[i+1]})
	}
	return f
}

func (f Filter) String() string {
	if len(f.Args) == 0 {
		return f.Name
	}
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		if a.Key == "" {
			parts[i] = a.Value
		} else {
			parts[i] = a.Key + "=" + a.Value
		}
	}
	return f.Name + "=" + strings.Join(parts, ":")
}

// Stage is a filter chain with labelled inputs and outputs.
type Stage struct {
	Inputs  []string
	Filters []Filter
	Outputs []string
}

func (s Stage) String() string {
	var b strings.Builder
	for _, in := range s.Inputs {
		b.WriteString("[" + in + "]")
	}
	for i, f := range s.Filters {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.String())
	}
	for _, out := range s.Outputs {
		b.WriteString("[" + out + "]")
	}
	return b.String()
}

// Has reports whether the stage runs a filter with the given name.
func (s Stage) Has(name string) bool {
	for _, f := range s.Filters {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Graph is an ordered filter graph plus the sink labels mapped to the output.
type Graph struct {
	Stages []Stage
	Sinks  []string
}

// String renders the graph in filter_complex syntax.
func (g *Graph) String() string {
	parts := make([]string, len(g.Stages))
	for i, s := range g.Stages {
		parts[i] = s.String()
	}
	return strings.Join(parts, ";")
}

// Count returns the number of stages that run the named filter.
func (g *Graph) Count(name string) int {
	n := 0
	for _, s := range g.Stages {
		if s.Has(name) {
			n++
		}
	}
	return n
}

var rawPad = regexp.MustCompile(`^\d+:[va]$`)

// IsRawInput reports whether label addresses a demuxed input stream such as
// "0:v" rather than a graph-internal pad.
func IsRawInput(label string) bool {
	return rawPad.MatchString(label)
}

// Validate enforces the label discipline: every internal label is produced by
// exactly one stage before it is read, every produced label is consumed
// exactly once unless it is a sink, and sinks are produced but never
// consumed inside the graph.
func (g *Graph) Validate() error {
	produced := make(map[string]int)
	consumed := make(map[string]int)
	sinks := make(map[string]bool, len(g.Sinks))
	for _, s := range g.Sinks {
		sinks[s] = true
	}

	for i, stage := range g.Stages {
		if len(stage.Filters) == 0 {
			return &LabelError{Stage: i, Problem: "stage has no filters"}
		}
		for _, in := range stage.Inputs {
			if IsRawInput(in) {
				continue
			}
			if produced[in] == 0 {
				return &LabelError{Stage: i, Label: in, Problem: "consumed before it is produced"}
			}
			consumed[in]++
			if consumed[in] > 1 {
				return &LabelError{Stage: i, Label: in, Problem: "consumed more than once"}
			}
			if sinks[in] {
				return &LabelError{Stage: i, Label: in, Problem: "sink consumed inside the graph"}
			}
		}
		for _, out := range stage.Outputs {
			if IsRawInput(out) {
				return &LabelError{Stage: i, Label: out, Problem: "output shadows an input stream"}
			}
			produced[out]++
			if produced[out] > 1 {
				return &LabelError{Stage: i, Label: out, Problem: "produced more than once"}
			}
		}
	}

	for i, stage := range g.Stages {
		for _, out := range stage.Outputs {
			if !sinks[out] && consumed[out] == 0 {
				return &LabelError{Stage: i, Label: out, Problem: "produced but never consumed"}
			}
		}
	}
	for _, sink := range g.Sinks {
		if produced[sink] == 0 {
			return &LabelError{Stage: -1, Label: sink, Problem: "sink is never produced"}
		}
	}
	return nil
}

// LabelError reports a broken label reference in a graph.
type LabelError struct {
	Stage   int
	Label   string
	Problem string
}

func (e *LabelError) Error() string {
	if e.Stage < 0 {
		return fmt.Sprintf("filter graph label [%s]: %s", e.Label, e.Problem)
	}
	if e.Label == "" {
		return fmt.Sprintf("filter graph stage %d: %s", e.Stage, e.Problem)
	}
	return fmt.Sprintf("filter graph stage %d label [%s]: %s", e.Stage, e.Label, e.Problem)
}
