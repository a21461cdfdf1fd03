package pipeline

import (
	"bytes"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed transitions.yaml
var defaultTable []byte

// Rule is one allowed move. Source is either a stage or a branch name.
type Rule struct {
	Source            string
	To                Stage
	RequiresInterview bool
	Destructive       bool
}

// Policy answers transition-legality questions from a parsed table.
// A Policy is immutable once built and safe for concurrent use.
type Policy struct {
	version  int
	infos    []StageInfo
	branch   map[Stage]Branch
	terminal map[Stage]bool
	rules    map[string][]Rule
}

type tableDoc struct {
	Version int `yaml:"version"`
	Stages  []struct {
		ID       string `yaml:"id"`
		Label    string `yaml:"label"`
		Branch   string `yaml:"branch"`
		Terminal bool   `yaml:"terminal"`
	} `yaml:"stages"`
	Transitions []struct {
		From              string `yaml:"from"`
		To                string `yaml:"to"`
		RequiresInterview bool   `yaml:"requires_interview"`
		Destructive       bool   `yaml:"destructive"`
	} `yaml:"transitions"`
}

var defaultPolicy = mustParsePolicy(defaultTable)

func mustParsePolicy(data []byte) *Policy {
	p, err := ParsePolicy(data)
	if err != nil {
		panic(fmt.Sprintf("pipeline: embedded transition table: %v", err))
	}
	return p
}

// DefaultPolicy returns the policy built from the embedded transition table.
func DefaultPolicy() *Policy { return defaultPolicy }

// ParsePolicy decodes and validates a transition table document.
func ParsePolicy(data []byte) (*Policy, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("pipeline: transition table is empty")
	}
	var doc tableDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("pipeline: decode transition table: %w", err)
	}
	if doc.Version < 1 {
		return nil, fmt.Errorf("pipeline: transition table version must be >= 1, got %d", doc.Version)
	}

	p := &Policy{
		version:  doc.Version,
		branch:   make(map[Stage]Branch),
		terminal: make(map[Stage]bool),
		rules:    make(map[string][]Rule),
	}
	branches := make(map[Branch]bool)
	for _, s := range doc.Stages {
		st, err := ParseStage(s.ID)
		if err != nil {
			return nil, fmt.Errorf("pipeline: stages: %w", err)
		}
		if _, dup := p.branch[st]; dup {
			return nil, fmt.Errorf("pipeline: stage %q declared twice", st)
		}
		p.infos = append(p.infos, StageInfo{ID: st, Label: s.Label})
		if s.Branch != "" {
			p.branch[st] = Branch(s.Branch)
			branches[Branch(s.Branch)] = true
		} else {
			p.branch[st] = ""
		}
		if s.Terminal {
			p.terminal[st] = true
		}
	}

	for i, t := range doc.Transitions {
		to, err := ParseStage(t.To)
		if err != nil {
			return nil, fmt.Errorf("pipeline: transition %d: %w", i, err)
		}
		if _, ok := p.branch[to]; !ok {
			return nil, fmt.Errorf("pipeline: transition %d targets undeclared stage %q", i, to)
		}
		from := Stage(t.From)
		_, isStage := p.branch[from]
		isBranch := branches[Branch(t.From)]
		switch {
		case !isStage && !isBranch:
			return nil, fmt.Errorf("pipeline: transition %d has unknown source %q", i, t.From)
		case isStage && p.terminal[from]:
			return nil, fmt.Errorf("pipeline: transition %d leaves terminal stage %q", i, from)
		case isStage && from == to:
			return nil, fmt.Errorf("pipeline: transition %d is a self-transition on %q", i, from)
		case isBranch && p.branch[to] == Branch(t.From):
			return nil, fmt.Errorf("pipeline: transition %d stays inside branch %q", i, t.From)
		}
		p.rules[t.From] = append(p.rules[t.From], Rule{
			Source:            t.From,
			To:                to,
			RequiresInterview: t.RequiresInterview,
			Destructive:       t.Destructive,
		})
	}
	return p, nil
}

// Version returns the table version.
func (p *Policy) Version() int { return p.version }

// BranchOf returns the branch s belongs to, or "" when it has none.
func (p *Policy) BranchOf(s Stage) Branch { return p.branch[s] }

// IsTerminal reports whether s has no outgoing transitions.
func (p *Policy) IsTerminal(s Stage) bool { return p.terminal[s] }

// InInterviewBranch reports whether s is scheduled or rescheduled.
func (p *Policy) InInterviewBranch(s Stage) bool { return p.branch[s] == BranchInterview }

// candidates lists the rules that apply to from: its own rules followed by
// the rules of its branch.
func (p *Policy) candidates(from Stage) []Rule {
	if p.terminal[from] {
		return nil
	}
	own := p.rules[string(from)]
	b := p.branch[from]
	if b == "" {
		return own
	}
	out := make([]Rule, 0, len(own)+len(p.rules[string(b)]))
	out = append(out, own...)
	return append(out, p.rules[string(b)]...)
}

// Rule returns the rule permitting from → to, if any.
func (p *Policy) Rule(from, to Stage) (Rule, bool) {
	for _, r := range p.candidates(from) {
		if r.To == to {
			return r, true
		}
	}
	return Rule{}, false
}

// IsLegalTransition returns true when moving from → to is permitted.
func (p *Policy) IsLegalTransition(from, to Stage) bool {
	_, ok := p.Rule(from, to)
	return ok
}

// ValidNextStages returns the legal targets from a stage in pipeline order.
// Terminal and unknown stages yield an empty slice.
func (p *Policy) ValidNextStages(from Stage) []Stage {
	seen := make(map[Stage]bool)
	for _, r := range p.candidates(from) {
		seen[r.To] = true
	}
	out := make([]Stage, 0, len(seen))
	for _, s := range ordered {
		if seen[s] {
			out = append(out, s)
		}
	}
	return out
}

// IsLegalTransition checks from → to against the embedded table.
func IsLegalTransition(from, to Stage) bool { return defaultPolicy.IsLegalTransition(from, to) }

// ValidNextStages lists legal targets from a stage using the embedded table.
func ValidNextStages(from Stage) []Stage { return defaultPolicy.ValidNextStages(from) }
