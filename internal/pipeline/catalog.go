package pipeline

// StageInfo is a stage with its display label.
type StageInfo struct {
	ID    Stage  `json:"id"`
	Label string `json:"label"`
}

// Catalog is the ordered, read-only list of stages shown to users.
type Catalog struct {
	stages []StageInfo
	labels map[Stage]string
}

// NewCatalog builds a Catalog from an ordered stage list, typically the
// response of GET /workflow/stages.
func NewCatalog(stages []StageInfo) *Catalog {
	c := &Catalog{
		stages: make([]StageInfo, len(stages)),
		labels: make(map[Stage]string, len(stages)),
	}
	copy(c.stages, stages)
	for _, s := range stages {
		if s.Label != "" {
			c.labels[s.ID] = s.Label
		}
	}
	return c
}

// DefaultCatalog returns the catalog declared by the embedded table.
func DefaultCatalog() *Catalog { return NewCatalog(defaultPolicy.infos) }

// Stages returns the ordered stage list.
func (c *Catalog) Stages() []StageInfo {
	out := make([]StageInfo, len(c.stages))
	copy(out, c.stages)
	return out
}

// Label returns the display label of s, falling back to the identifier.
func (c *Catalog) Label(s Stage) string {
	if l, ok := c.labels[s]; ok {
		return l
	}
	return string(s)
}

// Len returns the number of stages.
func (c *Catalog) Len() int { return len(c.stages) }
