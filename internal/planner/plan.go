package planner

import "github.com/lethang507/crmdev/internal/overlay"

// MergePlan represents a plan to merge the upstream and override trees into
// the build tree.
type MergePlan struct {
	// Operations is the ordered list of operations to execute
	Operations []Operation

	// Overridden is the sorted list of relative paths present in both layers,
	// where the override layer wins
	Overridden []string

	// UpstreamFiles is the number of upstream files after ignore filtering
	UpstreamFiles int

	// OverrideFiles is the number of override files after ignore filtering
	OverrideFiles int
}

// Operation represents a single filesystem operation to execute.
type Operation struct {
	// Type is the operation type: "copy"
	Type string

	// SourcePath is the source path in the layer tree (absolute)
	SourcePath string

	// DestPath is the destination path in the build tree (absolute)
	DestPath string

	// RelPath is the slash-separated path relative to the tree roots
	RelPath string

	// Layer is the layer contributing this operation
	Layer overlay.Source
}

// Operation type constants
const (
	OpCopy = "copy"
)

// NewMergePlan creates a new empty MergePlan.
func NewMergePlan() *MergePlan {
	return &MergePlan{
		Operations: []Operation{},
		Overridden: []string{},
	}
}

// AddOperation adds an operation to the plan.
func (p *MergePlan) AddOperation(op Operation) {
	p.Operations = append(p.Operations, op)
}

// Written returns the number of distinct paths the plan writes. Overridden
// paths are written twice, upstream first, so they count once.
func (p *MergePlan) Written() int {
	return len(p.Operations) - len(p.Overridden)
}
