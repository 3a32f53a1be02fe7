package randomforest

// Region is the view of a candidate node a stopping criterion sees:
// the number of samples that fall into it.
type Region interface {
	Size() int
}

// StopCriterion decides whether a region should stop splitting. The
// tree-growing driver is polymorphic over this interface, so
// depth-based or purity-based policies can replace the default without
// touching the driver.
type StopCriterion interface {
	// Stop returns true iff the region should become a leaf.
	Stop(r Region) bool
	// SetExternalParameters gives the criterion access to the problem
	// description before growth starts.
	SetExternalParameters(ps *ProblemSpec)
}

// MinSizer supplies the minimum split node size an EarlyStop copies at
// construction. *Options implements it; tests may substitute doubles.
type MinSizer interface {
	MinSplitSize() int
}

// EarlyStop is the standard early stopping criterion: stop as soon as a
// region holds fewer samples than the configured minimum split node
// size. A region of exactly the minimum size is still split.
type EarlyStop struct {
	MinSplitNodeSize int
}

// NewEarlyStop copies the minimum split node size out of opt.
func NewEarlyStop(opt MinSizer) EarlyStop {
	return EarlyStop{MinSplitNodeSize: opt.MinSplitSize()}
}

// SetExternalParameters implements StopCriterion. The standard
// criterion needs nothing from the problem description.
func (e EarlyStop) SetExternalParameters(*ProblemSpec) {}

// Stop implements StopCriterion.
func (e EarlyStop) Stop(r Region) bool {
	return r.Size() < e.MinSplitNodeSize
}
