// Package randomforest provides the configuration and problem-description
// core of a random forest learner, ported from the VIGRA computer vision
// library.
//
// The package contains the tunable training options (Options), the
// problem specification derived from or supplied with the training data
// (ProblemSpec), the standard early stopping criterion (EarlyStop) and
// the Param mechanism that lets callers omit any pluggable strategy and
// fall back to the library default.
//
// Serialized option and problem buffers keep VIGRA's exact field order
// and width, so model headers written by the C++ library can be read
// back here and vice versa.
//
// Example:
//
//	opts := randomforest.NewOptions().
//	    TreeCount(100).
//	    MinSplitNodeSize(5).
//	    FeaturesPerNode(randomforest.Sqrt).
//	    SampleWithReplacement(false)
//
//	spec := randomforest.NewProblemSpec().ColumnCount(4)
//	randomforest.SetClasses(spec, []int32{0, 1, 2})
package randomforest
