package randomforest

import (
	"bytes"
	"encoding/gob"
	"math"

	"github.com/rs/zerolog"

	"github.com/aschampion/vigra/pkg/errors"
)

// SizeFunc maps the number of rows (or columns) of the training data to
// a sample (or feature) count.
type SizeFunc func(n int) int

// Options holds the problem-independent training parameters of a random
// forest. Problem-dependent facts (class labels, weights) live in
// ProblemSpec.
//
// An Options value is configured through chained setters:
//
//	opts := NewOptions().
//	    TreeCount(100).
//	    FeaturesPerNode(Sqrt)
//
// Setters that validate their argument panic with a ValidationError on
// illegal input, in the same spirit as gonum's precondition panics; the
// receiver is left unchanged. Once handed to a training driver the
// value must be treated as read-only. Concurrent reads are safe,
// concurrent mutation is not.
type Options struct {
	trainingSetProportion float64
	trainingSetSize       int
	trainingSetFunc       SizeFunc
	trainingSetCalc       OptionTag

	withReplacement bool
	stratification  OptionTag

	mtrySwitch OptionTag
	mtry       int
	mtryFunc   SizeFunc

	treeCount        int
	minSplitNodeSize int
}

// NewOptions returns an Options value with the library defaults: sample
// the full training set proportionally with replacement, no
// stratification, sqrt feature selection, 256 trees and complete
// growing (minimum split node size 1).
func NewOptions() *Options {
	return &Options{
		trainingSetProportion: 1.0,
		trainingSetSize:       0,
		trainingSetCalc:       Proportional,
		withReplacement:       true,
		stratification:        None,
		mtrySwitch:            Sqrt,
		mtry:                  0,
		treeCount:             256,
		minSplitNodeSize:      1,
	}
}

// UseStratification selects the stratification strategy. Legal tags are
// Equal, Proportional, External and None; anything else panics with a
// ValidationError and leaves the receiver unchanged.
func (o *Options) UseStratification(in OptionTag) *Options {
	if in != Equal && in != Proportional && in != External && in != None {
		panic(errors.NewValidationError("use_stratification",
			"input must be Equal, Proportional, External or None", in))
	}
	o.stratification = in
	return o
}

// SampleWithReplacement controls whether the per-tree training sets are
// drawn with replacement. Default: true.
func (o *Options) SampleWithReplacement(in bool) *Options {
	o.withReplacement = in
	return o
}

// SamplesPerTree sets the fraction of the total number of samples used
// per tree. The value should be in [0.0, 1.0] when sampling without
// replacement. Default: 1.0.
func (o *Options) SamplesPerTree(fraction float64) *Options {
	o.trainingSetProportion = fraction
	o.trainingSetCalc = Proportional
	return o
}

// SamplesPerTreeCount sets an absolute number of samples per tree.
func (o *Options) SamplesPerTreeCount(n int) *Options {
	o.trainingSetSize = n
	o.trainingSetCalc = Const
	return o
}

// SamplesPerTreeFunc supplies a function that maps the number of rows
// in the training data to the number of samples per tree.
//
// The function does not survive serialization; only a presence flag is
// stored.
func (o *Options) SamplesPerTreeFunc(f SizeFunc) *Options {
	o.trainingSetFunc = f
	o.trainingSetCalc = Function
	return o
}

// FeaturesPerNode selects a built-in mapping from the column count to
// mtry, the number of features examined per split. Legal tags are Log,
// Sqrt and All; anything else panics with a ValidationError and leaves
// the receiver unchanged. Default: Sqrt.
func (o *Options) FeaturesPerNode(in OptionTag) *Options {
	if in != Log && in != Sqrt && in != All {
		panic(errors.NewValidationError("features_per_node",
			"input must be Log, Sqrt or All", in))
	}
	o.mtrySwitch = in
	return o
}

// FeaturesPerNodeCount sets mtry to a constant value.
func (o *Options) FeaturesPerNodeCount(n int) *Options {
	o.mtry = n
	o.mtrySwitch = Const
	return o
}

// FeaturesPerNodeFunc supplies a function that maps the column count to
// mtry.
//
// The function does not survive serialization; only a presence flag is
// stored.
func (o *Options) FeaturesPerNodeFunc(f SizeFunc) *Options {
	o.mtryFunc = f
	o.mtrySwitch = Function
	return o
}

// TreeCount sets the number of trees in the forest. Default: 256.
func (o *Options) TreeCount(n int) *Options {
	o.treeCount = n
	return o
}

// MinSplitNodeSize sets the number of examples required for a node to
// be split. Below this size a node becomes a leaf even if class
// separation is not yet perfect. Default: 1 (complete growing).
func (o *Options) MinSplitNodeSize(n int) *Options {
	o.minSplitNodeSize = n
	return o
}

// Proportion returns the configured per-tree sample fraction.
func (o *Options) Proportion() float64 { return o.trainingSetProportion }

// TrainingSetSize returns the configured absolute per-tree sample count.
func (o *Options) TrainingSetSize() int { return o.trainingSetSize }

// SampleStrategy returns the active sampling-size strategy tag.
func (o *Options) SampleStrategy() OptionTag { return o.trainingSetCalc }

// WithReplacement reports whether per-tree sampling uses replacement.
func (o *Options) WithReplacement() bool { return o.withReplacement }

// Stratification returns the stratification strategy tag.
func (o *Options) Stratification() OptionTag { return o.stratification }

// MtryStrategy returns the active feature-count strategy tag.
func (o *Options) MtryStrategy() OptionTag { return o.mtrySwitch }

// Mtry returns the configured absolute feature count.
func (o *Options) Mtry() int { return o.mtry }

// NumTrees returns the configured forest size.
func (o *Options) NumTrees() int { return o.treeCount }

// MinSplitSize returns the minimum node size required for a split.
// Options thereby satisfies the MinSizer interface expected by
// NewEarlyStop.
func (o *Options) MinSplitSize() int { return o.minSplitNodeSize }

// HasTrainingSetFunc reports whether an external sampling-size function
// is set.
func (o *Options) HasTrainingSetFunc() bool { return o.trainingSetFunc != nil }

// HasMtryFunc reports whether an external feature-count function is set.
func (o *Options) HasMtryFunc() bool { return o.mtryFunc != nil }

// ResolveMtry computes the actual number of features examined per split
// for a problem with columnCount columns, according to the configured
// strategy. The result feeds ProblemSpec.ActualMtry.
func (o *Options) ResolveMtry(columnCount int) (int, error) {
	if columnCount <= 0 {
		return 0, errors.NewValueError("ResolveMtry", "column count must be positive")
	}
	var n int
	switch o.mtrySwitch {
	case Sqrt:
		n = int(math.Sqrt(float64(columnCount)) + 0.5)
	case Log:
		n = int(math.Log(float64(columnCount))) + 1
	case All:
		n = columnCount
	case Const:
		n = o.mtry
	case Function:
		if o.mtryFunc == nil {
			return 0, errors.NewValueError("ResolveMtry", "mtry strategy is Function but no function is set")
		}
		n = o.mtryFunc(columnCount)
	default:
		return 0, errors.NewValidationError("ResolveMtry", "unsupported feature-count strategy", o.mtrySwitch)
	}
	if n < 1 {
		n = 1
	}
	if n > columnCount {
		n = columnCount
	}
	return n, nil
}

// ResolveSampleCount computes the actual number of samples drawn per
// tree for a problem with rowCount rows, according to the configured
// strategy. The result feeds ProblemSpec.ActualMsample.
func (o *Options) ResolveSampleCount(rowCount int) (int, error) {
	if rowCount <= 0 {
		return 0, errors.NewValueError("ResolveSampleCount", "row count must be positive")
	}
	var n int
	switch o.trainingSetCalc {
	case Proportional:
		n = int(o.trainingSetProportion*float64(rowCount) + 0.5)
	case Const:
		n = o.trainingSetSize
	case Function:
		if o.trainingSetFunc == nil {
			return 0, errors.NewValueError("ResolveSampleCount", "sampling strategy is Function but no function is set")
		}
		n = o.trainingSetFunc(rowCount)
	default:
		return 0, errors.NewValidationError("ResolveSampleCount", "unsupported sampling-size strategy", o.trainingSetCalc)
	}
	if n < 1 {
		n = 1
	}
	if n > rowCount {
		n = rowCount
	}
	return n, nil
}

// SerializedSize returns the length of the flat buffer used by
// Serialize and Unserialize.
func (o *Options) SerializedSize() int { return 11 }

// Serialize writes every option into buf in the fixed VIGRA field
// order: proportion, absolute sample count, sample-function flag,
// sampling tag, replacement flag, stratification tag, feature tag,
// absolute feature count, feature-function flag, tree count, minimum
// split node size. The two function fields are encoded only as 0/1
// presence flags.
//
// buf must have length SerializedSize(). A LossySerializationWarning
// is emitted for every function field about to be dropped.
func (o *Options) Serialize(buf []float64) error {
	if len(buf) != o.SerializedSize() {
		return errors.NewBufferSizeError("Options.Serialize", o.SerializedSize(), len(buf))
	}
	if o.trainingSetFunc != nil {
		errors.Warn(errors.NewLossySerializationWarning("Options", "training_set_func_"))
	}
	if o.mtryFunc != nil {
		errors.Warn(errors.NewLossySerializationWarning("Options", "mtry_func_"))
	}
	buf[0] = o.trainingSetProportion
	buf[1] = float64(o.trainingSetSize)
	buf[2] = boolToFloat(o.trainingSetFunc != nil)
	buf[3] = float64(o.trainingSetCalc)
	buf[4] = boolToFloat(o.withReplacement)
	buf[5] = float64(o.stratification)
	buf[6] = float64(o.mtrySwitch)
	buf[7] = float64(o.mtry)
	buf[8] = boolToFloat(o.mtryFunc != nil)
	buf[9] = float64(o.treeCount)
	buf[10] = float64(o.minSplitNodeSize)
	return nil
}

// Unserialize restores every option from a buffer written by Serialize.
// The function fields cannot be reconstructed: the corresponding slots
// only record whether a function had been set, and both functions are
// left nil. This lossy round trip is a documented limitation of the
// flat buffer format.
//
// buf must have length SerializedSize().
func (o *Options) Unserialize(buf []float64) error {
	if len(buf) != o.SerializedSize() {
		return errors.NewBufferSizeError("Options.Unserialize", o.SerializedSize(), len(buf))
	}
	o.trainingSetProportion = buf[0]
	o.trainingSetSize = int(buf[1])
	// buf[2] is the sample-function presence flag; the function itself
	// is gone.
	o.trainingSetFunc = nil
	o.trainingSetCalc = OptionTag(buf[3])
	o.withReplacement = buf[4] != 0
	o.stratification = OptionTag(buf[5])
	o.mtrySwitch = OptionTag(buf[6])
	o.mtry = int(buf[7])
	// buf[8] is the feature-function presence flag.
	o.mtryFunc = nil
	o.treeCount = int(buf[9])
	o.minSplitNodeSize = int(buf[10])
	return nil
}

// Equal reports structural equality over every field except the two
// function fields, whose identity is not comparable.
func (o *Options) Equal(other *Options) bool {
	if o == nil || other == nil {
		return o == other
	}
	return o.trainingSetProportion == other.trainingSetProportion &&
		o.trainingSetSize == other.trainingSetSize &&
		o.trainingSetCalc == other.trainingSetCalc &&
		o.withReplacement == other.withReplacement &&
		o.stratification == other.stratification &&
		o.mtrySwitch == other.mtrySwitch &&
		o.mtry == other.mtry &&
		o.treeCount == other.treeCount &&
		o.minSplitNodeSize == other.minSplitNodeSize
}

// GobEncode implements gob.GobEncoder in terms of the flat buffer
// layout, so gob model files share the lossy-function semantics of
// Serialize.
func (o *Options) GobEncode() ([]byte, error) {
	buf := make([]float64, o.SerializedSize())
	if err := o.Serialize(buf); err != nil {
		return nil, err
	}
	var b bytes.Buffer
	if err := gob.NewEncoder(&b).Encode(buf); err != nil {
		return nil, errors.Wrap(err, "encode options buffer")
	}
	return b.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (o *Options) GobDecode(p []byte) error {
	var buf []float64
	if err := gob.NewDecoder(bytes.NewReader(p)).Decode(&buf); err != nil {
		return errors.Wrap(err, "decode options buffer")
	}
	return o.Unserialize(buf)
}

// MarshalZerologObject adds the configuration to a zerolog event.
func (o *Options) MarshalZerologObject(e *zerolog.Event) {
	e.Float64("training_set_proportion", o.trainingSetProportion).
		Int("training_set_size", o.trainingSetSize).
		Bool("has_training_set_func", o.trainingSetFunc != nil).
		Stringer("training_set_calc", o.trainingSetCalc).
		Bool("sample_with_replacement", o.withReplacement).
		Stringer("stratification", o.stratification).
		Stringer("mtry_switch", o.mtrySwitch).
		Int("mtry", o.mtry).
		Bool("has_mtry_func", o.mtryFunc != nil).
		Int("tree_count", o.treeCount).
		Int("min_split_node_size", o.minSplitNodeSize)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
