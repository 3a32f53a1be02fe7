package randomforest

// OptionTag selects one of the built-in policies on the three strategy
// axes of Options: sampling size, stratification and feature count.
// Only a subset of tags is legal per axis; the validating setters on
// Options enforce this at configuration time.
//
// The numeric values match VIGRA's RF_OptionTag so that serialized
// option buffers stay compatible with model files written by the C++
// library.
type OptionTag int

const (
	// Equal draws the same number of samples from every class.
	Equal OptionTag = iota
	// Proportional samples proportionally to the class frequency in the
	// population.
	Proportional
	// External means strata weights were supplied externally through the
	// ProblemSpec.
	External
	// None disables stratification.
	None
	// Function delegates the size calculation to a caller-supplied
	// function. Set implicitly by the Func variants of the setters.
	Function
	// Log derives the feature count from the logarithm of the column
	// count.
	Log
	// Sqrt derives the feature count from the square root of the column
	// count.
	Sqrt
	// Const uses an absolute count. Set implicitly by the count variants
	// of the setters.
	Const
	// All uses every available feature.
	All
)

func (t OptionTag) String() string {
	switch t {
	case Equal:
		return "RF_EQUAL"
	case Proportional:
		return "RF_PROPORTIONAL"
	case External:
		return "RF_EXTERNAL"
	case None:
		return "RF_NONE"
	case Function:
		return "RF_FUNCTION"
	case Log:
		return "RF_LOG"
	case Sqrt:
		return "RF_SQRT"
	case Const:
		return "RF_CONST"
	case All:
		return "RF_ALL"
	default:
		return "RF_UNKNOWN"
	}
}
