package randomforest

import (
	"bytes"
	"encoding/gob"
	"math"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/aschampion/vigra/pkg/errors"
)

// ProblemKind distinguishes regression from classification problems.
// CheckLater marks a spec whose kind the training driver still has to
// determine from the data.
type ProblemKind int

const (
	Regression ProblemKind = iota
	Classification
	CheckLater
)

func (k ProblemKind) String() string {
	switch k {
	case Regression:
		return "regression"
	case Classification:
		return "classification"
	case CheckLater:
		return "check_later"
	default:
		return "unknown"
	}
}

// LabelKind identifies the numeric representation the caller uses for
// class labels. The numeric values match VIGRA's Types_t so serialized
/// problem buffers stay compatible: note that Float64 precedes Float32.
type LabelKind int

const (
	UInt8Kind LabelKind = iota
	UInt16Kind
	UInt32Kind
	UInt64Kind
	Int8Kind
	Int16Kind
	Int32Kind
	Int64Kind
	Float64Kind
	Float32Kind
	UnknownKind
)

// numLabelKinds counts the concrete representations, UnknownKind
// excluded.
const numLabelKinds = 10

func (k LabelKind) String() string {
	switch k {
	case UInt8Kind:
		return "uint8"
	case UInt16Kind:
		return "uint16"
	case UInt32Kind:
		return "uint32"
	case UInt64Kind:
		return "uint64"
	case Int8Kind:
		return "int8"
	case Int16Kind:
		return "int16"
	case Int32Kind:
		return "int32"
	case Int64Kind:
		return "int64"
	case Float64Kind:
		return "float64"
	case Float32Kind:
		return "float32"
	default:
		return "unknown"
	}
}

// Label constrains the numeric types usable as class labels.
type Label interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~float32 | ~float64
}

// KindOf returns the LabelKind of the Go type T.
func KindOf[T Label]() LabelKind {
	var zero T
	switch reflect.TypeOf(zero).Kind() {
	case reflect.Uint8:
		return UInt8Kind
	case reflect.Uint16:
		return UInt16Kind
	case reflect.Uint32:
		return UInt32Kind
	case reflect.Uint64:
		return UInt64Kind
	case reflect.Int8:
		return Int8Kind
	case reflect.Int16:
		return Int16Kind
	case reflect.Int32:
		return Int32Kind
	case reflect.Int64:
		return Int64Kind
	case reflect.Float32:
		return Float32Kind
	case reflect.Float64:
		return Float64Kind
	default:
		return UnknownKind
	}
}

// TypeOf maps a native numeric value to its LabelKind. Pure; the value
// itself is not inspected.
func TypeOf[T Label](T) LabelKind {
	return KindOf[T]()
}

// castTo reinterprets v in the representation kind and widens the
// result back to float64. For integer kinds v is truncated toward
// zero, saturating at the int64 bounds, and then wrapped modulo 2^n.
// Going through truncInt64 first keeps the rebuild after Unserialize
/// deterministic: a direct Go float-to-integer conversion is
// implementation-dependent when the value does not fit the target.
func castTo(kind LabelKind, v float64) float64 {
	switch kind {
	case UInt8Kind:
		return float64(uint8(truncInt64(v)))
	case UInt16Kind:
		return float64(uint16(truncInt64(v)))
	case UInt32Kind:
		return float64(uint32(truncInt64(v)))
	case UInt64Kind:
		return float64(uint64(truncInt64(v)))
	case Int8Kind:
		return float64(int8(truncInt64(v)))
	case Int16Kind:
		return float64(int16(truncInt64(v)))
	case Int32Kind:
		return float64(int32(truncInt64(v)))
	case Int64Kind:
		return float64(truncInt64(v))
	case Float32Kind:
		return float64(float32(v))
	default:
		return v
	}
}

// truncInt64 truncates v toward zero, clamping values the int64 range
// cannot hold. NaN maps to 0.
func truncInt64(v float64) int64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt64: // 2^63 after float64 rounding
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	}
	return int64(v)
}

// truncUint64 is the read-back counterpart of the uint64 wrap: the
// stored values are already non-negative, so only the upper bound and
// NaN need guarding.
func truncUint64(v float64) uint64 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= math.MaxUint64: // 2^64 after float64 rounding
		return math.MaxUint64
	}
	return uint64(v)
}

// ProblemSpec holds the problem-dependent facts a random forest needs
// for learning: data dimensions, the class labels in every supported
// numeric representation, optional class weights and the resolved
// sampling parameters. Supplying one is optional; the training driver
// fills in an unused spec from the data.
//
// Class labels are materialized in all ten representations at insertion
// time so that prediction code can translate a class index back into
// the caller's native label type without a runtime dispatch layer.
type ProblemSpec struct {
	columnCount   int
	classCount    int
	rowCount      int
	actualMtry    int
	actualMsample int

	problemKind ProblemKind
	classKind   LabelKind

	weighted     bool
	classWeights []float64

	// classes[k][i] is class label i cast into representation k and
	// widened back to float64. All ten vectors always share the same
	// length, classCount.
	classes [numLabelKinds][]float64

	used bool
}

// NewProblemSpec returns an empty, unused spec.
func NewProblemSpec() *ProblemSpec {
	return &ProblemSpec{
		problemKind: CheckLater,
		classKind:   UnknownKind,
	}
}

// ColumnCount sets the number of feature columns.
func (ps *ProblemSpec) ColumnCount(n int) *ProblemSpec {
	ps.columnCount = n
	ps.used = true
	return ps
}

// RowCount sets the number of samples in the training data.
func (ps *ProblemSpec) RowCount(n int) *ProblemSpec {
	ps.rowCount = n
	ps.used = true
	return ps
}

// ActualMtry records the resolved number of features per split, as
// computed by Options.ResolveMtry.
func (ps *ProblemSpec) ActualMtry(n int) *ProblemSpec {
	ps.actualMtry = n
	ps.used = true
	return ps
}

// ActualMsample records the resolved number of samples per tree, as
// computed by Options.ResolveSampleCount.
func (ps *ProblemSpec) ActualMsample(n int) *ProblemSpec {
	ps.actualMsample = n
	ps.used = true
	return ps
}

// ProblemType sets the problem kind.
func (ps *ProblemSpec) ProblemType(k ProblemKind) *ProblemSpec {
	ps.problemKind = k
	ps.used = true
	return ps
}

// SetClasses supplies the class labels; the training driver will not
// recompute them in that case. The label kind is recorded from T and
// every one of the ten cast vectors is rebuilt from scratch, so the
// vectors are always length-synchronized with the class count.
//
// A free function rather than a method because Go methods cannot be
// generic; it still returns the spec for chaining.
func SetClasses[T Label](ps *ProblemSpec, labels []T) *ProblemSpec {
	for k := range ps.classes {
		ps.classes[k] = make([]float64, 0, len(labels))
	}
	for _, l := range labels {
		v := float64(l)
		for k := 0; k < numLabelKinds; k++ {
			ps.classes[k] = append(ps.classes[k], castTo(LabelKind(k), v))
		}
	}
	ps.classKind = KindOf[T]()
	ps.classCount = len(labels)
	ps.used = true
	return ps
}

// ClassWeights appends per-class weights and marks the spec weighted.
// The length is deliberately not validated against the class count
// here: weights may legally be supplied before the classes. The
// training driver validates the two lengths against each other before
// first use.
func (ps *ProblemSpec) ClassWeights(ws []float64) *ProblemSpec {
	ps.classWeights = append(ps.classWeights, ws...)
	ps.weighted = true
	ps.used = true
	return ps
}

// ClassLabel translates a class index back into the caller's native
// label type by reading the correspondingly-cast vector. Integer kinds
// narrow through the same saturating truncation as castTo, so labels
// stored at the int64/uint64 bounds read back deterministically.
func ClassLabel[T Label](ps *ProblemSpec, index int) (T, error) {
	var zero T
	if index < 0 || index >= ps.classCount {
		return zero, errors.NewIndexError("to_classlabel", index, ps.classCount)
	}
	kind := KindOf[T]()
	v := ps.classes[kind][index]
	switch kind {
	case Float32Kind, Float64Kind:
		return T(v), nil
	case UInt64Kind:
		return T(truncUint64(v)), nil
	default:
		return T(truncInt64(v)), nil
	}
}

// NumColumns returns the number of feature columns.
func (ps *ProblemSpec) NumColumns() int { return ps.columnCount }

// NumClasses returns the number of classes.
func (ps *ProblemSpec) NumClasses() int { return ps.classCount }

// NumRows returns the number of samples.
func (ps *ProblemSpec) NumRows() int { return ps.rowCount }

// Mtry returns the resolved number of features per split.
func (ps *ProblemSpec) Mtry() int { return ps.actualMtry }

// Msample returns the resolved number of samples per tree.
func (ps *ProblemSpec) Msample() int { return ps.actualMsample }

// Problem returns the problem kind.
func (ps *ProblemSpec) Problem() ProblemKind { return ps.problemKind }

// ClassKind returns the native representation of the supplied labels.
func (ps *ProblemSpec) ClassKind() LabelKind { return ps.classKind }

// IsWeighted reports whether class weights were supplied.
func (ps *ProblemSpec) IsWeighted() bool { return ps.weighted }

// Weights returns the per-class weight vector. Empty unless weighted.
func (ps *ProblemSpec) Weights() []float64 { return ps.classWeights }

// Used reports whether any populating operation has run since
// construction or the last Clear.
func (ps *ProblemSpec) Used() bool { return ps.used }

// Clear resets every field to the unused default state. Afterwards the
// spec is indistinguishable from a freshly constructed one.
func (ps *ProblemSpec) Clear() {
	*ps = *NewProblemSpec()
}

// Equal reports structural equality over every field, the ten cast
// vectors included. The used flag is not part of the comparison.
func (ps *ProblemSpec) Equal(other *ProblemSpec) bool {
	if ps == nil || other == nil {
		return ps == other
	}
	if ps.columnCount != other.columnCount ||
		ps.classCount != other.classCount ||
		ps.rowCount != other.rowCount ||
		ps.actualMtry != other.actualMtry ||
		ps.actualMsample != other.actualMsample ||
		ps.problemKind != other.problemKind ||
		ps.classKind != other.classKind ||
		ps.weighted != other.weighted {
		return false
	}
	if !floatsEqual(ps.classWeights, other.classWeights) {
		return false
	}
	for k := range ps.classes {
		if !floatsEqual(ps.classes[k], other.classes[k]) {
			return false
		}
	}
	return true
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SerializedSize returns the length of the flat buffer used by
// Serialize and Unserialize: eight fixed fields, the weight vector if
// weighted, and the class labels in double precision.
func (ps *ProblemSpec) SerializedSize() int {
	n := 1
	if ps.weighted {
		n = 2
	}
	return 8 + ps.classCount*n
}

// Serialize writes the spec into buf: column count, class count, row
// count, actual mtry, actual msample, problem kind, label kind,
// weighted flag, then the weights (if weighted) and the class labels in
// their float64 representation. The other nine cast vectors are not
// stored; Unserialize rebuilds them.
//
// buf must have length SerializedSize().
func (ps *ProblemSpec) Serialize(buf []float64) error {
	if len(buf) != ps.SerializedSize() {
		return errors.NewBufferSizeError("ProblemSpec.Serialize", ps.SerializedSize(), len(buf))
	}
	buf[0] = float64(ps.columnCount)
	buf[1] = float64(ps.classCount)
	buf[2] = float64(ps.rowCount)
	buf[3] = float64(ps.actualMtry)
	buf[4] = float64(ps.actualMsample)
	buf[5] = float64(ps.problemKind)
	buf[6] = float64(ps.classKind)
	buf[7] = boolToFloat(ps.weighted)
	iter := buf[8:]
	if ps.weighted {
		copy(iter, ps.classWeights)
		iter = iter[ps.classCount:]
	}
	copy(iter, ps.classes[Float64Kind])
	return nil
}

// Unserialize restores the spec from a buffer written by Serialize.
// Only the float64 label vector is stored on the wire; the other nine
// cast vectors are rebuilt from it with the castTo truncation rule. For
// specs whose native label kind is integral this reproduces the
// original vectors exactly.
func (ps *ProblemSpec) Unserialize(buf []float64) error {
	if len(buf) < 8 {
		return errors.NewBufferSizeError("ProblemSpec.Unserialize", 8, len(buf))
	}
	classCount := int(buf[1])
	weighted := buf[7] != 0
	want := 8 + classCount
	if weighted {
		want += classCount
	}
	if len(buf) != want {
		return errors.NewBufferSizeError("ProblemSpec.Unserialize", want, len(buf))
	}

	ps.Clear()
	ps.columnCount = int(buf[0])
	ps.classCount = classCount
	ps.rowCount = int(buf[2])
	ps.actualMtry = int(buf[3])
	ps.actualMsample = int(buf[4])
	ps.problemKind = ProblemKind(buf[5])
	ps.classKind = LabelKind(buf[6])
	ps.weighted = weighted
	iter := buf[8:]
	if weighted {
		ps.classWeights = append(ps.classWeights, iter[:classCount]...)
		iter = iter[classCount:]
	}
	for k := range ps.classes {
		ps.classes[k] = make([]float64, 0, classCount)
		for _, v := range iter {
			ps.classes[k] = append(ps.classes[k], castTo(LabelKind(k), v))
		}
	}
	ps.used = true
	return nil
}

// Field names used by AsMap and FromMap. They match the VIGRA member
// names so dictionaries interchange with model files written by the
// C++ library.
const (
	mapKeyColumnCount   = "column_count_"
	mapKeyClassCount    = "class_count_"
	mapKeyRowCount      = "row_count_"
	mapKeyActualMtry    = "actual_mtry_"
	mapKeyActualMsample = "actual_msample_"
	mapKeyProblemType   = "problem_type_"
	mapKeyClassType     = "class_type_"
	mapKeyIsWeighted    = "is_weighted"
	mapKeyClassWeights  = "class_weights_"
)

// AsMap exports the fixed fields and the weight vector as a
// name-to-values dictionary, for tooling that prefers self-describing
// key-value formats over positional buffers. The per-representation
// label vectors are not covered.
func (ps *ProblemSpec) AsMap() map[string][]float64 {
	m := map[string][]float64{
		mapKeyColumnCount:   {float64(ps.columnCount)},
		mapKeyClassCount:    {float64(ps.classCount)},
		mapKeyRowCount:      {float64(ps.rowCount)},
		mapKeyActualMtry:    {float64(ps.actualMtry)},
		mapKeyActualMsample: {float64(ps.actualMsample)},
		mapKeyProblemType:   {float64(ps.problemKind)},
		mapKeyClassType:     {float64(ps.classKind)},
		mapKeyIsWeighted:    {boolToFloat(ps.weighted)},
	}
	m[mapKeyClassWeights] = append([]float64(nil), ps.classWeights...)
	return m
}

// FromMap imports the fields written by AsMap. The label vectors are
// not part of the dictionary form and stay empty; callers that need
// them must use Unserialize instead.
func (ps *ProblemSpec) FromMap(m map[string][]float64) error {
	scalar := func(key string) (float64, error) {
		vs, ok := m[key]
		if !ok || len(vs) == 0 {
			return 0, errors.NewValidationError("make_from_map", "missing field", key)
		}
		return vs[0], nil
	}

	fields := []struct {
		key string
		set func(v float64)
	}{
		{mapKeyColumnCount, func(v float64) { ps.columnCount = int(v) }},
		{mapKeyClassCount, func(v float64) { ps.classCount = int(v) }},
		{mapKeyRowCount, func(v float64) { ps.rowCount = int(v) }},
		{mapKeyActualMtry, func(v float64) { ps.actualMtry = int(v) }},
		{mapKeyActualMsample, func(v float64) { ps.actualMsample = int(v) }},
		{mapKeyProblemType, func(v float64) { ps.problemKind = ProblemKind(v) }},
		{mapKeyClassType, func(v float64) { ps.classKind = LabelKind(v) }},
		{mapKeyIsWeighted, func(v float64) { ps.weighted = v != 0 }},
	}
	for _, f := range fields {
		v, err := scalar(f.key)
		if err != nil {
			return err
		}
		f.set(v)
	}
	ps.classWeights = append([]float64(nil), m[mapKeyClassWeights]...)
	ps.used = true
	return nil
}

// GobEncode implements gob.GobEncoder in terms of the flat buffer
// layout.
func (ps *ProblemSpec) GobEncode() ([]byte, error) {
	buf := make([]float64, ps.SerializedSize())
	if err := ps.Serialize(buf); err != nil {
		return nil, err
	}
	var b bytes.Buffer
	if err := gob.NewEncoder(&b).Encode(buf); err != nil {
		return nil, errors.Wrap(err, "encode problem buffer")
	}
	return b.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (ps *ProblemSpec) GobDecode(p []byte) error {
	var buf []float64
	if err := gob.NewDecoder(bytes.NewReader(p)).Decode(&buf); err != nil {
		return errors.Wrap(err, "decode problem buffer")
	}
	return ps.Unserialize(buf)
}

// MarshalZerologObject adds the spec to a zerolog event.
func (ps *ProblemSpec) MarshalZerologObject(e *zerolog.Event) {
	e.Int("column_count", ps.columnCount).
		Int("class_count", ps.classCount).
		Int("row_count", ps.rowCount).
		Int("actual_mtry", ps.actualMtry).
		Int("actual_msample", ps.actualMsample).
		Stringer("problem_type", ps.problemKind).
		Stringer("class_type", ps.classKind).
		Bool("is_weighted", ps.weighted).
		Bool("used", ps.used)
}
