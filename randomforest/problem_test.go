package randomforest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	verrors "github.com/aschampion/vigra/pkg/errors"
)

func TestSetClasses(t *testing.T) {
	ps := NewProblemSpec().ColumnCount(4)
	SetClasses(ps, []int32{0, 1, 2})

	assert.Equal(t, 4, ps.NumColumns())
	assert.Equal(t, 3, ps.NumClasses())
	assert.Equal(t, Int32Kind, ps.ClassKind())
	assert.True(t, ps.Used())

	// Every representation is materialized and length-synchronized.
	for k := 0; k < numLabelKinds; k++ {
		assert.Len(t, ps.classes[k], 3, "kind %v", LabelKind(k))
	}

	l32, err := ClassLabel[int32](ps, 1)
	assert.NoError(t, err)
	assert.Equal(t, int32(1), l32)

	l8, err := ClassLabel[uint8](ps, 2)
	assert.NoError(t, err)
	assert.Equal(t, uint8(2), l8)

	lf, err := ClassLabel[float64](ps, 0)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, lf)
}

func TestClassLabelOutOfRange(t *testing.T) {
	ps := NewProblemSpec()
	SetClasses(ps, []int16{3, 7})

	for _, index := range []int{-1, 2, 100} {
		_, err := ClassLabel[int16](ps, index)
		if assert.Error(t, err, "index %d", index) {
			var ie *verrors.IndexError
			assert.True(t, verrors.As(err, &ie), "error %v is not an IndexError", err)
		}
	}
}

// Out-of-range labels are truncated toward zero and wrapped modulo 2^n,
// exactly as the rebuild after Unserialize does it.
func TestSetClassesCastRule(t *testing.T) {
	ps := NewProblemSpec()
	SetClasses(ps, []int32{-1, 300})

	u8, err := ClassLabel[uint8](ps, 0)
	assert.NoError(t, err)
	assert.Equal(t, uint8(255), u8)

	u8, err = ClassLabel[uint8](ps, 1)
	assert.NoError(t, err)
	assert.Equal(t, uint8(44), u8)

	i8, err := ClassLabel[int8](ps, 0)
	assert.NoError(t, err)
	assert.Equal(t, int8(-1), i8)

	u16, err := ClassLabel[uint16](ps, 0)
	assert.NoError(t, err)
	assert.Equal(t, uint16(65535), u16)

	f, err := ClassLabel[float64](ps, 1)
	assert.NoError(t, err)
	assert.Equal(t, 300.0, f)
}

func TestSetClassesSaturatesAtIntegerBounds(t *testing.T) {
	ps := NewProblemSpec()
	SetClasses(ps, []float64{1e300, -1e300, math.NaN()})

	i64, err := ClassLabel[int64](ps, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), i64)

	i64, err = ClassLabel[int64](ps, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), i64)

	i64, err = ClassLabel[int64](ps, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), i64)

	// Negative labels wrap modulo 2^64 in the unsigned representation.
	ps = NewProblemSpec()
	SetClasses(ps, []float64{-1})
	u64, err := ClassLabel[uint64](ps, 0)
	assert.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), u64)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, UInt8Kind, KindOf[uint8]())
	assert.Equal(t, UInt16Kind, KindOf[uint16]())
	assert.Equal(t, UInt32Kind, KindOf[uint32]())
	assert.Equal(t, UInt64Kind, KindOf[uint64]())
	assert.Equal(t, Int8Kind, KindOf[int8]())
	assert.Equal(t, Int16Kind, KindOf[int16]())
	assert.Equal(t, Int32Kind, KindOf[int32]())
	assert.Equal(t, Int64Kind, KindOf[int64]())
	assert.Equal(t, Float32Kind, KindOf[float32]())
	assert.Equal(t, Float64Kind, KindOf[float64]())

	assert.Equal(t, UInt16Kind, TypeOf(uint16(5)))
	assert.Equal(t, Float64Kind, TypeOf(3.14))
}

func TestProblemSpecSerializeRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		populate func(ps *ProblemSpec)
		wantSize int
	}{
		{
			name: "unweighted",
			populate: func(ps *ProblemSpec) {
				ps.ColumnCount(4).RowCount(100).ActualMtry(2).ActualMsample(100).ProblemType(Classification)
				SetClasses(ps, []int32{0, 1, 2})
			},
			wantSize: 8 + 3,
		},
		{
			name: "weighted",
			populate: func(ps *ProblemSpec) {
				ps.ColumnCount(6).RowCount(50).ProblemType(Classification)
				SetClasses(ps, []uint8{1, 2, 4})
				ps.ClassWeights([]float64{0.2, 0.3, 0.5})
			},
			wantSize: 8 + 2*3,
		},
		{
			name: "weights supplied before classes",
			populate: func(ps *ProblemSpec) {
				ps.ClassWeights([]float64{0.5, 0.5})
				SetClasses(ps, []int64{10, 20})
			},
			wantSize: 8 + 2*2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := NewProblemSpec()
			tt.populate(ps)
			assert.Equal(t, tt.wantSize, ps.SerializedSize())

			buf := make([]float64, ps.SerializedSize())
			assert.NoError(t, ps.Serialize(buf))

			restored := NewProblemSpec()
			assert.NoError(t, restored.Unserialize(buf))

			// Only the float64 labels travel; the other nine vectors are
			// rebuilt on load and must match the originals.
			assert.True(t, restored.Equal(ps), "restored spec differs from original")
			assert.True(t, restored.Used())
		})
	}
}

func TestProblemSpecUnserializeWrongLength(t *testing.T) {
	ps := NewProblemSpec()
	SetClasses(ps, []int32{0, 1, 2})
	buf := make([]float64, ps.SerializedSize())
	assert.NoError(t, ps.Serialize(buf))

	// Too short for even the fixed fields.
	assert.Error(t, NewProblemSpec().Unserialize(buf[:7]))
	// Truncated label vector.
	assert.Error(t, NewProblemSpec().Unserialize(buf[:len(buf)-1]))
	// Serialize into a buffer of the wrong size.
	assert.Error(t, ps.Serialize(make([]float64, len(buf)+1)))
}

func TestProblemSpecClear(t *testing.T) {
	ps := NewProblemSpec().ColumnCount(3).RowCount(10).ProblemType(Classification)
	SetClasses(ps, []float32{1.5, 2.5})
	ps.ClassWeights([]float64{0.4, 0.6})
	assert.True(t, ps.Used())

	ps.Clear()

	fresh := NewProblemSpec()
	assert.True(t, ps.Equal(fresh), "cleared spec differs from a fresh one")
	assert.False(t, ps.Used())
	assert.Equal(t, 0, ps.NumRows())
	assert.Equal(t, CheckLater, ps.Problem())
	assert.Equal(t, UnknownKind, ps.ClassKind())
}

func TestProblemSpecMapRoundTrip(t *testing.T) {
	ps := NewProblemSpec().ColumnCount(5).RowCount(40).ActualMtry(2).ActualMsample(40).ProblemType(Classification)
	SetClasses(ps, []int32{0, 1})
	ps.ClassWeights([]float64{0.25, 0.75})

	m := ps.AsMap()
	assert.Equal(t, []float64{5}, m["column_count_"])
	assert.Equal(t, []float64{2}, m["class_count_"])
	assert.Equal(t, []float64{0.25, 0.75}, m["class_weights_"])

	restored := NewProblemSpec()
	assert.NoError(t, restored.FromMap(m))
	assert.Equal(t, 5, restored.NumColumns())
	assert.Equal(t, 2, restored.NumClasses())
	assert.Equal(t, 40, restored.NumRows())
	assert.Equal(t, Classification, restored.Problem())
	assert.Equal(t, Int32Kind, restored.ClassKind())
	assert.True(t, restored.IsWeighted())
	assert.Equal(t, []float64{0.25, 0.75}, restored.Weights())
	// The dictionary form does not carry the label vectors.
	assert.Empty(t, restored.classes[Float64Kind])
}

func TestProblemSpecFromMapMissingField(t *testing.T) {
	m := NewProblemSpec().AsMap()
	delete(m, "row_count_")
	err := NewProblemSpec().FromMap(m)
	assert.Error(t, err)
	var ve *verrors.ValidationError
	assert.True(t, verrors.As(err, &ve))
}

func TestProblemSpecEqual(t *testing.T) {
	a := NewProblemSpec()
	SetClasses(a, []int32{0, 1, 2})
	b := NewProblemSpec()
	SetClasses(b, []int32{0, 1, 2})
	assert.True(t, a.Equal(b))

	// Same label values, different native kind.
	c := NewProblemSpec()
	SetClasses(c, []float64{0, 1, 2})
	assert.False(t, a.Equal(c))

	// Different label values.
	d := NewProblemSpec()
	SetClasses(d, []int32{0, 1, 3})
	assert.False(t, a.Equal(d))
}
