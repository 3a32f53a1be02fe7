package randomforest

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/aschampion/vigra/pkg/errors"
)

// DetectFrom populates an unset spec from the training data the way
// the learning driver would: the column and row counts come from the
// dimensions of X, the class labels are the sorted distinct values of
// y, and the problem is marked as classification.
//
// y must be a single-column matrix with as many rows as X. Fields the
// caller already supplied are overwritten; call DetectFrom before any
// explicit setters if both are needed.
func (ps *ProblemSpec) DetectFrom(X mat.Matrix, y mat.Matrix) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.WithStack(errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yCols != 1 {
		return errors.NewDimensionError("ProblemSpec.DetectFrom", 1, yCols, 1)
	}
	if yRows != rows {
		return errors.NewDimensionError("ProblemSpec.DetectFrom", rows, yRows, 0)
	}

	seen := make(map[float64]struct{}, 8)
	labels := make([]float64, 0, 8)
	for i := 0; i < yRows; i++ {
		v := y.At(i, 0)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		labels = append(labels, v)
	}
	sort.Float64s(labels)

	ps.columnCount = cols
	ps.rowCount = rows
	ps.problemKind = Classification
	SetClasses(ps, labels)
	return nil
}
