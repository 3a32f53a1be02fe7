// Package grid implements the aligned 2-D grid primitives the image
// algorithms in this library are built on: copy a source grid into an
// equally-sized destination, optionally transforming each cell and
// optionally gated by a boolean mask grid. The forest feature
// extractors reuse them for pixel-wise work.
package grid

import (
	"gonum.org/v1/gonum/mat"

	"github.com/aschampion/vigra/pkg/errors"
)

// CellFunc transforms a single cell value.
type CellFunc func(v float64) float64

// Copy copies src into dst. Both grids must have identical dimensions.
func Copy(dst *mat.Dense, src mat.Matrix) error {
	return Apply(dst, src, nil)
}

// CopyIf copies src into dst wherever the corresponding mask cell is
// non-zero. Masked-out destination cells are left untouched. All three
// grids must have identical dimensions.
func CopyIf(dst *mat.Dense, src, mask mat.Matrix) error {
	return ApplyIf(dst, src, mask, nil)
}

// Apply writes f(src[r,c]) into every cell of dst. A nil f copies the
// value unchanged.
func Apply(dst *mat.Dense, src mat.Matrix, f CellFunc) error {
	rows, cols, err := alignedDims("grid.Apply", dst, src)
	if err != nil {
		return err
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := src.At(r, c)
			if f != nil {
				v = f(v)
			}
			dst.Set(r, c, v)
		}
	}
	return nil
}

// ApplyIf writes f(src[r,c]) into every cell of dst whose mask cell is
// non-zero. A nil f copies the value unchanged.
func ApplyIf(dst *mat.Dense, src, mask mat.Matrix, f CellFunc) error {
	rows, cols, err := alignedDims("grid.ApplyIf", dst, src)
	if err != nil {
		return err
	}
	if _, _, err := alignedDims("grid.ApplyIf", dst, mask); err != nil {
		return err
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if mask.At(r, c) == 0 {
				continue
			}
			v := src.At(r, c)
			if f != nil {
				v = f(v)
			}
			dst.Set(r, c, v)
		}
	}
	return nil
}

func alignedDims(op string, dst *mat.Dense, src mat.Matrix) (rows, cols int, err error) {
	dr, dc := dst.Dims()
	sr, sc := src.Dims()
	if dr != sr {
		return 0, 0, errors.NewDimensionError(op, dr, sr, 0)
	}
	if dc != sc {
		return 0, 0, errors.NewDimensionError(op, dc, sc, 1)
	}
	return dr, dc, nil
}
