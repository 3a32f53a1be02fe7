package model

import (
	"os"
	"path/filepath"

	"github.com/sbinet/npyio"

	"github.com/aschampion/vigra/pkg/errors"
)

// SaveVector writes a flat float64 buffer as a NumPy .npy file, the
// positional exchange format shared with Python tooling.
func SaveVector(path string, v []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewModelError("SaveVector", "create file", err)
	}
	defer f.Close()

	if err := npyio.Write(f, v); err != nil {
		return errors.NewModelError("SaveVector", "write npy", err)
	}
	return nil
}

// LoadVector reads a flat float64 buffer from a NumPy .npy file.
func LoadVector(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewModelError("LoadVector", "open file", err)
	}
	defer f.Close()

	var v []float64
	if err := npyio.Read(f, &v); err != nil {
		return nil, errors.NewModelError("LoadVector", "read npy", err)
	}
	return v, nil
}

// Names of the .npy files ExportNPY and ImportNPY exchange.
const (
	OptionsNPY = "options.npy"
	ProblemNPY = "problem.npy"
)

// ExportNPY writes the header's two flat serialization buffers into dir
// as options.npy and problem.npy.
func (h *ForestHeader) ExportNPY(dir string) error {
	optBuf := make([]float64, h.Options.SerializedSize())
	if err := h.Options.Serialize(optBuf); err != nil {
		return err
	}
	specBuf := make([]float64, h.Spec.SerializedSize())
	if err := h.Spec.Serialize(specBuf); err != nil {
		return err
	}
	if err := SaveVector(filepath.Join(dir, OptionsNPY), optBuf); err != nil {
		return err
	}
	return SaveVector(filepath.Join(dir, ProblemNPY), specBuf)
}

// ImportNPY restores the header from the files written by ExportNPY.
func (h *ForestHeader) ImportNPY(dir string) error {
	optBuf, err := LoadVector(filepath.Join(dir, OptionsNPY))
	if err != nil {
		return err
	}
	if err := h.Options.Unserialize(optBuf); err != nil {
		return err
	}
	specBuf, err := LoadVector(filepath.Join(dir, ProblemNPY))
	if err != nil {
		return err
	}
	return h.Spec.Unserialize(specBuf)
}
