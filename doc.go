// Package vigra is a Go port of parts of the VIGRA computer vision
// library, centered on the random forest configuration core.
//
// The randomforest package holds the training options, problem
// specification, default early stopping criterion and the default
// substitution mechanism for pluggable strategies. The grid package
// provides the aligned 2-D copy primitives the image algorithms build
// on. The core/model package persists model headers and exchanges
// their flat buffers with NumPy tooling.
//
// Serialized buffers keep VIGRA's exact field order and width so that
// model files interchange with the C++ library.
package vigra
