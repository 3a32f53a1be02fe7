package randomforest

// Param carries either a caller-supplied value or the request to use
// the library default for one of the pluggable strategies a training
// entry point accepts (split functor, stop criterion, visitor).
//
// The zero value requests the default, so a caller that does not care
// can simply pass Default[T]() — or nothing at all when the parameter
// is a struct field. Resolution is a single branch on a bool; there is
// no reflection, no heap allocation and no process-wide sentinel.
type Param[T any] struct {
	value T
	set   bool
}

// Value wraps an explicit strategy value.
func Value[T any](v T) Param[T] {
	return Param[T]{value: v, set: true}
}

// Default requests the library default.
func Default[T any]() Param[T] {
	return Param[T]{}
}

// IsDefault reports whether the library default was requested.
func (p Param[T]) IsDefault() bool {
	return !p.set
}

// Or resolves the parameter: the caller's value if one was supplied,
// def otherwise.
func (p Param[T]) Or(def T) T {
	if p.set {
		return p.value
	}
	return def
}

// ChooseStop resolves a stop-criterion parameter against the standard
// default, an EarlyStop built from opts. This is the resolution step a
// training driver performs once per growth call.
func ChooseStop(p Param[StopCriterion], opts *Options) StopCriterion {
	return p.Or(NewEarlyStop(opts))
}
