package randomforest

import (
	"testing"

	verrors "github.com/aschampion/vigra/pkg/errors"
)

func TestNewOptionsDefaults(t *testing.T) {
	o := NewOptions()

	if got := o.Proportion(); got != 1.0 {
		t.Errorf("Proportion() = %v, want 1.0", got)
	}
	if got := o.TrainingSetSize(); got != 0 {
		t.Errorf("TrainingSetSize() = %v, want 0", got)
	}
	if got := o.SampleStrategy(); got != Proportional {
		t.Errorf("SampleStrategy() = %v, want Proportional", got)
	}
	if !o.WithReplacement() {
		t.Error("WithReplacement() = false, want true")
	}
	if got := o.Stratification(); got != None {
		t.Errorf("Stratification() = %v, want None", got)
	}
	if got := o.MtryStrategy(); got != Sqrt {
		t.Errorf("MtryStrategy() = %v, want Sqrt", got)
	}
	if got := o.NumTrees(); got != 256 {
		t.Errorf("NumTrees() = %v, want 256", got)
	}
	if got := o.MinSplitSize(); got != 1 {
		t.Errorf("MinSplitSize() = %v, want 1", got)
	}
	if o.HasTrainingSetFunc() || o.HasMtryFunc() {
		t.Error("fresh options should carry no external functions")
	}
}

// Build a configuration through the fluent chain, push it through the
// flat buffer and verify every field survives.
func TestOptionsSerializeRoundTrip(t *testing.T) {
	o := NewOptions().
		TreeCount(100).
		MinSplitNodeSize(5).
		FeaturesPerNode(Sqrt).
		SampleWithReplacement(false)

	buf := make([]float64, o.SerializedSize())
	if err := o.Serialize(buf); err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	restored := NewOptions()
	if err := restored.Unserialize(buf); err != nil {
		t.Fatalf("Unserialize() error = %v", err)
	}

	if got := restored.NumTrees(); got != 100 {
		t.Errorf("NumTrees() = %v, want 100", got)
	}
	if got := restored.MinSplitSize(); got != 5 {
		t.Errorf("MinSplitSize() = %v, want 5", got)
	}
	if got := restored.MtryStrategy(); got != Sqrt {
		t.Errorf("MtryStrategy() = %v, want Sqrt", got)
	}
	if restored.WithReplacement() {
		t.Error("WithReplacement() = true, want false")
	}
	if !restored.Equal(o) {
		t.Error("restored options not equal to original")
	}
}

func TestOptionsSerializeFunctionFlag(t *testing.T) {
	o := NewOptions().
		SamplesPerTreeFunc(func(n int) int { return n / 2 }).
		FeaturesPerNodeFunc(func(n int) int { return n / 4 })

	buf := make([]float64, o.SerializedSize())
	if err := o.Serialize(buf); err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if buf[2] != 1 {
		t.Errorf("sample-function presence flag = %v, want 1", buf[2])
	}
	if buf[8] != 1 {
		t.Errorf("feature-function presence flag = %v, want 1", buf[8])
	}

	restored := NewOptions()
	if err := restored.Unserialize(buf); err != nil {
		t.Fatalf("Unserialize() error = %v", err)
	}
	// The functions themselves are lost; only the strategy tags survive.
	if restored.HasTrainingSetFunc() || restored.HasMtryFunc() {
		t.Error("functions must not be reconstructed from the flat buffer")
	}
	if got := restored.SampleStrategy(); got != Function {
		t.Errorf("SampleStrategy() = %v, want Function", got)
	}
	if got := restored.MtryStrategy(); got != Function {
		t.Errorf("MtryStrategy() = %v, want Function", got)
	}
	if !restored.Equal(o) {
		t.Error("equality must ignore function identity")
	}
}

func TestOptionsSerializeWarnsOnDroppedFunctions(t *testing.T) {
	var warnings []error
	prev := verrors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer verrors.SetWarningHandler(prev)

	o := NewOptions().
		SamplesPerTreeFunc(func(n int) int { return n }).
		FeaturesPerNodeFunc(func(n int) int { return n })

	buf := make([]float64, o.SerializedSize())
	if err := o.Serialize(buf); err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	if len(warnings) != 2 {
		t.Fatalf("got %d warnings, want 2", len(warnings))
	}
	fields := map[string]bool{}
	for _, w := range warnings {
		var lsw *verrors.LossySerializationWarning
		if !verrors.As(w, &lsw) {
			t.Fatalf("warning %v is not a LossySerializationWarning", w)
		}
		fields[lsw.Field] = true
	}
	if !fields["training_set_func_"] || !fields["mtry_func_"] {
		t.Errorf("warned fields = %v, want both function fields", fields)
	}

	// No functions set, no warnings.
	warnings = nil
	if err := NewOptions().Serialize(buf); err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("got %d warnings for a function-free configuration, want 0", len(warnings))
	}
}

func TestOptionsSerializeWrongLength(t *testing.T) {
	o := NewOptions()
	for _, n := range []int{0, 10, 12} {
		buf := make([]float64, n)
		if err := o.Serialize(buf); err == nil {
			t.Errorf("Serialize() with %d slots: expected error", n)
		} else {
			var bse *verrors.BufferSizeError
			if !verrors.As(err, &bse) {
				t.Errorf("Serialize() with %d slots: error %v is not a BufferSizeError", n, err)
			}
		}
		if err := o.Unserialize(buf); err == nil {
			t.Errorf("Unserialize() with %d slots: expected error", n)
		}
	}
}

func TestOptionsIllegalTag(t *testing.T) {
	tests := []struct {
		name string
		call func(o *Options)
	}{
		{"features_per_node rejects Equal", func(o *Options) { o.FeaturesPerNode(Equal) }},
		{"features_per_node rejects Proportional", func(o *Options) { o.FeaturesPerNode(Proportional) }},
		{"use_stratification rejects Log", func(o *Options) { o.UseStratification(Log) }},
		{"use_stratification rejects Const", func(o *Options) { o.UseStratification(Const) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions()
			func() {
				defer func() {
					r := recover()
					if r == nil {
						t.Fatal("expected a ValidationError panic")
					}
					err, ok := r.(error)
					if !ok {
						t.Fatalf("panic value %v is not an error", r)
					}
					var ve *verrors.ValidationError
					if !verrors.As(err, &ve) {
						t.Fatalf("panic error %v is not a ValidationError", err)
					}
				}()
				tt.call(o)
			}()
			// Failed validation must leave the prior state untouched.
			if got := o.MtryStrategy(); got != Sqrt {
				t.Errorf("MtryStrategy() = %v after failed setter, want Sqrt", got)
			}
			if got := o.Stratification(); got != None {
				t.Errorf("Stratification() = %v after failed setter, want None", got)
			}
		})
	}
}

func TestResolveMtry(t *testing.T) {
	tests := []struct {
		name string
		opts *Options
		cols int
		want int
	}{
		{"sqrt of 16", NewOptions().FeaturesPerNode(Sqrt), 16, 4},
		{"sqrt rounds", NewOptions().FeaturesPerNode(Sqrt), 10, 3},
		{"log of 16", NewOptions().FeaturesPerNode(Log), 16, 3},
		{"all", NewOptions().FeaturesPerNode(All), 7, 7},
		{"const", NewOptions().FeaturesPerNodeCount(5), 16, 5},
		{"const clamped to columns", NewOptions().FeaturesPerNodeCount(40), 16, 16},
		{"const raised to one", NewOptions().FeaturesPerNodeCount(0), 16, 1},
		{"function", NewOptions().FeaturesPerNodeFunc(func(n int) int { return n / 2 }), 16, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.ResolveMtry(tt.cols)
			if err != nil {
				t.Fatalf("ResolveMtry(%d) error = %v", tt.cols, err)
			}
			if got != tt.want {
				t.Errorf("ResolveMtry(%d) = %v, want %v", tt.cols, got, tt.want)
			}
		})
	}

	if _, err := NewOptions().ResolveMtry(0); err == nil {
		t.Error("ResolveMtry(0): expected error")
	}
}

func TestResolveSampleCount(t *testing.T) {
	tests := []struct {
		name string
		opts *Options
		rows int
		want int
	}{
		{"full proportion", NewOptions(), 100, 100},
		{"half proportion", NewOptions().SamplesPerTree(0.5), 100, 50},
		{"const", NewOptions().SamplesPerTreeCount(30), 100, 30},
		{"const clamped to rows", NewOptions().SamplesPerTreeCount(500), 100, 100},
		{"function", NewOptions().SamplesPerTreeFunc(func(n int) int { return n - 10 }), 100, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.ResolveSampleCount(tt.rows)
			if err != nil {
				t.Fatalf("ResolveSampleCount(%d) error = %v", tt.rows, err)
			}
			if got != tt.want {
				t.Errorf("ResolveSampleCount(%d) = %v, want %v", tt.rows, got, tt.want)
			}
		})
	}
}

func TestOptionsEqual(t *testing.T) {
	a := NewOptions()
	b := NewOptions()
	if !a.Equal(b) {
		t.Error("two fresh options must be equal")
	}
	b.TreeCount(10)
	if a.Equal(b) {
		t.Error("options differing in tree count must not be equal")
	}
}
