package equity

// IAAO ratio-study standards.
const (
	codExcellent = 10.0
	codGood      = 15.0
	codFair      = 20.0

	prdExcellent = 1.03
	prdGood      = 1.05
	prdFair      = 1.10
	// below this PRD the roll is progressive
	prdFloor = 0.98

	levelTarget    = 100.0
	levelTolerance = 10.0

	prbTolerance = 0.05
)

// Weights of the overall bias score.
const (
	incomeBiasWeight     = 0.25
	raceBiasWeight       = 0.25
	urbanRuralBiasWeight = 0.20
	valueLevelBiasWeight = 0.30
)

// Options tunes the estimators. Zero fields take the defaults.
type Options struct {
	// Sales below this price form the low-value group of the value-level bias.
	LowValueCeiling float64 `json:"low_value_ceiling" yaml:"low_value_ceiling" mapstructure:"low-value-ceiling"`
	// Sales above this price form the high-value group.
	HighValueFloor float64 `json:"high_value_floor" yaml:"high_value_floor" mapstructure:"high-value-floor"`
	// Minimum paired observations for a correlation estimate.
	MinCorrelationSamples int `json:"min_correlation_samples" yaml:"min_correlation_samples" mapstructure:"min-correlation-samples"`
	// Minimum records per group for group-difference estimates.
	MinGroupSize int `json:"min_group_size" yaml:"min_group_size" mapstructure:"min-group-size"`
	// Neighbour band for Moran's I weights.
	MoranBandMiles float64 `json:"moran_band_miles" yaml:"moran_band_miles" mapstructure:"moran-band-miles"`
	// Ratio studies below this size get a small-sample warning.
	SmallSample int `json:"small_sample" yaml:"small_sample" mapstructure:"small-sample"`
}

func DefaultOptions() Options {
	return Options{
		LowValueCeiling:       200000,
		HighValueFloor:        500000,
		MinCorrelationSamples: 5,
		MinGroupSize:          3,
		MoranBandMiles:        2.0,
		SmallSample:           30,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.LowValueCeiling <= 0 {
		o.LowValueCeiling = d.LowValueCeiling
	}
	if o.HighValueFloor <= 0 {
		o.HighValueFloor = d.HighValueFloor
	}
	if o.MinCorrelationSamples < 2 {
		o.MinCorrelationSamples = d.MinCorrelationSamples
	}
	if o.MinGroupSize <= 0 {
		o.MinGroupSize = d.MinGroupSize
	}
	if o.MoranBandMiles <= 0 {
		o.MoranBandMiles = d.MoranBandMiles
	}
	if o.SmallSample <= 0 {
		o.SmallSample = d.SmallSample
	}
	return o
}
