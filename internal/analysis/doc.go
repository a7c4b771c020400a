// Package analysis derives polymer statistics from binned populations.
//
// The package turns a [kinetics.Series] into the scalar series a plot or
// report needs:
//
//   - [PolymerMass], [PolymerNumber], [MeanLength]: per-bin aggregates
//   - [MassSeries], [NumberSeries], [LengthSeries]: the same over a series
//   - [Moments]: ensemble mean and second moment of mass, number and length
//   - [SpeciesSeries]: dense per-species time series
//   - [Histogram]: mass-weighted size distribution of one bin
//
// # Example
//
//	mass := analysis.MassSeries(result.Mean)
//	hist := analysis.Histogram(result.Mean[len(result.Mean)-1])
//
// Mean length is defined as zero for bins without polymers.
package analysis
