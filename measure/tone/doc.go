// Package tone measures steady-state tone gain and delay of mono processors.
//
// Measurements use bin-centred sine tones so a rectangular analysis window
// captures every tone without leakage. [Analyzer.Gain] compares one FFT bin of
// input and output; [Analyzer.PeakLag] finds the lag of the cross-correlation
// peak between a reference and a delayed copy.
package tone
