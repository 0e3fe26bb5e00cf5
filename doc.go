// Package decimator provides a sample-clocked, fixed-point decimation
// pipeline for oversampled ADC data in pure Go.
//
// The pipeline cascades three stages: a Cascaded-Integrator-Comb (CIC)
// decimator, a symmetric FIR that compensates the CIC passband droop, and a
// halfband FIR. Every stage saturates instead of wrapping and reports what
// happened through one-tick status flags. A 128-word configuration/status
// register file holds the FIR and halfband coefficient banks and exposes
// the aggregated status, busy, error and error-type words.
//
// # Features
//
//   - Bit-accurate saturating arithmetic on explicit signed widths
//   - Double-buffered CIC integrators and combs with runtime D/M changes
//   - Registered FIR and sparse halfband MACs with coefficient hot-swap
//   - Register file with validated writes and default coefficient banks
//   - Error-type precedence: overflow, underflow, invalid config,
//     invalid address, coefficient range
//   - Tick-level API for bench-style use and a batch streaming API
//   - Parallel multichannel helpers, one Decimator per channel
//
// # Quick Start
//
// For one-shot decimation of a captured buffer:
//
//	out, err := decimator.Decimate(samples, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For tick-level control, drive the valid/ready handshake directly:
//
//	d, err := decimator.New(decimator.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, s := range samples {
//	    out := d.Tick(decimator.Input{Sample: int64(s), Valid: true, Enable: true})
//	    if out.Valid {
//	        emit(out.Sample)
//	    }
//	    if out.Error {
//	        log.Printf("decimator error: %s", out.ErrorType)
//	    }
//	}
//
// # Register Map
//
//	0x00-0x3F  FIR coefficients, signed 18-bit, 1.0 == 0x10000
//	0x40-0x60  halfband coefficients, odd indices must be zero
//	0x61-0x7F  general purpose
//	0x80       status byte
//	0x81       busy
//	0x82       error type
//	0x83       error
//	0x84-0xFF  reserved, writes raise invalid-address
//
// Status byte bits, MSB first: CIC active, FIR active, halfband active,
// error, overflow, underflow, invalid config, coefficient range.
//
// # Thread Safety
//
// A Decimator is not safe for concurrent use. Use one Decimator per channel;
// DecimateMulti runs channels in parallel goroutines.
package decimator
