// Package billing holds the cent-level calculation engine: deterministic rounding,
// invoice numbering, invoice totals and customer dues.
//
// Money crosses every exported boundary as int64 cents. float64 only appears as
// scratch space for quantities and rates, and is normalized before any rounding
// decision is taken. Nothing in this package performs I/O or reads process state,
// so every function is safe for concurrent use.
package billing
