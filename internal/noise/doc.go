// Package noise implements the pure scoring algorithm of the
// noise-analysis engine (spec §4.7): event grouping, host-role
// determination, threshold lookup, piecewise-linear scoring, suggested
// exclusion synthesis, exclusion-pack aggregation, and cross-host
// pattern comparison. It has no I/O; services/noise.go wires it to
// transport and the Store.
package noise
