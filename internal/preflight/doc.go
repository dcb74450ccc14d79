// Package preflight provides readiness checks for the filesystem paths and
// external binaries reelforge depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and reports the results on
//     /api/status.
//   - The CLI "reelforge status" command prints the same results.
//
// Storage credentials are checked only when uploads are enabled.
package preflight
