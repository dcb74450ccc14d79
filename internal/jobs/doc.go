// Package jobs persists render job history in SQLite.
//
// Every compose request, whether from the CLI or the HTTP server, becomes a
// row that moves through queued, running, and uploading into a terminal
// status. Failures are classified by services.Kind so operators can tell
// input problems (review) from runtime failures (failed).
package jobs
