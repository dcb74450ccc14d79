// Package workflow runs render jobs end to end.
//
// A Runner records each request in the jobs store, waits for a compositor
// slot from the Pool, renders through compose, optionally publishes through
// storage, and records the terminal status. Each job also writes a JSON
// debug log under <log_dir>/jobs.
package workflow
