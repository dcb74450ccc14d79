// Package daemon coordinates the long-running reelforged process.
//
// It wires configuration, the jobs store, and the workflow runner into a
// single lifecycle with flock-based locking to prevent multiple instances.
// At startup it recovers from a previous crash: in-flight jobs are failed,
// orphaned job workspaces are removed, and expired job logs are pruned. It
// then serves the HTTP API.
//
// Keep orchestration logic here: rendering lives in compose and job
// bookkeeping in workflow.
package daemon
