// Command reelforge renders vertical short-form videos from job folders and
// inspects the reelforged job history.
//
// One-shot renders (compose, plan) run in-process; serve starts the HTTP
// daemon in the foreground. Job, cleanup, and config commands operate on the
// local state directories directly.
package main
