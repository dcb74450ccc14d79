// Package daemonrun assembles the runtime stack (jobs store, music catalog,
// composer, uploader, workflow runner) and runs the reelforged process.
//
// The CLI reuses NewStack for one-shot renders so both entry points share
// the same wiring.
package daemonrun
