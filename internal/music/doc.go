// Package music resolves background-music selections to audio files.
//
// A Catalog maps short track names ("lofi", "upbeat", ...) to files inside a
// configured directory. Resolution happens before any compositor work starts
// so that a bad selection fails the job without touching the filesystem.
package music
