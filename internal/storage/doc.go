// Package storage publishes rendered reels to Google Cloud Storage.
//
// Objects are written to <prefix>/<video_id>/output.mp4, made publicly
// readable, and addressed by their storage.googleapis.com URL.
package storage
