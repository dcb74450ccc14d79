// Package images discovers the still images of a job and pairs them with
// transcript sentences.
//
// Image files carry their display order as a numeric suffix in the file stem
// (image_1.png, image_2.jpg, ...). Sequence sorts them by that ordinal and
// assigns each one the span of the matching sentence, so the slideshow cuts
// exactly on sentence boundaries.
package images
