// Package gifpress converts animated GIFs to animated WebP, searching a small
// set of candidate encodings for the best trade-off between perceptual quality
// and output size.
package gifpress

// Version is the current gifpress version
const Version = "0.3.1"
