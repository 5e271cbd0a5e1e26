// Package generator drives Meshy image-to-3D tasks.
//
// Submit creates a task for an image URL, Await polls it on a fixed interval
// until it settles and downloads the resulting model, and Generate combines
// the two. Await has no ceiling unless WithMaxWait is set.
package generator
