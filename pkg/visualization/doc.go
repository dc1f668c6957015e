// Package visualization renders analysed radiographs as annotated JPEG
// thumbnails.
//
// Rendering is headless. Setup fixes the thumbnail options once per process
// before any analysis runs; later calls are ignored.
package visualization
