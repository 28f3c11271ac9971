// Package imageops holds the pixel operations used to turn a composite
// screenshot into slide images: decode, crop, resize, sharpen and encode.
//
// Pixel work goes through github.com/disintegration/imaging; JPEG output goes
// through github.com/gen2brain/jpegli (progressive, 4:4:4). Callers never
// touch either library directly. All functions are pure: they never mutate
// their input.
package imageops
