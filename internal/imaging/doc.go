// Package imaging provides the pixel-level operations the tooltip pipeline needs.
//
// This package loads screenshots, crops and upscales the tooltip region,
// samples text colors and draws debug overlays of what was recognized. All operations work with standard Go image.Image types
// and use a coordinate system where (0,0) is at the top-left corner, X
// increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive (top-left) and Max is exclusive (bottom-right)
//
// Crop, Grayscale and NewHSVImage re-base their output to (0,0), so boxes
// reported by the OCR engine for a crop index the color planes directly.
//
// # Color Representation
//
// Text colors are reported as HSV on OpenCV's 8-bit scale:
//   - H: 0-180 (half degrees)
//   - S: 0-255
//   - V: 0-255
//
// Classification windows elsewhere in the module (for example the warm
// orange of flavor text, H 12-28 and S 80-170) are written against this scale.
// The zero HSV value is reserved as the "undetermined" sentinel.
//
// # Error Handling
//
// Load distinguishes a file that cannot be decoded (wrapped ErrUnreadable)
// from an open failure. The sampling functions never fail: boxes are clamped
// to the image and degenerate boxes degrade to the zero sentinel or false.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. HSVImage and the sampling
// functions are read-only over their inputs.
package imaging
