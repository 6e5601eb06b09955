// Package ocr turns a tooltip crop into ordered, annotated text fragments.
//
// The package separates the recognizer from the post-processing around it.
// An Engine returns raw hits (polygon, text, confidence) for an image; the
// Adapter upscales the crop, calls the engine once, drops degenerate hits,
// sorts the rest top to bottom and annotates each one with the median color
// of its text and whether a bullet glyph sits to its left.
//
// # Engines
//
// TesseractEngine wraps Tesseract through gosseract/v2 and reports one
// fragment per text line. Any other recognizer can be plugged in by
// implementing Engine, or by wrapping a function with EngineFunc, which is how
// the tests drive the adapter without Tesseract installed.
//
// # Prerequisites
//
// TesseractEngine needs Tesseract and its language data on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Coordinates
//
// Fragment polygons are in the coordinates of the upscaled crop. Callers that
// compare them against crop-space positions, such as the separator row, must
// multiply those positions by Adapter.Scale.
//
// # Line Merging
//
// Engines sometimes split one visual line into several hits. MergeSameLine
// joins hits whose vertical centers lie within a threshold of the first hit
// in the row. The adapter applies it only when AdapterOptions.MergeLines is
// set.
//
// # Thread Safety
//
// TesseractEngine serializes calls internally and is safe to share. Adapter
// holds no mutable state.
package ocr
