// Package detection locates the tooltip and its internal layout in a screenshot.
//
// Two detectors are provided:
//
//   - DetectTooltipRegion: the fixed crop rectangle of the item tooltip on a
//     2560x1440 screenshot, clamped to the actual image size
//   - DetectSeparatorLine: the y position of the thin gray rule that divides
//     the base stat from the affix list inside that crop
//
// # Region Detection
//
// The tooltip always renders at the same place on the reference resolution,
// so the region detector performs no content analysis. It never reports
// failure for screenshots at or near the reference size; for undersized
// images it returns a zero-area Region, which callers must treat as
// "not found".
//
// # Separator Detection
//
// The separator scan runs over grayscale rows of the crop, skipping the
// energy bar near the top:
//
//  1. Count mid-brightness pixels (a solid gray line) and bright pixels (text)
//  2. Require a clear line with almost no text on it
//  3. Require dark background a few pixels above and below (a thin rule)
//  4. Keep the lowest qualifying row
//
// Thresholds are exposed through SeparatorParams.
//
// # Coordinate System
//
// Region coordinates are screenshot pixels. Separator positions are
// crop-local and measured before any OCR upscaling.
package detection
