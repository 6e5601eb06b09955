// Package server implements an MCP (Model Context Protocol) server for the
// tooltip pipeline.
//
// The server speaks JSON-RPC 2.0 over stdio so MCP clients can read item
// tooltips from screenshots and inspect the intermediate steps when a result
// looks wrong.
//
// # Protocol
//
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods: initialize, tools/list, tools/call and ping.
//
// # Available Tools
//
//   - tooltip_parse: the structured item record
//   - tooltip_region: tooltip rectangle and separator row
//   - tooltip_ocr: recognized fragments with color, bullet flag and
//     classification outcome
//   - tooltip_annotate: a PNG of the upscaled crop with fragment boxes and
//     the separator drawn in
//   - tooltip_clean_text: the text cleanup applied to each line
//
// # Image Caching
//
// Screenshots are cached by path, so calling tooltip_region and then
// tooltip_ocr on the same file decodes it once. A file overwritten with a new
// capture is decoded again because its size or modification time changed.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000 and the Go error string as data. A screenshot without tooltip text
// is not an error; tooltip_parse returns an empty record.
package server
