// Package pipeline implements the document assembly stages: MDX
// preprocessing, Markdown to HTML normalization, image path resolution,
// DocumentNode tree construction, table of contents generation, and final
// page composition.
//
// Stages degrade instead of failing: per-document problems (stripped MDX
// constructs, unresolved images, malformed metadata) surface as Warnings
// attached to stage results and the pipeline keeps going. Only the renderer
// downstream of this package treats errors as fatal.
package pipeline
