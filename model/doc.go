// Package model provides the data structures shared by the grid extractor,
// the recognizers and the output writers.
//
// # Tables
//
// The [Table] type holds the cells produced by a grid traversal in
// row-major order:
//
//	table := model.NewTable("scan.png", 24, []int{80, 80, 80})
//	table.AppendRow(cells)
//	err := table.WriteFile("scan.csv", ',')
//
// Rows may be ragged. A row that runs past the right edge of the image ends
// with a single [CellOutOfBounds] cell.
//
// Export methods:
//
//   - WriteCSV / ToCSV - delimited text with standard quoting
//   - ToMarkdown - GitHub flavored markdown table
//   - Records - plain [][]string
//
// # Geometry
//
// Geometric primitives use image coordinates: the origin is the top left
// corner and Y grows downward.
//
//   - [BBox] - bounding box with intersection, union and overlap calculations
//   - [Point] - 2D point with distance calculation
package model
