// Package pagination provides the paging and sorting flags shared by the
// character listing commands, plus the pagination metadata printed with
// structured output.
//
//   - PaginationParams: --page, --page-size, --all-pages and --sort flags
//   - PaginationMeta: metadata for JSON and NDJSON output
//   - Sorter: sort-key validation in front of engine.SortCharacters
package pagination
