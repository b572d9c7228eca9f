// Package catalog models the public character catalog and provides the HTTP
// client used to read it.
//
// The remote API exposes three paginated listings (characters, locations and
// episodes). Every listing returns the same envelope:
//
//	{"info": {"count": 826, "pages": 42, "next": "...", "prev": null}, "results": [...]}
//
// Only the character listing accepts filter parameters (name, status, gender).
// Everything else the browser filters on is applied client-side by the engine
// package.
package catalog
