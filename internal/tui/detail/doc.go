// Package detail renders the character card shown when a row is opened in
// the browser: name, status badge, species, gender, origin, last known
// location and episode count.
package detail
