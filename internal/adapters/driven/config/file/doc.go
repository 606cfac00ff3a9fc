// Package file stores settings in ~/.docspace/config.toml.
//
// Keys are flattened to "section.key" on load and nested into TOML tables on
// save. Environment variables overlay the file on every read and are never
// written back.
package file
