// Package storage persists extracted tables as CSV or JSON files.
//
// Each table is written to <data dir>/<name>.<format>, replacing any
// previous file of the same name. The default location is
// ~/.local/share/abt/.
package storage
