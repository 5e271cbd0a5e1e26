// Package logs reads the auto3d log file for `auto3d logs`.
//
// The log is read as entries rather than raw lines: the console format writes
// a header line followed by indented field lines, and an entry keeps them
// together so filters never split a record. Both console and JSON output are
// understood. Follow mode polls the file and survives truncation.
package logs
