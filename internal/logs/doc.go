// Package logs reads the matchreel log file for `matchreel logs`.
//
// Last returns the final lines with the offset to continue from, and Follow
// streams lines appended after that offset until the context ends. A log file
// that shrinks (rotated or truncated) is read again from the start.
package logs
