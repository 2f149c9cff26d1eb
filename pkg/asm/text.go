package asm

import "strings"

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// SplitLines normalizes CRLF and CR line endings to LF and splits text into lines.
// Empty text yields a single empty line.
func SplitLines(text string) []string {
	return strings.Split(lineEndings.Replace(text), "\n")
}
