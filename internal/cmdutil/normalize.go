// Package cmdutil tokenizes shell command lines and summarises their
// structure: pipelines, redirects, sequencing operators, substitutions,
// control-flow keywords and here-documents.
//
// Nothing here is a shell grammar. Every function is a pure, quote-aware scan
// over the raw string and is safe for concurrent use.
package cmdutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// CollapseWhitespace joins the whitespace-separated fields of cmd with
// single spaces.
func CollapseWhitespace(cmd string) string {
	return strings.Join(strings.Fields(cmd), " ")
}

// FoldCommand collapses whitespace runs and lower-cases the command.
// Two commands that differ only in spacing or letter case fold to the same
// string.
func FoldCommand(cmd string) string {
	return strings.ToLower(CollapseWhitespace(cmd))
}

// HashCommand generates a SHA256 hash of a folded command string.
// The command should already be folded before calling this function.
func HashCommand(foldedCmd string) string {
	hash := sha256.Sum256([]byte(foldedCmd))
	return hex.EncodeToString(hash[:])
}
