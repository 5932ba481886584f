//go:build !vlistdebug

package virtualizer

// contractChecks reports whether extractor contract violations panic.
const contractChecks = false

func contractViolation(string, int, int, int) {}
