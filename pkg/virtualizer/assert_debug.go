//go:build vlistdebug

package virtualizer

import "fmt"

// contractChecks reports whether extractor contract violations panic.
const contractChecks = true

func contractViolation(msg string, index, prev, count int) {
	panic(fmt.Sprintf("virtualizer: %s (index=%d, prev=%d, count=%d)", msg, index, prev, count))
}
