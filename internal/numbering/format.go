// Package numbering renders complaint display numbers.
package numbering

import "fmt"

const prefix = "CMP"

// Format renders CMP-<zoneCode>-<year>-<seq>, with seq zero-padded to at least four digits.
// An empty zone code or a negative sequence is a programming error and panics.
func Format(zoneCode string, year, seq int) string {
	if zoneCode == "" {
		panic("numbering: empty zone code")
	}
	if seq < 0 {
		panic(fmt.Sprintf("numbering: negative sequence %d", seq))
	}
	return fmt.Sprintf("%s-%s-%04d-%04d", prefix, zoneCode, year, seq)
}
