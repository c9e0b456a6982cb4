package store

import "fmt"

const referencePad = 4

// FormatReference renders the visitor-facing quote reference, e.g. TRN-0007.
func FormatReference(serviceCode string, seq int) (string, error) {
	if len(serviceCode) != 3 {
		return "", ErrInvalidReference
	}
	for _, r := range serviceCode {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidReference
		}
	}
	return fmt.Sprintf("%s-%0*d", serviceCode, referencePad, seq), nil
}
