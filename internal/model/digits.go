package model

// DigitsLength is the required length of secrets and guesses
const DigitsLength = 4

// ValidateDigits checks the shared shape constraint on secrets and guesses:
// exactly four digits, alphabet 1-9, all pairwise distinct. This mirrors a
// constraint the backend enforces authoritatively; client-side rejection is
// an optimistic pre-check, never the sole enforcement.
func ValidateDigits(value string) error {
	if len(value) != DigitsLength {
		return ErrInvalidDigits
	}
	var seen [10]bool
	for _, c := range value {
		if c < '1' || c > '9' {
			return ErrInvalidDigits
		}
		d := int(c - '0')
		if seen[d] {
			return ErrInvalidDigits
		}
		seen[d] = true
	}
	return nil
}
