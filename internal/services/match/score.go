package match

// Score compares a guess against a secret and returns the two feedback
// counts: exact (correct digit, correct position) and partial (correct
// digit, wrong position). Both strings are assumed to have passed
// model.ValidateDigits, so digits are pairwise distinct and a digit
// contributes to at most one count.
func Score(secret, guess string) (exact, partial int) {
	for i := 0; i < len(guess); i++ {
		for j := 0; j < len(secret); j++ {
			if guess[i] != secret[j] {
				continue
			}
			if i == j {
				exact++
			} else {
				partial++
			}
		}
	}
	return exact, partial
}
