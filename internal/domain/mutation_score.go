package domain

import (
	"bufio"
	"strings"
)

// scoreSummaryMarker identifies the engine's summary line in run output.
const scoreSummaryMarker = "Mutation score"

// scoreSummary returns the first output line mentioning the mutation score,
// trimmed, or "" when there is none.
func scoreSummary(output string) string {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		if line := scanner.Text(); strings.Contains(line, scoreSummaryMarker) {
			return strings.TrimSpace(line)
		}
	}

	return ""
}

// mutationScoreFromListing computes the killed fraction from a results
// listing of "<id>: <STATUS>" lines. Timed out mutants count as killed and
// suspicious ones as survivors; other statuses are left out. It returns -1
// when the listing holds no scored mutant.
func mutationScoreFromListing(listing string) float64 {
	killed := 0
	total := 0

	scanner := bufio.NewScanner(strings.NewReader(listing))
	for scanner.Scan() {
		id, status, found := strings.Cut(scanner.Text(), ":")
		if !found || !isDigits(strings.TrimSpace(id)) {
			continue
		}

		switch strings.ToUpper(strings.TrimSpace(status)) {
		case "KILLED", "TIMEOUT":
			killed++
			total++
		case survivedToken, "SUSPICIOUS":
			total++
		}
	}

	if total == 0 {
		return -1
	}

	return float64(killed) / float64(total)
}
