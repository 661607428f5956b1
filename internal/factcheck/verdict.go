package factcheck

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Verdict is the closed vocabulary of claim classifications. Raw service
// verdicts are normalized through ParseVerdict before use so downstream
// comparisons are exact matches; anything outside the vocabulary maps to
// VerdictUnknown rather than silently passing through.
type Verdict string

const (
	VerdictTrue                Verdict = "TRUE"
	VerdictMostlyTrue          Verdict = "MOSTLY_TRUE"
	VerdictPartiallyTrue       Verdict = "PARTIALLY_TRUE"
	VerdictUnverified          Verdict = "UNVERIFIED"
	VerdictMisleading          Verdict = "MISLEADING"
	VerdictFalse               Verdict = "FALSE"
	VerdictMisinformation      Verdict = "MISINFORMATION"
	VerdictFalseMisinformation Verdict = "FALSE_MISINFORMATION"
	VerdictError               Verdict = "ERROR"
	VerdictUnknown             Verdict = "UNKNOWN"
)

// neutralScore is used for empty result sets and unknown verdicts.
const neutralScore = 50

// ErrorScore is the reserved sentinel meaning the score could not be computed.
const ErrorScore = -1

var knownVerdicts = map[Verdict]struct{}{
	VerdictTrue:                {},
	VerdictMostlyTrue:          {},
	VerdictPartiallyTrue:       {},
	VerdictUnverified:          {},
	VerdictMisleading:          {},
	VerdictFalse:               {},
	VerdictMisinformation:      {},
	VerdictFalseMisinformation: {},
	VerdictError:               {},
}

// ParseVerdict normalizes a raw service verdict into the closed vocabulary.
// Normalization upper-cases and rewrites " - " separators, so
// "False - Misinformation" becomes FALSE_MISINFORMATION.
func ParseVerdict(raw string) Verdict {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " - ", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	if normalized == "" {
		return VerdictUnknown
	}
	verdict := Verdict(normalized)
	if _, ok := knownVerdicts[verdict]; !ok {
		return VerdictUnknown
	}
	return verdict
}

// Score returns the credibility value for a verdict. The mapping is total:
// every member of the vocabulary has an explicit entry, unknown verdicts
// score neutral, and VerdictError yields the reserved sentinel.
func (v Verdict) Score() int {
	switch v {
	case VerdictTrue:
		return 100
	case VerdictMostlyTrue:
		return 85
	case VerdictPartiallyTrue:
		return 70
	case VerdictUnverified:
		return neutralScore
	case VerdictMisleading:
		return 30
	case VerdictFalse:
		return 10
	case VerdictMisinformation, VerdictFalseMisinformation:
		return 0
	case VerdictError:
		return ErrorScore
	default:
		return neutralScore
	}
}

var displayCaser = cases.Title(language.English)

// Display renders the verdict for human-facing surfaces, e.g.
// FALSE_MISINFORMATION becomes "False Misinformation".
func (v Verdict) Display() string {
	if v == "" {
		return displayCaser.String(string(VerdictUnknown))
	}
	return displayCaser.String(strings.ReplaceAll(strings.ToLower(string(v)), "_", " "))
}
