package factcheck

import (
	"fmt"
	"math"
	"time"

	"veracity/internal/services"
	"veracity/internal/services/verifier"
)

// Primary-claim selection strategies. The external service's summary mode
// returns a single dominant claim, so "first" is the default; thorough mode
// can prefer the highest-confidence claim instead.
const (
	PrimaryClaimFirst      = "first"
	PrimaryClaimConfidence = "confidence"
)

// TransformOptions tune how a raw payload maps onto a Record.
type TransformOptions struct {
	// PrimaryClaim selects which validation element supplies the record's
	// verdict and summary: PrimaryClaimFirst or PrimaryClaimConfidence.
	PrimaryClaim string
	// Now stamps FactCheckedAt; zero means time.Now.
	Now time.Time
}

// Transform maps the service's heterogeneous validation payload into a
// canonical, scored record. An empty validation_results array is valid input
// and yields the neutral score; a payload missing required fields is a
// permanent failure tagged services.ErrMalformed.
func Transform(articleID int64, jobID string, result *verifier.Result, opts TransformOptions) (*Record, error) {
	if result == nil {
		return nil, services.Wrap(services.ErrMalformed, "transform", "payload", "nil result", nil)
	}

	at := opts.Now
	if at.IsZero() {
		at = time.Now()
	}

	record := &Record{
		ArticleID:       articleID,
		JobID:           jobID,
		ClaimsAnalyzed:  result.Statistics.TotalClaims,
		ClaimsValidated: result.Statistics.ValidatedClaims,
		RawPayload:      append([]byte(nil), result.Raw...),
		FactCheckedAt:   at.UTC(),
	}
	if record.ClaimsAnalyzed == 0 {
		record.ClaimsAnalyzed = len(result.ValidationResults)
	}

	if len(result.ValidationResults) == 0 {
		record.Verdict = VerdictUnverified
		record.CredibilityScore = neutralScore
		return record, nil
	}

	var totalScore, totalWeight float64
	counts := make(map[Verdict]int, len(knownVerdicts))
	for i, element := range result.ValidationResults {
		if element.ValidationOutput.Verdict == "" {
			return nil, services.Wrap(services.ErrMalformed, "transform", "payload",
				fmt.Sprintf("validation_results[%d] missing verdict", i), nil)
		}
		verdict := ParseVerdict(element.ValidationOutput.Verdict)
		counts[verdict]++

		confidence := clampConfidence(element.ValidationOutput.Confidence)
		totalScore += float64(verdict.Score()) * confidence
		totalWeight += confidence
	}

	record.ClaimsTrue = counts[VerdictTrue]
	record.ClaimsMisleading = counts[VerdictMisleading]
	record.ClaimsUnverified = counts[VerdictUnverified] + counts[VerdictUnknown]
	record.ClaimsMisinformation = counts[VerdictMisinformation] + counts[VerdictFalseMisinformation]
	// Published aggregate folds misinformation verdicts into the false
	// counter; ClaimsMisinformation above preserves the distinction.
	record.ClaimsFalse = counts[VerdictFalse] + record.ClaimsMisinformation

	if totalWeight > 0 {
		record.CredibilityScore = int(math.Round(totalScore / totalWeight))
	} else {
		record.CredibilityScore = neutralScore
	}

	primary := selectPrimary(result.ValidationResults, opts.PrimaryClaim)
	record.Verdict = ParseVerdict(primary.ValidationOutput.Verdict)
	record.Summary = primary.ValidationOutput.Summary
	confidence := clampConfidence(primary.ValidationOutput.Confidence)
	record.Confidence = &confidence
	record.NumSources = primary.NumSources
	if primary.ValidationOutput.SourceAnalysis != nil {
		record.SourceConsensus = primary.ValidationOutput.SourceAnalysis.Consensus
	}

	return record, nil
}

func selectPrimary(elements []verifier.ValidationResult, strategy string) verifier.ValidationResult {
	if strategy != PrimaryClaimConfidence || len(elements) == 1 {
		return elements[0]
	}
	best := elements[0]
	for _, candidate := range elements[1:] {
		if candidate.ValidationOutput.Confidence > best.ValidationOutput.Confidence {
			best = candidate
		}
	}
	return best
}

func clampConfidence(value float64) float64 {
	if value < 0 || math.IsNaN(value) {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
