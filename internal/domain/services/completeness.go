package services

import "github.com/minedex/minedex/internal/domain/entities"

// Completeness score weights. Every term is additive, so enriching a
// record can never lower its score.
const (
	scoreCoordinates    = 10.0
	scorePerCommodity   = 2.0
	scorePerMention     = 3.0
	scorePerProduct     = 2.0
	scorePerAlias       = 1.0
	scoreKnownStatus    = 5.0
	scoreConfidenceMult = 10.0

	bonusHumanVerified = 20.0
	bonusCSVImported   = 10.0
	bonusLLMVerified   = 5.0
)

// CompletenessScore rates how much useful data a record carries. It is
// used only to pick the survivor inside a duplicate group; the absolute
// value has no meaning outside that comparison.
func CompletenessScore(f *entities.Facility) float64 {
	var score float64

	if f.HasCoordinates() {
		score += scoreCoordinates
	}
	score += scorePerCommodity * float64(len(f.CommodityKeys()))
	score += scorePerMention * float64(len(f.CompanyMentions))
	score += scorePerProduct * float64(len(f.Products))
	score += scorePerAlias * float64(len(f.Aliases))

	if f.Status != "" && f.Status != entities.StatusUnknown {
		score += scoreKnownStatus
	}

	score += scoreConfidenceMult * f.Verification.Confidence

	switch f.Verification.Status {
	case entities.VerificationHuman:
		score += bonusHumanVerified
	case entities.VerificationCSV:
		score += bonusCSVImported
	case entities.VerificationLLM:
		score += bonusLLMVerified
	}

	return score
}
