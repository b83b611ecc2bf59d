package llm

import "strings"

// Hosted pricing in USD per million tokens; local models are billed by
// compute time as a rough electricity proxy.
type costTier struct {
	inPerM  float64
	outPerM float64
}

var hostedTiers = []struct {
	prefix string
	tier   costTier
}{
	{"gpt-4o-mini", costTier{inPerM: 0.15, outPerM: 0.60}},
	{"gpt-4o", costTier{inPerM: 2.50, outPerM: 10.00}},
	{"claude-3-5-haiku", costTier{inPerM: 0.25, outPerM: 1.25}},
	{"claude-haiku", costTier{inPerM: 0.25, outPerM: 1.25}},
	{"claude-sonnet", costTier{inPerM: 3.00, outPerM: 15.00}},
	{"claude-opus", costTier{inPerM: 15.00, outPerM: 75.00}},
}

const localCostPerSecond = 0.00005

// estimateHostedCost prices a hosted call from its token counts. Unknown
// models cost zero rather than guessing a tier.
func estimateHostedCost(model string, tokensIn, tokensOut int) float64 {
	model = strings.ToLower(strings.TrimSpace(model))
	for _, t := range hostedTiers {
		if strings.HasPrefix(model, t.prefix) {
			in := float64(tokensIn) / 1e6 * t.tier.inPerM
			out := float64(tokensOut) / 1e6 * t.tier.outPerM
			return in + out
		}
	}
	return 0
}

// estimateLocalCost prices a local call from wall-clock compute time.
func estimateLocalCost(totalMsec float64) float64 {
	if totalMsec <= 0 {
		return 0
	}
	return totalMsec / 1000 * localCostPerSecond
}
