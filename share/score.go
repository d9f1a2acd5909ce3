package share

import (
	"cmp"
	"slices"
	"strings"

	"github.com/moyoez/tvremote-go/types"
)

const (
	WeightDescriptor = 2
	WeightStatus     = 2
	WeightServer     = 1
	MaxScore         = WeightDescriptor + WeightStatus + WeightServer
	// DefaultLikelyThreshold is the cutoff for listing tags and automatic selection.
	DefaultLikelyThreshold = 3
)

// Score sums the weights of the signals that fired.
func Score(s types.IdentitySignals) int {
	score := 0
	if s.IsVendorMatchFromDescriptor {
		score += WeightDescriptor
	}
	if s.StatusEndpointReachable {
		score += WeightStatus
	}
	if s.ServerHeaderMentionsVendor {
		score += WeightServer
	}
	return score
}

// Summary builds the informational text shown next to a candidate.
// Descriptor info is only shown when it identified the vendor.
func Summary(s types.IdentitySignals) string {
	parts := make([]string, 0, 2)
	if s.IsVendorMatchFromDescriptor && s.DescriptorInfo != "" {
		parts = append(parts, s.DescriptorInfo)
	}
	if s.StatusEndpointReachable && s.StatusInfo != "" {
		parts = append(parts, s.StatusInfo)
	}
	return strings.Join(parts, " | ")
}

// BuildCandidate derives a candidate from an enriched reply.
func BuildCandidate(e types.EnrichedReply) types.Candidate {
	return types.Candidate{
		Address:     e.Reply.SourceAddress,
		Score:       Score(e.Signals),
		ServiceType: e.Reply.ServiceType,
		Server:      e.Reply.Server,
		Location:    e.Reply.Location,
		USN:         e.Reply.UniqueServiceName,
		InfoSummary: Summary(e.Signals),
	}
}

// Rank scores every record and returns candidates in ranking order.
func Rank(enriched []types.EnrichedReply) []types.Candidate {
	candidates := make([]types.Candidate, 0, len(enriched))
	for _, e := range enriched {
		candidates = append(candidates, BuildCandidate(e))
	}
	SortCandidates(candidates)
	return candidates
}

// SortCandidates orders by score desc, then address desc. The remaining
// fields only separate replies from the same address so the order never
// depends on arrival.
func SortCandidates(candidates []types.Candidate) {
	slices.SortStableFunc(candidates, compareCandidates)
}

func compareCandidates(a, b types.Candidate) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := strings.Compare(b.Address, a.Address); c != 0 {
		return c
	}
	if c := strings.Compare(a.ServiceType, b.ServiceType); c != 0 {
		return c
	}
	if c := strings.Compare(a.Location, b.Location); c != 0 {
		return c
	}
	if c := strings.Compare(a.USN, b.USN); c != 0 {
		return c
	}
	if c := strings.Compare(a.Server, b.Server); c != 0 {
		return c
	}
	return strings.Compare(a.InfoSummary, b.InfoSummary)
}

// SelectTarget picks the best candidate at or above threshold. When none
// qualifies it still returns the top candidate, with confident false.
func SelectTarget(candidates []types.Candidate, threshold int) (types.Candidate, bool, error) {
	if len(candidates) == 0 {
		return types.Candidate{}, false, types.ErrNoCandidateFound
	}
	for _, c := range candidates {
		if c.IsLikely(threshold) {
			return c, true, nil
		}
	}
	return candidates[0], false, nil
}
