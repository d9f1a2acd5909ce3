package types

import "strings"

// ProbeRequest is one M-SEARCH query, built per discovery round.
type ProbeRequest struct {
	ServiceType string
}

// RawReply is a single datagram received during the listen window.
type RawReply struct {
	SourceAddress string
	Payload       []byte
}

// NormalizedReply holds the headers of a discovery reply that matter for identification.
type NormalizedReply struct {
	SourceAddress     string `json:"address"`
	Server            string `json:"server"`
	ServiceType       string `json:"st"`
	UniqueServiceName string `json:"usn"`
	Location          string `json:"location"`
}

// ReplyKey identifies a reply within one discovery run.
type ReplyKey struct {
	Address     string
	Location    string
	USN         string
	ServiceType string
}

// DedupKey returns the tuple replies are deduplicated on.
// A device answering once per probed service type yields one record per type.
func (r NormalizedReply) DedupKey() ReplyKey {
	return ReplyKey{
		Address:     r.SourceAddress,
		Location:    r.Location,
		USN:         r.UniqueServiceName,
		ServiceType: r.ServiceType,
	}
}

// ProbeResult is the outcome of one best-effort enrichment probe.
// Err is informational only; scoring looks at OK.
type ProbeResult struct {
	OK   bool
	Info string
	Err  error
}

// IdentitySignals are the per-device identification signals fed to scoring.
type IdentitySignals struct {
	IsVendorMatchFromDescriptor bool
	DescriptorInfo              string
	StatusEndpointReachable     bool
	StatusInfo                  string
	ServerHeaderMentionsVendor  bool
}

// EnrichedReply pairs a reply with the signals derived from it.
type EnrichedReply struct {
	Reply   NormalizedReply
	Signals IdentitySignals
}

// Candidate is a discovered device after scoring.
type Candidate struct {
	Address     string `json:"address"`
	Score       int    `json:"score"`
	ServiceType string `json:"st"`
	Server      string `json:"server"`
	Location    string `json:"location"`
	USN         string `json:"usn"`
	InfoSummary string `json:"info"`
}

// IsLikely reports whether the candidate reaches the likely-match threshold.
func (c Candidate) IsLikely(threshold int) bool {
	return c.Score >= threshold
}

// Tag is the listing label for a candidate, e.g. LIKELY-SAMSUNG for vendor "samsung".
func (c Candidate) Tag(threshold int, vendor string) string {
	if !c.IsLikely(threshold) {
		return "maybe"
	}
	if vendor = strings.TrimSpace(vendor); vendor == "" {
		return "LIKELY"
	}
	return "LIKELY-" + strings.ToUpper(vendor)
}

// ContainsFold reports whether s contains substr, ignoring case.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
