package boardcast

import (
	"strings"

	"github.com/moyoez/tvremote-go/types"
)

// ParseReply decodes an SSDP reply into upper-cased header names.
// The status line is skipped, lines without a colon are ignored and
// invalid UTF-8 is replaced rather than rejected.
func ParseReply(payload []byte) map[string]string {
	text := strings.ToValidUTF8(string(payload), "\uFFFD")
	headers := make(map[string]string)
	first := true
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if first {
			first = false
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[strings.ToUpper(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
	return headers
}

// NormalizeReply extracts the identification headers of one datagram.
// ST falls back to NT for NOTIFY announcements.
func NormalizeReply(raw types.RawReply) types.NormalizedReply {
	headers := ParseReply(raw.Payload)
	st, ok := headers["ST"]
	if !ok {
		st = headers["NT"]
	}
	return types.NormalizedReply{
		SourceAddress:     raw.SourceAddress,
		Server:            headers["SERVER"],
		ServiceType:       st,
		UniqueServiceName: headers["USN"],
		Location:          headers["LOCATION"],
	}
}

// NormalizeReplies parses datagrams in arrival order, keeping the first
// record for every dedup key.
func NormalizeReplies(raws []types.RawReply) []types.NormalizedReply {
	seen := make(map[types.ReplyKey]struct{}, len(raws))
	replies := make([]types.NormalizedReply, 0, len(raws))
	for _, raw := range raws {
		reply := NormalizeReply(raw)
		key := reply.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		replies = append(replies, reply)
	}
	return replies
}
