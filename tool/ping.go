package tool

import (
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// QuickICMPProbe sends one unprivileged echo request and reports whether a reply came back.
// Failure to create the pinger counts as "unknown" and returns true so callers do not
// report a host as down when ICMP is simply unavailable.
func QuickICMPProbe(address string, timeout time.Duration) bool {
	pinger, err := probing.NewPinger(address)
	if err != nil {
		DefaultLogger.Debugf("QuickICMPProbe: cannot create pinger for %s: %v", address, err)
		return true
	}
	pinger.Count = 1
	pinger.Timeout = timeout
	pinger.SetPrivileged(false)
	if err := pinger.Run(); err != nil {
		DefaultLogger.Debugf("QuickICMPProbe: ping %s failed: %v", address, err)
		return true
	}
	return pinger.Statistics().PacketsRecv > 0
}
