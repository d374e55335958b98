package domain

const unnamedSession = "Unnamed Session"

// EnvironmentProfile identifies one remote execution environment.
type EnvironmentProfile struct {
	SessionName    string
	OS             string
	OSVersion      string
	Browser        string
	BrowserVersion string
	Device         string
	RealMobile     bool
}

// Label is the human-readable session name used in logs and file names.
func (p EnvironmentProfile) Label() string {
	if p.SessionName == "" {
		return unnamedSession
	}
	return p.SessionName
}

// SessionStatus is the verdict reported back to the browser backend.
type SessionStatus string

const (
	StatusPassed SessionStatus = "passed"
	StatusFailed SessionStatus = "failed"
)

// Shortfall explains why discovery returned fewer references than requested.
type Shortfall string

const (
	ShortfallNone             Shortfall = ""
	ShortfallListingExhausted Shortfall = "listing-exhausted"
	ShortfallLocatorMisses    Shortfall = "locator-misses"
)

// DiscoveryReport is the outcome of one scan over the listing page.
type DiscoveryReport struct {
	Refs       []ArticleRef
	Limit      int
	Scanned    int
	Misses     int
	Duplicates int
}

// Shortfall separates "the page had fewer articles" from "rules could not resolve links".
func (r DiscoveryReport) Shortfall() Shortfall {
	if len(r.Refs) >= r.Limit {
		return ShortfallNone
	}
	if r.Misses > 0 {
		return ShortfallLocatorMisses
	}
	return ShortfallListingExhausted
}

// SessionResult is what a single environment pass hands back to the coordinator.
type SessionResult struct {
	Profile   EnvironmentProfile
	Titles    []string
	Articles  []ArticleResult
	Discovery DiscoveryReport
	Status    SessionStatus
	Err       error
}
