package models

import "fmt"

// Tier decides whether a client is held to the daily ceiling.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

func (t Tier) IsValid() bool {
	return t == TierFree || t == TierPro
}

// Unlimited reports whether requests on this tier skip the ceiling check.
func (t Tier) Unlimited() bool {
	return t == TierPro
}

func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown tier %q", s)
	}
	return t, nil
}
