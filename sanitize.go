package fastache

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictOnce   sync.Once
	strictPolicy *bluemonday.Policy
	ugcOnce      sync.Once
	ugcPolicy    *bluemonday.Policy
)

// SanitizerFor maps a policy name to a shared bluemonday policy. "strict"
// strips all markup, "ugc" keeps user-content formatting; anything else
// returns nil.
func SanitizerFor(name string) Sanitizer {
	switch name {
	case "strict":
		strictOnce.Do(func() { strictPolicy = bluemonday.StrictPolicy() })
		return strictPolicy
	case "ugc":
		ugcOnce.Do(func() { ugcPolicy = bluemonday.UGCPolicy() })
		return ugcPolicy
	}
	return nil
}
