package browser

import (
	"encoding/json"
	"time"

	"github.com/skarab42/pantin-go/internal/process"
)

func unmarshalJSON(raw json.RawMessage, v any) error {
	return json.Unmarshal(raw, v)
}

// settlePostKill waits out process.PostKillSettleDelay, which is zero on
// POSIX and 100ms on Windows, where the OS holds file handles briefly after
// a kill before the profile directory can be removed.
func settlePostKill() {
	if process.PostKillSettleDelay > 0 {
		time.Sleep(process.PostKillSettleDelay)
	}
}
