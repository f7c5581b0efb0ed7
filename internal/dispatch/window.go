package dispatch

import (
	"github.com/danmuck/swayctl/internal/logging"
	"github.com/danmuck/swayctl/internal/protocol"
)

// WindowChange adapts fn into a window event handler that only fires for the
// given change. An empty change matches every window event.
func WindowChange(change string, fn func(protocol.WindowEvent)) Handler {
	return func(ev Event) {
		win, err := protocol.DecodeWindowEvent(ev.Payload)
		if err != nil {
			logging.Warnf("dispatch: window event decode failed err=%v", err)
			return
		}
		if change != "" && win.Change != change {
			return
		}
		fn(win)
	}
}
