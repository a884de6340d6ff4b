package x11

import (
	"fmt"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/zsh-edit-select/zes/internal/backend"
)

// backoffStage is one leg of the staged poll schedule.
type backoffStage struct {
	iterations int
	delay      time.Duration
}

// defaultBackoffSchedule mirrors the original C monitor's staged usleep
// schedule: five iterations at 500us, fifteen at 2ms, then 5ms until the
// loop runs out. Used whenever zesconfig carries no override.
func defaultBackoffSchedule() []backoffStage {
	return []backoffStage{
		{5, 500 * time.Microsecond},
		{15, 2 * time.Millisecond},
		{80, 5 * time.Millisecond},
	}
}

// readSelection performs one ConvertSelection round-trip against selection,
// targeting target, and polls for the SelectionNotify reply using the
// given staged backoff schedule. It returns (nil, false, nil) when the
// selection has no owner or the owner declined the target — not an error
// condition.
func readSelection(conn *xgb.Conn, win xproto.Window, prop xproto.Atom, selection, target xproto.Atom, maxSize int, schedule []backoffStage) ([]byte, bool, error) {
	if err := xproto.ConvertSelectionChecked(conn, win, selection, target, prop, xproto.TimeCurrentTime).Check(); err != nil {
		return nil, false, fmt.Errorf("x11: convert selection: %w", err)
	}

	for _, stage := range schedule {
		for i := 0; i < stage.iterations; i++ {
			ev, err := pollSelectionNotify(conn, win)
			if err != nil {
				return nil, false, err
			}
			if ev == nil {
				time.Sleep(stage.delay)
				continue
			}
			if ev.Property == xproto.AtomNone {
				return nil, false, nil
			}
			if ev.Property != prop {
				continue
			}
			return getProperty(conn, win, prop, maxSize)
		}
	}
	return nil, false, nil
}

// pollSelectionNotify drains pending events looking for a SelectionNotify
// targeting win, without blocking. xgb has no non-blocking peek, so this
// relies on the caller's poll-then-WaitForEvent discipline in daemon.go and
// oneshot.go; here we use xgb's PollForEvent, which never blocks.
func pollSelectionNotify(conn *xgb.Conn, win xproto.Window) (*xproto.SelectionNotifyEvent, error) {
	ev, xerr := conn.PollForEvent()
	if xerr != nil {
		return nil, fmt.Errorf("x11: protocol error waiting for selection: %w", xerr)
	}
	if ev == nil {
		return nil, nil
	}
	if sn, ok := ev.(xproto.SelectionNotifyEvent); ok && sn.Requestor == win {
		return &sn, nil
	}
	return nil, nil
}

// getProperty reads and deletes prop from win, clamping to maxSize.
func getProperty(conn *xgb.Conn, win xproto.Window, prop xproto.Atom, maxSize int) ([]byte, bool, error) {
	reply, err := xproto.GetProperty(conn, true, win, prop, xproto.GetPropertyTypeAny, 0, uint32(maxSize/4+1)).Reply()
	if err != nil {
		return nil, false, fmt.Errorf("x11: get property: %w", err)
	}
	if reply == nil || len(reply.Value) == 0 {
		return []byte{}, true, nil
	}
	return backend.Truncate(reply.Value, maxSize), true, nil
}
