package terminal

import (
	"time"

	"github.com/ricochet1k/termemu"
)

// Activity is a coarse notification that the emulated terminal changed.
type Activity struct {
	At time.Time
}

// Frontend satisfies termemu's frontend interface and reduces the firehose
// of terminal callbacks to coarse activity notifications. Sends never block;
// when the consumer lags, notifications are dropped.
type Frontend struct {
	activity chan<- Activity
	done     <-chan struct{}
}

func NewFrontend(activity chan<- Activity, done <-chan struct{}) *Frontend {
	return &Frontend{activity: activity, done: done}
}

func (f *Frontend) Bell() {
	f.emit(Activity{At: time.Now()})
}

func (f *Frontend) RegionChanged(r termemu.Region, reason termemu.ChangeReason) {
	f.emit(Activity{At: time.Now()})
}

func (f *Frontend) ScrollLines(y int) {
	f.emit(Activity{At: time.Now()})
}

func (f *Frontend) CursorMoved(x, y int) {
	f.emit(Activity{At: time.Now()})
}

func (f *Frontend) StyleChanged(s termemu.Style) {
	f.emit(Activity{At: time.Now()})
}

func (f *Frontend) ViewFlagChanged(flag termemu.ViewFlag, value bool) {
	f.emit(Activity{At: time.Now()})
}

func (f *Frontend) ViewIntChanged(flag termemu.ViewInt, value int) {
	f.emit(Activity{At: time.Now()})
}

func (f *Frontend) ViewStringChanged(flag termemu.ViewString, value string) {
	f.emit(Activity{At: time.Now()})
}

func (f *Frontend) emit(activity Activity) {
	if f == nil || f.activity == nil {
		return
	}
	if f.done != nil {
		select {
		case <-f.done:
			return
		default:
		}
	}
	select {
	case f.activity <- activity:
	default:
	}
}
