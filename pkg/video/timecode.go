package video

import (
	"fmt"
	"time"
)

// FormatTimecode renders d as hh:mm:ss:zzz
func FormatTimecode(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d:%03d",
		ms/3600000, (ms/60000)%60, (ms/1000)%60, ms%1000)
}

// FramePosition renders the "frame/total" and "time / duration" labels shown
// while scrubbing
func FramePosition(e *Editor) (frames string, times string) {
	info := e.Info()
	frames = fmt.Sprintf("%d/%d", e.CurrentFrame(), info.FrameCount)
	times = fmt.Sprintf("%s / %s",
		FormatTimecode(time.Duration(e.CurrentMsecs())*time.Millisecond),
		FormatTimecode(info.Duration))
	return frames, times
}
