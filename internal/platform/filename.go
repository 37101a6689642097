package platform

import (
	"fmt"
	"time"
)

// FileName returns the export name for a save made at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("meme_%d.png", now.UnixMilli())
}

// Clock returns the current time. Tests replace it.
type Clock func() time.Time
