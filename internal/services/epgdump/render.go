package epgdump

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Render formats the text summary written next to the recording.
func Render(event Event, channels []Channel, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	b.WriteString(event.Name + "\n\n")
	b.WriteString(event.Description + "\n\n")
	for _, item := range event.Extended {
		b.WriteString(item.Heading + "\n")
		b.WriteString(item.Text + "\n")
	}
	b.WriteString("\n")
	if name, ok := ChannelName(channels, event.ServiceID); ok {
		b.WriteString(name + "\n")
	}
	fmt.Fprintf(&b, "serviceId: %d\n", event.ServiceID)
	start := time.UnixMilli(event.StartAt).In(loc)
	minutes := math.RoundToEven(float64(event.Duration) / 1000 / 60)
	fmt.Fprintf(&b, "%s ~ %d mins\n", start.Format("2006-01-02 15:04 (Mon)"), int(minutes))
	return b.String()
}
