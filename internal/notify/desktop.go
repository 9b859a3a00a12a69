package notify

import (
	"context"

	"github.com/gen2brain/beeep"
)

// Permission mirrors the OS notification permission states.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDefault Permission = "default"
	PermissionDenied  Permission = "denied"
)

// ParsePermission maps config text to a Permission; unknown values become
// PermissionDefault.
func ParsePermission(s string) Permission {
	switch Permission(s) {
	case PermissionGranted, PermissionDenied:
		return Permission(s)
	default:
		return PermissionDefault
	}
}

// Desktop raises an OS notification through beeep.
type Desktop struct {
	AppIcon string

	notify func(title, message, appIcon string) error
}

func NewDesktop(appIcon string) *Desktop {
	return &Desktop{AppIcon: appIcon, notify: beeep.Notify}
}

func (d *Desktop) Send(ctx context.Context, title, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.notify(title, text, d.AppIcon)
}

// Tone plays a short synthesized beep.
type Tone struct {
	Freq     float64
	Duration int // milliseconds

	beep func(freq float64, duration int) error
}

func NewTone() *Tone {
	return &Tone{Freq: 880, Duration: 150, beep: beeep.Beep}
}

func (t *Tone) Play() error {
	return t.beep(t.Freq, t.Duration)
}
