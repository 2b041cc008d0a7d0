// Package window defines the named time-of-day windows used to validate
// and suggest reminder times.
package window

import (
	"fmt"
	"regexp"
	"strconv"
)

type Key string

const (
	Morning   Key = "Morning"
	Afternoon Key = "Afternoon"
	Evening   Key = "Evening"
	Night     Key = "Night"
)

// Window is an [Start, End) hour range.
type Window struct {
	Start int
	End   int
}

var windows = map[Key]Window{
	Morning:   {Start: 6, End: 10},
	Afternoon: {Start: 12, End: 16},
	Evening:   {Start: 18, End: 21},
	Night:     {Start: 21, End: 23},
}

// uiLabels are the labels the current picker UI shows for each window.
var uiLabels = map[Key]string{
	Morning:   "Morning (6-10 AM)",
	Afternoon: "Afternoon (12-4 PM)",
	Evening:   "Evening (6-9 PM)",
	Night:     "Night (9-11 PM)",
}

// labelToKey maps both current and legacy UI label strings to window keys.
var labelToKey = map[string]Key{
	"Morning (6-10 AM)":    Morning,
	"Afternoon (12-4 PM)":  Afternoon,
	"Evening (6-9 PM)":     Evening,
	"Night (9-11 PM)":      Night,
	"Morning (6-10am)":     Morning,
	"Afternoon (10am-2pm)": Afternoon,
	"Evening (2pm-6pm)":    Evening,
	"Night (6pm-10pm)":     Night,
}

// Normalize resolves a canonical key or a UI label variant to a window key.
// Unrecognized input reports ok=false, which callers treat as "no window
// constraint".
func Normalize(raw string) (Key, bool) {
	if raw == "" {
		return "", false
	}
	if _, ok := windows[Key(raw)]; ok {
		return Key(raw), true
	}
	if k, ok := labelToKey[raw]; ok {
		return k, true
	}
	return "", false
}

// Lookup returns the hour range for a window key.
func Lookup(k Key) (Window, bool) {
	w, ok := windows[k]
	return w, ok
}

// UILabel returns the picker label for a window key.
func UILabel(k Key) string {
	return uiLabels[k]
}

type Slot struct {
	Value    string `json:"value"`     // HH:MM
	ISOValue string `json:"value_iso"` // HH:MM:SS
	Label    string `json:"label"`     // h:mm AM/PM
}

// Slots generates every 30-minute slot inside the window's hour range. The
// opening hour's :00 is excluded so the first visible slot is the opening
// hour's :30, and nothing at or past the closing hour is emitted.
func Slots(k Key) []Slot {
	win, ok := windows[k]
	if !ok {
		return nil
	}
	var slots []Slot
	for h := win.Start; h < win.End; h++ {
		for _, m := range []int{0, 30} {
			if h == win.Start && m == 0 {
				continue
			}
			value := fmt.Sprintf("%02d:%02d", h, m)
			slots = append(slots, Slot{
				Value:    value,
				ISOValue: value + ":00",
				Label:    formatAmPm(h, m),
			})
		}
	}
	return slots
}

var timeRe = regexp.MustCompile(`^([0-2]\d):([0-5]\d)(?::([0-5]\d))?$`)

// Validate checks that a reminder time parses as HH:MM or HH:MM:SS, sits on a
// 30-minute boundary, and falls within the window's hour range. It is a no-op
// for the zero key.
func Validate(timeStr string, k Key) error {
	if k == "" {
		return nil
	}
	win, ok := windows[k]
	if !ok {
		return nil
	}
	m := timeRe.FindStringSubmatch(timeStr)
	if m == nil {
		return fmt.Errorf("reminder_time must be HH:MM or HH:MM:SS")
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if minute != 0 && minute != 30 {
		return fmt.Errorf("reminder_time must be on 30-minute boundary")
	}
	if hour < win.Start || hour >= win.End {
		return fmt.Errorf("reminder_time must fall within %s window", k)
	}
	// The opening hour's :00 is not a valid slot; the window effectively
	// opens at :30.
	if hour == win.Start && minute == 0 {
		return fmt.Errorf("reminder_time must fall within %s window", k)
	}
	return nil
}

func formatAmPm(h, m int) string {
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	hour12 := (h+11)%12 + 1
	return fmt.Sprintf("%d:%02d %s", hour12, m, suffix)
}
