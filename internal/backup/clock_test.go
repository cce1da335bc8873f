package backup

import "time"

func fixedTime(year int, month time.Month, day ...int) time.Time {
	d := 1
	if len(day) > 0 {
		d = day[0]
	}
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// advancingClock is a Clock whose value moves forward by one second every
// time advance is called, so successive runs in a test get distinct
// snapshot timestamps.
type advancingClock struct {
	cur time.Time
}

func (c *advancingClock) Now() time.Time { return c.cur }

func (c *advancingClock) advance() { c.cur = c.cur.Add(time.Second) }
