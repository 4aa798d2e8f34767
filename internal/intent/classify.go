package intent

import (
	"math"
	"time"

	"github.com/JaimeStill/augur/internal/contact"
)

const (
	highRecencyDays   = 7
	mediumRecencyDays = 14
)

// Classify scores c against DefaultLexicon as of now.
func Classify(c contact.Contact, now time.Time) contact.IntentLevel {
	return DefaultLexicon.Classify(c, now)
}

// Classify maps a contact to an intent level. Rules are evaluated in priority
// order and the first match wins:
//
//	High:   2+ high-intent keywords, or activity within 7 days with 1+ high-intent keyword
//	Medium: 1+ high-intent keyword, 2+ medium-intent keywords, or activity within 14 days
//	Low:    everything else
//
// A missing activity date never earns a recency bonus.
func (l Lexicon) Classify(c contact.Contact, now time.Time) contact.IntentLevel {
	high := l.HighCount(c.Keywords)
	medium := l.MediumCount(c.Keywords)
	days, known := DaysSince(c.ActivityDate, now)

	switch {
	case high >= 2 || (known && days <= highRecencyDays && high >= 1):
		return contact.IntentHigh
	case high >= 1 || medium >= 2 || (known && days <= mediumRecencyDays):
		return contact.IntentMedium
	default:
		return contact.IntentLow
	}
}

// DaysSince returns the whole days elapsed between activity and now, rounded
// down. known is false when no activity date is available.
func DaysSince(activity *time.Time, now time.Time) (days int, known bool) {
	if activity == nil || activity.IsZero() {
		return 0, false
	}
	elapsed := now.Sub(*activity)
	return int(math.Floor(elapsed.Hours() / 24)), true
}

// Score returns a copy of c carrying its current intent level, stamped as updated at now.
func (l Lexicon) Score(c contact.Contact, now time.Time) contact.Contact {
	out := c.Clone()
	out.IntentScore = l.Classify(c, now)
	out.UpdatedAt = now
	return out
}

// ScoreAll classifies every contact against DefaultLexicon and returns a new
// collection. Every record is re-stamped, whether or not its level changed.
func ScoreAll(contacts []contact.Contact, now time.Time) []contact.Contact {
	out := make([]contact.Contact, len(contacts))
	for i, c := range contacts {
		out[i] = DefaultLexicon.Score(c, now)
	}
	return out
}
