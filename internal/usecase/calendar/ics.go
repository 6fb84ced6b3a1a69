package calendar

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

const productID = "-//classifieds-engine//calendar//RU"

// RenderICS сериализует вхождения в iCalendar. Каждое вхождение становится отдельным VEVENT,
// потому что правила месяца с обрезкой до последнего дня не выражаются через RRULE.
func RenderICS(items []EventOccurrences, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	for _, item := range items {
		for _, occ := range item.Occurrences {
			uid := fmt.Sprintf("event-%d-%s@classifieds-engine", item.Event.ID, occ.Start.UTC().Format("20060102T150405Z"))
			vevent := cal.AddEvent(uid)
			vevent.SetDtStampTime(stamp.UTC())
			vevent.SetStartAt(occ.Start.UTC())
			if occ.End != nil {
				vevent.SetEndAt(occ.End.UTC())
			}
			vevent.SetSummary(item.Event.Title)
			if item.Event.Description != "" {
				vevent.SetDescription(item.Event.Description)
			}
			if item.Event.Location != "" {
				vevent.SetLocation(item.Event.Location)
			}
		}
	}
	return cal.Serialize()
}
