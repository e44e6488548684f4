package charts

import (
	"fmt"
	"time"

	"github.com/2beens/teamcondition/internal/condition/records"
)

const (
	GroupByEntity    = "entity"
	OverlayYear      = "year"
	OverlayYearMonth = "year_month"

	overlayXFormat = "01-02"
)

// GroupingStrategy decides how the points of one metric are split into
// series and where they are placed on the x axis.
type GroupingStrategy interface {
	Name() string
	// Group returns the color key of the record. Series are split per
	// (entity, group) pair.
	Group(r records.Record) string
	Project(t time.Time) time.Time
	XFormat() string
}

// ByEntity draws one series per entity over the real timeline.
type ByEntity struct{}

func (ByEntity) Name() string {
	return GroupByEntity
}

func (ByEntity) Group(r records.Record) string {
	return r.Entity
}

func (ByEntity) Project(t time.Time) time.Time {
	return t
}

func (ByEntity) XFormat() string {
	return records.DateFormat
}

// SeasonOverlay lays several years over a single month-day axis, so the same
// calendar day of different years lines up. Series are colored by year or by
// year-month.
type SeasonOverlay struct {
	Key string
}

func (s SeasonOverlay) Name() string {
	return "overlay_" + s.key()
}

func (s SeasonOverlay) Group(r records.Record) string {
	if s.key() == OverlayYearMonth {
		return fmt.Sprintf("%d-%02d", r.Timestamp.Year(), int(r.Timestamp.Month()))
	}
	return fmt.Sprintf("%d", r.Timestamp.Year())
}

// Project strips the year; 2000 is a leap year so 02-29 has a place.
func (s SeasonOverlay) Project(t time.Time) time.Time {
	return time.Date(2000, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func (s SeasonOverlay) XFormat() string {
	return overlayXFormat
}

func (s SeasonOverlay) key() string {
	if s.Key == OverlayYearMonth {
		return OverlayYearMonth
	}
	return OverlayYear
}

// StrategyFor maps a grouping name as used by the API to a strategy.
func StrategyFor(name string) (GroupingStrategy, error) {
	switch name {
	case "", GroupByEntity:
		return ByEntity{}, nil
	case OverlayYear, "overlay_year":
		return SeasonOverlay{Key: OverlayYear}, nil
	case OverlayYearMonth, "overlay_year_month":
		return SeasonOverlay{Key: OverlayYearMonth}, nil
	default:
		return nil, fmt.Errorf("unknown grouping [%s]", name)
	}
}
