package report

import (
	"time"

	"github.com/analytics-dashboard-api/internal/domain"
	"github.com/analytics-dashboard-api/internal/infrastructure/ga4"
)

const dayFormat = "2006-01-02"

func day(now time.Time, daysAgo int) string {
	return now.AddDate(0, 0, -daysAgo).Format(dayFormat)
}

// dateRange returns the current reporting window ending today.
func dateRange(period domain.Period, now time.Time) ga4.DateRange {
	switch period {
	case domain.PeriodDaily:
		return ga4.DateRange{StartDate: day(now, 0), EndDate: day(now, 0)}
	case domain.PeriodWeekly:
		return ga4.DateRange{StartDate: day(now, 7), EndDate: day(now, 0)}
	case domain.PeriodYearly:
		return ga4.DateRange{StartDate: day(now, 365), EndDate: day(now, 0)}
	default:
		return ga4.DateRange{StartDate: day(now, 30), EndDate: day(now, 0)}
	}
}

// previousDateRange returns the window immediately before dateRange, for
// period-over-period comparison.
func previousDateRange(period domain.Period, now time.Time) ga4.DateRange {
	switch period {
	case domain.PeriodDaily:
		return ga4.DateRange{StartDate: day(now, 1), EndDate: day(now, 1)}
	case domain.PeriodWeekly:
		return ga4.DateRange{StartDate: day(now, 14), EndDate: day(now, 8)}
	case domain.PeriodYearly:
		return ga4.DateRange{StartDate: day(now, 731), EndDate: day(now, 366)}
	default:
		return ga4.DateRange{StartDate: day(now, 61), EndDate: day(now, 31)}
	}
}

// timeDimension picks the x-axis granularity for the period.
func timeDimension(period domain.Period) string {
	switch period {
	case domain.PeriodDaily:
		return "hour"
	case domain.PeriodYearly:
		return "yearMonth"
	default:
		return "date"
	}
}

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// formatTimeLabel turns a raw GA4 dimension value into a chart label:
// "20260830" becomes "08/30", "202608" becomes "Aug 2026", "14" becomes
// "14:00". Unrecognized values pass through unchanged.
func formatTimeLabel(dimension, raw string) string {
	switch {
	case dimension == "date" && len(raw) == 8:
		return raw[4:6] + "/" + raw[6:8]
	case dimension == "yearMonth" && len(raw) == 6:
		m := int(raw[4]-'0')*10 + int(raw[5]-'0')
		if m >= 1 && m <= 12 {
			return monthNames[m-1] + " " + raw[:4]
		}
		return raw
	case dimension == "hour":
		return raw + ":00"
	}
	return raw
}
