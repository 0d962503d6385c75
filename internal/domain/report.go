package domain

// Period selects the reporting window for dashboard data.
type Period string

const (
	PeriodDaily   Period = "DAU"
	PeriodWeekly  Period = "WEEKLY"
	PeriodMonthly Period = "MONTHLY"
	PeriodYearly  Period = "YEARLY"
)

// NormalizePeriod maps unknown values to the default window.
func NormalizePeriod(raw string) Period {
	switch Period(raw) {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return Period(raw)
	default:
		return PeriodWeekly
	}
}

// Section is one independently-fetched slice of the dashboard payload.
// A failed section carries its own error so the rest of the payload
// still renders.
type Section struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// DashboardData is the full response of fetchAllDashboardData. The edge
// cache validity predicate keys on Overview: a payload is only complete
// (and cacheable) when overview succeeded with data present.
type DashboardData struct {
	Overview       Section `json:"overview"`
	TimeSeries     Section `json:"timeSeries"`
	TrafficSources Section `json:"trafficSources"`
	TopPages       Section `json:"topPages"`
	Devices        Section `json:"devices"`
	Countries      Section `json:"countries"`
	Engagement     Section `json:"engagement"`
	Acquisition    Section `json:"acquisition"`
	Events         Section `json:"events"`
	Realtime       Section `json:"realtime"`
	PageFlow       Section `json:"pageFlow"`
}

// OverviewMetrics are the headline numbers with percentage changes versus
// the previous period (nil when no previous data exists).
type OverviewMetrics struct {
	TotalUsers         int     `json:"totalUsers"`
	NewUsers           int     `json:"newUsers"`
	Sessions           int     `json:"sessions"`
	PageViews          int     `json:"pageViews"`
	AvgSessionDuration float64 `json:"avgSessionDuration"`
	BounceRate         string  `json:"bounceRate"`
	EngagementRate     string  `json:"engagementRate"`
	ActiveUsers        int     `json:"activeUsers"`
	Changes            Changes `json:"changes"`
}

type Changes struct {
	TotalUsers         *int `json:"totalUsers"`
	Sessions           *int `json:"sessions"`
	PageViews          *int `json:"pageViews"`
	AvgSessionDuration *int `json:"avgSessionDuration"`
}

// TimeSeries holds chart-ready parallel arrays.
type TimeSeries struct {
	Labels    []string `json:"labels"`
	Users     []int    `json:"users"`
	Sessions  []int    `json:"sessions"`
	PageViews []int    `json:"pageViews"`
}

// LabelValues is a generic label/value pairing for pie and bar charts.
type LabelValues struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

type PageStat struct {
	Title       string  `json:"title"`
	Views       int     `json:"views"`
	AvgDuration float64 `json:"avgDuration"`
}

type CountryStat struct {
	Country string `json:"country"`
	Users   int    `json:"users"`
}

type EventStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Users int    `json:"users"`
}

type RealtimeStat struct {
	ActiveUsers int `json:"activeUsers"`
}

// EngagementRadar holds the radar chart axes with each value scaled
// into 0..100.
type EngagementRadar struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Acquisition splits the audience into new versus returning users. The
// percentages always sum to 100 and default to an even split when no
// traffic was recorded.
type Acquisition struct {
	NewUsers         int    `json:"newUsers"`
	ReturningUsers   int    `json:"returningUsers"`
	SessionsPerUser  string `json:"sessionsPerUser"`
	EngagedSessions  int    `json:"engagedSessions"`
	NewUserPct       int    `json:"newUserPct"`
	ReturningUserPct int    `json:"returningUserPct"`
}

// PageFlowStat is one node of the user-journey visualization, keyed by
// page path rather than title.
type PageFlowStat struct {
	Path        string  `json:"path"`
	Views       int     `json:"views"`
	Users       int     `json:"users"`
	AvgDuration float64 `json:"avgDuration"`
}
