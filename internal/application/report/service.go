package report

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/analytics-dashboard-api/internal/domain"
	"github.com/analytics-dashboard-api/internal/infrastructure/ga4"
)

// Analytics is the slice of the GA4 Data API the dashboard consumes.
type Analytics interface {
	RunReport(ctx context.Context, req *ga4.ReportRequest) (*ga4.ReportResponse, error)
	RunRealtimeReport(ctx context.Context, req *ga4.ReportRequest) (*ga4.ReportResponse, error)
}

// Service assembles the dashboard payload from GA4 reports.
type Service struct {
	analytics Analytics
}

func NewService(analytics Analytics) *Service {
	return &Service{analytics: analytics}
}

// FetchAll gathers every dashboard section concurrently. Sections fail
// independently: a GA4 error in one shows up as that section's error
// while the rest of the payload still renders.
func (s *Service) FetchAll(ctx context.Context, period domain.Period) *domain.DashboardData {
	now := time.Now()
	var data domain.DashboardData
	var wg sync.WaitGroup

	run := func(dst *domain.Section, fetch func() (interface{}, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			*dst = section(fetch())
		}()
	}

	run(&data.Overview, func() (interface{}, error) { return s.overview(ctx, period, now) })
	run(&data.TimeSeries, func() (interface{}, error) { return s.timeSeries(ctx, period, now) })
	run(&data.TrafficSources, func() (interface{}, error) { return s.trafficSources(ctx, period, now) })
	run(&data.TopPages, func() (interface{}, error) { return s.topPages(ctx, period, now) })
	run(&data.Devices, func() (interface{}, error) { return s.devices(ctx, period, now) })
	run(&data.Countries, func() (interface{}, error) { return s.countries(ctx, period, now) })
	run(&data.Engagement, func() (interface{}, error) { return s.engagement(ctx, period, now) })
	run(&data.Acquisition, func() (interface{}, error) { return s.acquisition(ctx, period, now) })
	run(&data.Events, func() (interface{}, error) { return s.events(ctx, period, now) })
	run(&data.Realtime, func() (interface{}, error) { return s.realtime(ctx) })
	run(&data.PageFlow, func() (interface{}, error) { return s.pageFlow(ctx, period, now) })

	wg.Wait()
	return &data
}

func section(v interface{}, err error) domain.Section {
	if err != nil {
		return domain.Section{Success: false, Error: err.Error()}
	}
	return domain.Section{Success: true, Data: v}
}

// overview queries the current and previous windows in one request. GA4
// returns one row per date range, current first.
func (s *Service) overview(ctx context.Context, period domain.Period, now time.Time) (*domain.OverviewMetrics, error) {
	resp, err := s.analytics.RunReport(ctx, &ga4.ReportRequest{
		DateRanges: []ga4.DateRange{dateRange(period, now), previousDateRange(period, now)},
		Metrics: []ga4.Metric{
			{Name: "totalUsers"},
			{Name: "newUsers"},
			{Name: "sessions"},
			{Name: "screenPageViews"},
			{Name: "averageSessionDuration"},
			{Name: "bounceRate"},
			{Name: "engagementRate"},
			{Name: "activeUsers"},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Rows) == 0 {
		return &domain.OverviewMetrics{BounceRate: "0.0", EngagementRate: "0.0"}, nil
	}

	cur := resp.Rows[0].MetricValues
	m := &domain.OverviewMetrics{
		TotalUsers:         metricInt(cur, 0),
		NewUsers:           metricInt(cur, 1),
		Sessions:           metricInt(cur, 2),
		PageViews:          metricInt(cur, 3),
		AvgSessionDuration: metricFloat(cur, 4),
		BounceRate:         asPercent(metricFloat(cur, 5)),
		EngagementRate:     asPercent(metricFloat(cur, 6)),
		ActiveUsers:        metricInt(cur, 7),
	}

	if len(resp.Rows) > 1 {
		prev := resp.Rows[1].MetricValues
		m.Changes = domain.Changes{
			TotalUsers:         percentChange(m.TotalUsers, metricInt(prev, 0)),
			Sessions:           percentChange(m.Sessions, metricInt(prev, 2)),
			PageViews:          percentChange(m.PageViews, metricInt(prev, 3)),
			AvgSessionDuration: durationChange(m.AvgSessionDuration, metricFloat(prev, 4)),
		}
	}
	return m, nil
}

func (s *Service) timeSeries(ctx context.Context, period domain.Period, now time.Time) (*domain.TimeSeries, error) {
	dimension := timeDimension(period)
	resp, err := s.analytics.RunReport(ctx, &ga4.ReportRequest{
		DateRanges: []ga4.DateRange{dateRange(period, now)},
		Dimensions: []ga4.Dimension{{Name: dimension}},
		Metrics: []ga4.Metric{
			{Name: "activeUsers"},
			{Name: "sessions"},
			{Name: "screenPageViews"},
		},
		OrderBys: []ga4.OrderBy{{Dimension: &ga4.DimensionOrderBy{DimensionName: dimension}}},
	})
	if err != nil {
		return nil, err
	}

	ts := &domain.TimeSeries{Labels: []string{}, Users: []int{}, Sessions: []int{}, PageViews: []int{}}
	for _, row := range resp.Rows {
		ts.Labels = append(ts.Labels, formatTimeLabel(dimension, dimValue(row, 0)))
		ts.Users = append(ts.Users, metricInt(row.MetricValues, 0))
		ts.Sessions = append(ts.Sessions, metricInt(row.MetricValues, 1))
		ts.PageViews = append(ts.PageViews, metricInt(row.MetricValues, 2))
	}
	return ts, nil
}

func (s *Service) trafficSources(ctx context.Context, period domain.Period, now time.Time) (*domain.LabelValues, error) {
	resp, err := s.analytics.RunReport(ctx, &ga4.ReportRequest{
		DateRanges: []ga4.DateRange{dateRange(period, now)},
		Dimensions: []ga4.Dimension{{Name: "sessionDefaultChannelGroup"}},
		Metrics:    []ga4.Metric{{Name: "sessions"}},
		OrderBys:   []ga4.OrderBy{{Metric: &ga4.MetricOrderBy{MetricName: "sessions"}, Desc: true}},
		Limit:      8,
	})
	if err != nil {
		return nil, err
	}

	lv := &domain.LabelValues{Labels: []string{}, Values: []int{}}
	for _, row := range resp.Rows {
		lv.Labels = append(lv.Labels, orUnknown(dimValue(row, 0)))
		lv.Values = append(lv.Values, metricInt(row.MetricValues, 0))
	}
	return lv, nil
}

func (s *Service) topPages(ctx context.Context, period domain.Period, now time.Time) ([]domain.PageStat, error) {
	resp, err := s.analytics.RunReport(ctx, &ga4.ReportRequest{
		DateRanges: []ga4.DateRange{dateRange(period, now)},
		Dimensions: []ga4.Dimension{{Name: "pageTitle"}},
		Metrics: []ga4.Metric{
			{Name: "screenPageViews"},
			{Name: "averageSessionDuration"},
		},
		OrderBys: []ga4.OrderBy{{Metric: &ga4.MetricOrderBy{MetricName: "screenPageViews"}, Desc: true}},
		Limit:    10,
	})
	if err != nil {
		return nil, err
	}

	pages := make([]domain.PageStat, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		pages = append(pages, domain.PageStat{
			Title:       orUnknown(dimValue(row, 0)),
			Views:       metricInt(row.MetricValues, 0),
			AvgDuration: metricFloat(row.MetricValues, 1),
		})
	}
	return pages, nil
}

func (s *Service) devices(ctx context.Context, period domain.Period, now time.Time) (*domain.LabelValues, error) {
	resp, err := s.analytics.RunReport(ctx, &ga4.ReportRequest{
		DateRanges: []ga4.DateRange{dateRange(period, now)},
		Dimensions: []ga4.Dimension{{Name: "deviceCategory"}},
		Metrics:    []ga4.Metric{{Name: "sessions"}},
		OrderBys:   []ga4.OrderBy{{Metric: &ga4.MetricOrderBy{MetricName: "sessions"}, Desc: true}},
	})
	if err != nil {
		return nil, err
	}

	lv := &domain.LabelValues{Labels: []string{}, Values: []int{}}
	for _, row := range resp.Rows {
		lv.Labels = append(lv.Labels, capitalize(dimValue(row, 0)))
		lv.Values = append(lv.Values, metricInt(row.MetricValues, 0))
	}
	return lv, nil
}

func (s *Service) countries(ctx context.Context, period domain.Period, now time.Time) ([]domain.CountryStat, error) {
	resp, err := s.analytics.RunReport(ctx, &ga4.ReportRequest{
		DateRanges: []ga4.DateRange{dateRange(period, now)},
		Dimensions: []ga4.Dimension{{Name: "country"}},
		Metrics:    []ga4.Metric{{Name: "activeUsers"}},
		OrderBys:   []ga4.OrderBy{{Metric: &ga4.MetricOrderBy{MetricName: "activeUsers"}, Desc: true}},
		Limit:      10,
	})
	if err != nil {
		return nil, err
	}

	countries := make([]domain.CountryStat, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		countries = append(countries, domain.CountryStat{
			Country: orUnknown(dimValue(row, 0)),
			Users:   metricInt(row.MetricValues, 0),
		})
	}
	return countries, nil
}

func (s *Service) events(ctx context.Context, period domain.Period, now time.Time) ([]domain.EventStat, error) {
	resp, err := s.analytics.RunReport(ctx, &ga4.ReportRequest{
		DateRanges: []ga4.DateRange{dateRange(period, now)},
		Dimensions: []ga4.Dimension{{Name: "eventName"}},
		Metrics: []ga4.Metric{
			{Name: "eventCount"},
			{Name: "totalUsers"},
		},
		OrderBys: []ga4.OrderBy{{Metric: &ga4.MetricOrderBy{MetricName: "eventCount"}, Desc: true}},
		Limit:    20,
	})
	if err != nil {
		return nil, err
	}

	events := make([]domain.EventStat, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		events = append(events, domain.EventStat{
			Name:  orUnknown(dimValue(row, 0)),
			Count: metricInt(row.MetricValues, 0),
			Users: metricInt(row.MetricValues, 1),
		})
	}
	return events, nil
}

// engagement scales five engagement metrics onto the radar chart's
// 0..100 axes. The multipliers stretch low-magnitude metrics so a
// typical site lands mid-chart.
func (s *Service) engagement(ctx context.Context, period domain.Period, now time.Time) (*domain.EngagementRadar, error) {
	resp, err := s.analytics.RunReport(ctx, &ga4.ReportRequest{
		DateRanges: []ga4.DateRange{dateRange(period, now)},
		Metrics: []ga4.Metric{
			{Name: "engagementRate"},
			{Name: "engagedSessions"},
			{Name: "sessionsPerUser"},
			{Name: "screenPageViewsPerSession"},
			{Name: "userEngagementDuration"},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Rows) == 0 {
		return &domain.EngagementRadar{Labels: []string{}, Values: []float64{}}, nil
	}

	v := resp.Rows[0].MetricValues
	engagementRate := metricFloat(v, 0) * 100
	engagedSessions := metricFloat(v, 1)
	sessionsPerUser := metricFloat(v, 2)
	pagesPerSession := metricFloat(v, 3)
	engagementTime := metricFloat(v, 4)

	avgTime := 0.0
	if engagedSessions > 0 {
		avgTime = engagementTime / engagedSessions
	}

	return &domain.EngagementRadar{
		Labels: []string{"Engagement Rate", "Sessions/User", "Pages/Session", "Avg Time", "Return Rate"},
		Values: []float64{
			math.Min(engagementRate, 100),
			math.Min(sessionsPerUser*25, 100),
			math.Min(pagesPerSession*15, 100),
			math.Min(avgTime/3, 100),
			math.Min(engagementRate*0.8, 100),
		},
	}, nil
}

func (s *Service) acquisition(ctx context.Context, period domain.Period, now time.Time) (*domain.Acquisition, error) {
	resp, err := s.analytics.RunReport(ctx, &ga4.ReportRequest{
		DateRanges: []ga4.DateRange{dateRange(period, now)},
		Metrics: []ga4.Metric{
			{Name: "totalUsers"},
			{Name: "newUsers"},
			{Name: "sessionsPerUser"},
			{Name: "engagedSessions"},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Rows) == 0 {
		return &domain.Acquisition{SessionsPerUser: "0.00", NewUserPct: 50, ReturningUserPct: 50}, nil
	}

	v := resp.Rows[0].MetricValues
	total := metricInt(v, 0)
	newUsers := metricInt(v, 1)
	returning := total - newUsers
	if returning < 0 {
		returning = 0
	}
	newPct := 50
	if total > 0 {
		newPct = int(float64(newUsers)/float64(total)*100 + 0.5)
	}

	return &domain.Acquisition{
		NewUsers:         newUsers,
		ReturningUsers:   returning,
		SessionsPerUser:  strconv.FormatFloat(metricFloat(v, 2), 'f', 2, 64),
		EngagedSessions:  metricInt(v, 3),
		NewUserPct:       newPct,
		ReturningUserPct: 100 - newPct,
	}, nil
}

// pageFlow lists page paths for the user-journey visualization. The
// frontend maps paths onto its known site nodes, so an empty path
// collapses to the root.
func (s *Service) pageFlow(ctx context.Context, period domain.Period, now time.Time) ([]domain.PageFlowStat, error) {
	resp, err := s.analytics.RunReport(ctx, &ga4.ReportRequest{
		DateRanges: []ga4.DateRange{dateRange(period, now)},
		Dimensions: []ga4.Dimension{{Name: "pagePath"}},
		Metrics: []ga4.Metric{
			{Name: "screenPageViews"},
			{Name: "totalUsers"},
			{Name: "averageSessionDuration"},
		},
		OrderBys: []ga4.OrderBy{{Metric: &ga4.MetricOrderBy{MetricName: "screenPageViews"}, Desc: true}},
		Limit:    30,
	})
	if err != nil {
		return nil, err
	}

	flow := make([]domain.PageFlowStat, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		path := dimValue(row, 0)
		if path == "" {
			path = "/"
		}
		flow = append(flow, domain.PageFlowStat{
			Path:        path,
			Views:       metricInt(row.MetricValues, 0),
			Users:       metricInt(row.MetricValues, 1),
			AvgDuration: metricFloat(row.MetricValues, 2),
		})
	}
	return flow, nil
}

func (s *Service) realtime(ctx context.Context) (*domain.RealtimeStat, error) {
	resp, err := s.analytics.RunRealtimeReport(ctx, &ga4.ReportRequest{
		Metrics: []ga4.Metric{{Name: "activeUsers"}},
	})
	if err != nil {
		return nil, err
	}
	stat := &domain.RealtimeStat{}
	if len(resp.Rows) > 0 {
		stat.ActiveUsers = metricInt(resp.Rows[0].MetricValues, 0)
	}
	return stat, nil
}

// --- row helpers ---

func dimValue(row ga4.Row, i int) string {
	if i >= len(row.DimensionValues) {
		return ""
	}
	return row.DimensionValues[i].Value
}

func metricInt(values []ga4.Value, i int) int {
	if i >= len(values) {
		return 0
	}
	n, _ := strconv.Atoi(values[i].Value)
	return n
}

func metricFloat(values []ga4.Value, i int) float64 {
	if i >= len(values) {
		return 0
	}
	f, _ := strconv.ParseFloat(values[i].Value, 64)
	return f
}

// asPercent renders a 0..1 rate as a one-decimal percentage string.
func asPercent(rate float64) string {
	return strconv.FormatFloat(rate*100, 'f', 1, 64)
}

// percentChange is the rounded period-over-period delta. A jump from zero
// counts as +100% when the current value is nonzero.
func percentChange(cur, prev int) *int {
	var change int
	switch {
	case prev > 0:
		change = int(float64(cur-prev)/float64(prev)*100 + 0.5)
		if cur < prev {
			change = -int(float64(prev-cur)/float64(prev)*100 + 0.5)
		}
	case cur > 0:
		change = 100
	}
	return &change
}

func durationChange(cur, prev float64) *int {
	change := 0
	if prev > 0 {
		change = int((cur-prev)/prev*100 + 0.5)
		if cur < prev {
			change = -int((prev-cur)/prev*100 + 0.5)
		}
	}
	return &change
}

func orUnknown(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}

func capitalize(v string) string {
	if v == "" {
		return v
	}
	return strings.ToUpper(v[:1]) + v[1:]
}
