package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors updated by the core.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	checkIns          prometheus.Counter
	checkOuts         prometheus.Counter
	capacityRejected  prometheus.Counter
	hoursAccrued      prometheus.Counter
	accrualNoops      prometheus.Counter
	timesheetDecision *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		checkIns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vms_checkins_total",
			Help: "Attendance check-ins recorded.",
		}),
		checkOuts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vms_checkouts_total",
			Help: "Attendance check-outs recorded.",
		}),
		capacityRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vms_capacity_rejections_total",
			Help: "Check-ins rejected because the event had no open slots.",
		}),
		hoursAccrued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vms_hours_accrued_total",
			Help: "Positive hour deltas applied to timesheet accrual lines.",
		}),
		accrualNoops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vms_accrual_noops_total",
			Help: "Hour deltas dropped because no accrual line existed for the pair.",
		}),
		timesheetDecision: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vms_timesheet_decisions_total",
			Help: "Timesheet approval decisions by outcome.",
		}, []string{"status"}),
	}

	for _, c := range []prometheus.Collector{
		m.checkIns, m.checkOuts, m.capacityRejected, m.hoursAccrued, m.accrualNoops, m.timesheetDecision,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) incCheckIn() {
	if m != nil {
		m.checkIns.Inc()
	}
}

func (m *Metrics) incCheckOut() {
	if m != nil {
		m.checkOuts.Inc()
	}
}

func (m *Metrics) incCapacityRejected() {
	if m != nil {
		m.capacityRejected.Inc()
	}
}

func (m *Metrics) addHours(delta float64) {
	if m != nil && delta > 0 {
		m.hoursAccrued.Add(delta)
	}
}

func (m *Metrics) incAccrualNoop() {
	if m != nil {
		m.accrualNoops.Inc()
	}
}

func (m *Metrics) incDecision(status string) {
	if m != nil {
		m.timesheetDecision.WithLabelValues(status).Inc()
	}
}
