package metrics

import (
	"context"
	"net/http"

	"github.com/go-go-golems/socra/pkg/agents"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSelected = "selected"
	OutcomeFailed   = "failed"
)

// Collector counts node visits, decisions and spent dollars.
type Collector struct {
	NodeVisits       *prometheus.CounterVec
	Decisions        *prometheus.CounterVec
	DecisionDuration *prometheus.HistogramVec
	LeafDuration     *prometheus.HistogramVec
	Cost             *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		NodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socra_node_visits_total",
				Help: "Total number of node visits",
			},
			[]string{"node"},
		),
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socra_decisions_total",
				Help: "Total number of decisions, by outcome",
			},
			[]string{"node", "outcome"},
		),
		DecisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "socra_decision_duration_seconds",
				Help:    "Duration of decisions, including the completion call",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"node"},
		),
		LeafDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "socra_leaf_duration_seconds",
				Help: "Duration of leaf handlers",
			},
			[]string{"node"},
		),
		Cost: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socra_cost_dollars_total",
				Help: "Dollars spent on completions",
			},
			[]string{"component"},
		),
	}

	for _, collector := range []prometheus.Collector{
		c.NodeVisits, c.Decisions, c.DecisionDuration, c.LeafDuration, c.Cost,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Collector) addCost(e *agents.NodeEvent) {
	if e.Cost.Input > 0 {
		c.Cost.WithLabelValues("input").Add(e.Cost.Input)
	}
	if e.Cost.Output > 0 {
		c.Cost.WithLabelValues("output").Add(e.Cost.Output)
	}
	if e.Cost.Total > 0 {
		c.Cost.WithLabelValues("total").Add(e.Cost.Total)
	}
}

// Hooks feeds the collector from the lifecycle of runs.
func (c *Collector) Hooks() agents.Hooks {
	return agents.Hooks{
		OnNodeEnter: func(_ context.Context, e *agents.NodeEvent) {
			c.NodeVisits.WithLabelValues(e.Node.Key()).Inc()
		},
		OnDecision: func(_ context.Context, e *agents.NodeEvent) {
			c.Decisions.WithLabelValues(e.Node.Key(), OutcomeSelected).Inc()
			c.DecisionDuration.WithLabelValues(e.Node.Key()).Observe(e.Duration.Seconds())
			c.addCost(e)
		},
		OnDecisionError: func(_ context.Context, e *agents.NodeEvent) {
			c.Decisions.WithLabelValues(e.Node.Key(), OutcomeFailed).Inc()
			c.DecisionDuration.WithLabelValues(e.Node.Key()).Observe(e.Duration.Seconds())
			c.addCost(e)
		},
		OnLeafEnd: func(_ context.Context, e *agents.NodeEvent) {
			c.LeafDuration.WithLabelValues(e.Node.Key()).Observe(e.Duration.Seconds())
			c.addCost(e)
		},
	}
}

// Handler serves the metrics of g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
