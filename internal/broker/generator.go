package broker

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Generator feeds the hub with demo events: a random walk over the headline
// ad metrics, rotating notifications, per-platform sync progressions and
// anomaly alerts when the walk deviates hard from its baseline.
type Generator struct {
	hub  *Hub
	tick time.Duration
	rng  *rand.Rand

	cur      metrics
	baseline metrics
	syncs    []*syncJob
	notifIdx int
}

type syncJob struct {
	platform string
	progress float64
	records  int
	running  bool
	cooldown int // ticks until the next run starts
}

var demoNotifications = []notificationFrame{
	{Type: msgNotification, Title: "Budget", Message: "80% of the monthly budget is spent", Level: "warning"},
	{Type: msgNotification, Title: "Report ready", Message: "Weekly performance report has been generated", Level: "info"},
	{Type: msgNotification, Title: "New conversion record", Message: "Orders passed yesterday's total before noon", Level: "info"},
	{Type: msgNotification, Title: "Billing", Message: "Payment method expires at the end of the month", Level: "error"},
}

func NewGenerator(hub *Hub, tick time.Duration) *Generator {
	if tick <= 0 {
		tick = time.Second
	}
	base := metrics{Revenue: 1250, Spend: 310, ROAS: 4.0, Orders: 27}
	return &Generator{
		hub:      hub,
		tick:     tick,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		cur:      base,
		baseline: base,
		syncs: []*syncJob{
			{platform: "google_ads", cooldown: 3},
			{platform: "meta_ads", cooldown: 9},
			{platform: "tiktok_ads", cooldown: 15},
		},
	}
}

func (g *Generator) Start(ctx context.Context) {
	go g.run(ctx)
}

func (g *Generator) run(ctx context.Context) {
	ticker := time.NewTicker(g.tick)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick++
			g.advanceMetrics()
			g.advanceSyncs()
			if tick%12 == 0 {
				g.emitNotification()
			}
		}
	}
}

func (g *Generator) advanceMetrics() {
	g.cur.Revenue = walk(g.rng, g.cur.Revenue, 40)
	g.cur.Spend = walk(g.rng, g.cur.Spend, 18)
	g.cur.Orders += g.rng.Intn(3)
	if g.cur.Spend > 0 {
		g.cur.ROAS = math.Round(g.cur.Revenue/g.cur.Spend*100) / 100
	}

	g.hub.Broadcast("metrics", metricsFrame{
		Type:      msgMetricsUpdate,
		Metrics:   g.cur,
		Timestamp: time.Now().UTC(),
	})

	g.checkAnomaly("spend", g.cur.Spend, g.baseline.Spend)
	g.checkAnomaly("revenue", g.cur.Revenue, g.baseline.Revenue)
}

// checkAnomaly fires an alert once the walk drifts more than 60% off its
// baseline, then pulls the metric halfway back so alerts stay occasional.
func (g *Generator) checkAnomaly(metric string, actual, expected float64) {
	deviation := (actual - expected) / expected * 100
	if math.Abs(deviation) < 60 {
		return
	}

	kind := "spike"
	if deviation < 0 {
		kind = "drop"
	}
	severity := "medium"
	if math.Abs(deviation) >= 100 {
		severity = "high"
	}

	g.hub.Broadcast("anomalies", anomalyFrame{
		Type: msgAnomalyAlert,
		Anomaly: anomaly{
			Metric:           metric,
			Type:             kind,
			Severity:         severity,
			Date:             time.Now().UTC().Format("2006-01-02"),
			ActualValue:      math.Round(actual*100) / 100,
			ExpectedValue:    expected,
			DeviationPercent: math.Round(deviation),
		},
	})

	recovered := expected + (actual-expected)/2
	switch metric {
	case "spend":
		g.cur.Spend = recovered
	case "revenue":
		g.cur.Revenue = recovered
	}
}

func (g *Generator) advanceSyncs() {
	for _, job := range g.syncs {
		if !job.running {
			job.cooldown--
			if job.cooldown > 0 {
				continue
			}
			job.running = true
			job.progress = 0
			job.records = 0
			g.hub.Broadcast("sync_status", syncFrame{
				Type: msgSyncStatus, Platform: job.platform, Status: "started",
			})
			continue
		}

		job.progress += 7 + g.rng.Float64()*12
		job.records += 150 + g.rng.Intn(400)

		if job.progress >= 100 {
			job.running = false
			job.cooldown = 20 + g.rng.Intn(20)

			// Roughly one run in ten ends in an error.
			if g.rng.Intn(10) == 0 {
				g.hub.Broadcast("sync_status", syncFrame{
					Type: msgSyncStatus, Platform: job.platform, Status: "error",
					Details: &syncDetails{Error: "rate limit exceeded, retry scheduled"},
				})
				continue
			}
			g.hub.Broadcast("sync_status", syncFrame{
				Type: msgSyncStatus, Platform: job.platform, Status: "complete",
				Details: &syncDetails{Progress: 100, Records: job.records},
			})
			continue
		}

		g.hub.Broadcast("sync_status", syncFrame{
			Type: msgSyncStatus, Platform: job.platform, Status: "syncing",
			Details: &syncDetails{
				Progress: math.Round(job.progress),
				Records:  job.records,
			},
		})
	}
}

func (g *Generator) emitNotification() {
	n := demoNotifications[g.notifIdx%len(demoNotifications)]
	g.notifIdx++
	g.hub.Broadcast("notifications", n)
}

func walk(rng *rand.Rand, v, step float64) float64 {
	v += (rng.Float64() - 0.48) * step
	if v < 1 {
		v = 1
	}
	return math.Round(v*100) / 100
}
