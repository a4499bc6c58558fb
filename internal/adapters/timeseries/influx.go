// Package timeseries writes compound cycles to InfluxDB for dashboards.
package timeseries

import (
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/fixedpoint"
)

const cycleMeasurement = "compound_cycle"

type CycleRecorder struct {
	client   influxdb2.Client
	outbound api.WriteAPI
	done     chan struct{}
}

func NewCycleRecorder(url, token, org, bucket string) *CycleRecorder {
	client := influxdb2.NewClient(url, token)
	r := &CycleRecorder{
		client:   client,
		outbound: client.WriteAPI(org, bucket),
		done:     make(chan struct{}),
	}
	go r.logErrors()
	return r
}

func (r *CycleRecorder) logErrors() {
	errs := r.outbound.Errors()
	for {
		select {
		case err := <-errs:
			log.Warn().Err(err).Msg("[timeseries] failed to write compound cycle")
		case <-r.done:
			return
		}
	}
}

// RecordCycle queues one point for the cycle. Writes are batched and never block the caller.
func (r *CycleRecorder) RecordCycle(result *domain.CompoundResult) {
	r.outbound.WritePoint(CyclePoint(result))
}

func (r *CycleRecorder) Close() {
	r.outbound.Flush()
	close(r.done)
	r.client.Close()
}

func CyclePoint(result *domain.CompoundResult) *write.Point {
	s := &result.Summary
	tags := map[string]string{
		"asset":  result.Asset,
		"caller": result.Caller,
	}
	fields := map[string]interface{}{
		"cycle_id":           result.ID.String(),
		"reward":             fixedpoint.Float64(&s.Reward),
		"secondary_reward":   fixedpoint.Float64(&s.SecondaryReward),
		"commission":         fixedpoint.Float64(&s.Commission),
		"compound_amount":    fixedpoint.Float64(&s.CompoundAmount),
		"stake_amount":       fixedpoint.Float64(&s.StakeAmount),
		"protocol_amount":    fixedpoint.Float64(&s.ProtocolAmount),
		"lp_amount":          fixedpoint.Float64(&s.LPAmount),
		"reinvest_allowance": fixedpoint.Float64(&s.ReinvestAllowance),
		"actions":            len(result.Actions),
	}
	return write.NewPoint(cycleMeasurement, tags, fields, result.At)
}
