package monitoring

import (
	"time"

	"ourscreen/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Counters
	tokensIssuedTotal   prometheus.Counter
	tokensFallbackTotal prometheus.Counter
	tokensFailedTotal   prometheus.Counter
	messagesTotal       prometheus.Counter
	reconnectsTotal     prometheus.Counter

	// Gauges
	roomsActiveTotal     prometheus.Gauge
	syncConnectionsTotal prometheus.Gauge

	// Histograms
	tokenMintDuration prometheus.Histogram

	// Per-room metrics
	roomParticipantCount *prometheus.GaugeVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		tokensIssuedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ourscreen_tokens_issued_total",
			Help: "Total number of access tokens issued",
		}),

		tokensFallbackTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ourscreen_tokens_fallback_total",
			Help: "Total number of tokens produced by the fallback signer",
		}),

		tokensFailedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ourscreen_tokens_failed_total",
			Help: "Total number of token requests that failed",
		}),

		messagesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ourscreen_messages_total",
			Help: "Total number of chat messages stored",
		}),

		reconnectsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ourscreen_sync_reconnects_total",
			Help: "Total number of sync gateway reconnect attempts",
		}),

		roomsActiveTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ourscreen_rooms_active_total",
			Help: "Total number of rooms currently stored",
		}),

		syncConnectionsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ourscreen_sync_connections_total",
			Help: "Total number of open sync gateway connections",
		}),

		tokenMintDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ourscreen_token_mint_duration_seconds",
			Help:    "Duration of token generation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),

		roomParticipantCount: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ourscreen_room_participant_count",
			Help: "Number of participants in each room",
		}, []string{"room_id"}),
	}
}

func (p *PrometheusCollector) RecordTokenIssued(duration time.Duration) {
	p.tokensIssuedTotal.Inc()
	p.tokenMintDuration.Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordTokenFallback() {
	p.tokensFallbackTotal.Inc()
}

func (p *PrometheusCollector) RecordTokenFailed() {
	p.tokensFailedTotal.Inc()
}

func (p *PrometheusCollector) RecordRoomCreated(roomID domain.RoomID) {
	p.roomsActiveTotal.Inc()
}

func (p *PrometheusCollector) RecordRoomDeleted(roomID domain.RoomID) {
	p.roomsActiveTotal.Dec()
	p.roomParticipantCount.DeleteLabelValues(string(roomID))
}

func (p *PrometheusCollector) RecordParticipantJoined(roomID domain.RoomID) {
	p.roomParticipantCount.WithLabelValues(string(roomID)).Inc()
}

func (p *PrometheusCollector) RecordParticipantLeft(roomID domain.RoomID) {
	p.roomParticipantCount.WithLabelValues(string(roomID)).Dec()
}

func (p *PrometheusCollector) RecordMessage() {
	p.messagesTotal.Inc()
}

func (p *PrometheusCollector) RecordSyncConnected() {
	p.syncConnectionsTotal.Inc()
}

func (p *PrometheusCollector) RecordSyncDisconnected() {
	p.syncConnectionsTotal.Dec()
}

func (p *PrometheusCollector) RecordReconnectAttempt() {
	p.reconnectsTotal.Inc()
}
