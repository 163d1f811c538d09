// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層やミドルウェアから利用する。
type MetricsCollector interface {
	RecordAuthSuccess()
	RecordAuthFailure()
	RecordEntryMutation(operation string)
	RecordAuthzDenied()
	RecordSessionsCleaned(count int)
	RecordHTTPRequest(method, path string, status int, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	authSuccess     prometheus.Counter
	authFail        prometheus.Counter
	entryMutations  *prometheus.CounterVec
	authzDenied     prometheus.Counter
	sessionsCleaned prometheus.Counter
	httpStatus      *prometheus.CounterVec
	requestLatency  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "playnote_auth_success_total",
			Help: "ログイン成功の合計数",
		}),
		authFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "playnote_auth_fail_total",
			Help: "ログイン失敗の合計数",
		}),
		entryMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "playnote_entry_mutations_total",
			Help: "エントリ変更操作（create/update/delete）の合計数",
		}, []string{"operation"}),
		authzDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "playnote_authz_denied_total",
			Help: "所有権違反により拒否された変更操作の合計数",
		}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "playnote_sessions_cleaned_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "playnote_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "playnote_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.authSuccess,
		c.authFail,
		c.entryMutations,
		c.authzDenied,
		c.sessionsCleaned,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordAuthSuccess はログイン成功を記録する。
func (c *Collector) RecordAuthSuccess() {
	c.authSuccess.Inc()
}

// RecordAuthFailure はログイン失敗を記録する。
func (c *Collector) RecordAuthFailure() {
	c.authFail.Inc()
}

// RecordEntryMutation はエントリ変更操作を記録する。
func (c *Collector) RecordEntryMutation(operation string) {
	c.entryMutations.WithLabelValues(operation).Inc()
}

// RecordAuthzDenied は所有権違反による拒否を記録する。
func (c *Collector) RecordAuthzDenied() {
	c.authzDenied.Inc()
}

// RecordSessionsCleaned はクリーンアップで削除されたセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int) {
	c.sessionsCleaned.Add(float64(count))
}

// RecordHTTPRequest はリクエストのステータスコードとレイテンシを記録する。
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpStatus.WithLabelValues(strconv.Itoa(status)).Inc()
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
