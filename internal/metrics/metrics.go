// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ログイン結果のラベル値。
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
)

// ウェイトリスト登録結果のラベル値。
const (
	WaitlistCreated  = "created"
	WaitlistInvalid  = "invalid"
	WaitlistConflict = "conflict"
	WaitlistError    = "error"
)

// Collector はPrometheusメトリクスを収集する実装。
// 利用側（ミドルウェア、認証・ウェイトリストのサービス、クリーンアップジョブ）は
// 必要なメソッドだけを持つインターフェースで受け取る。
type Collector struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	logins         *prometheus.CounterVec
	waitlist       *prometheus.CounterVec
	sessionsPruned prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collabifyy_http_requests_total",
			Help: "ルート・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "collabifyy_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collabifyy_logins_total",
			Help: "OAuthログインの結果別件数",
		}, []string{"outcome"}),
		waitlist: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collabifyy_waitlist_submissions_total",
			Help: "ウェイトリスト登録の結果別件数",
		}, []string{"outcome"}),
		sessionsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collabifyy_sessions_pruned_total",
			Help: "削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.logins,
		c.waitlist,
		c.sessionsPruned,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの結果と処理時間を記録する。
// routeにはchiのルートパターンを渡し、ラベルのカーディナリティを抑える。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordLogin はOAuthログインの結果を記録する。
func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

// RecordWaitlistSubmission はウェイトリスト登録の結果を記録する。
func (c *Collector) RecordWaitlistSubmission(outcome string) {
	c.waitlist.WithLabelValues(outcome).Inc()
}

// RecordSessionsPruned は削除された期限切れセッション数を記録する。
func (c *Collector) RecordSessionsPruned(count int64) {
	c.sessionsPruned.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
