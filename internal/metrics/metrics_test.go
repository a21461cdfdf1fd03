package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"jobmate/workflow-service/internal/analytics"
	"jobmate/workflow-service/internal/metrics"
	"jobmate/workflow-service/internal/pipeline"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a custom registry", t, func() {
		reg := prometheus.NewRegistry()

		Convey("When two managers are created on separate registries", func() {
			a := metrics.NewManager(metrics.WithRegistry(reg))
			b := metrics.NewManager()

			Convey("Then both register without collisions", func() {
				So(a.Registry(), ShouldEqual, reg)
				So(b.Registry(), ShouldNotEqual, reg)
			})
		})

		Convey("When created with custom names", func() {
			m := metrics.NewManager(
				metrics.WithRegistry(reg),
				metrics.WithNamespace("acme"),
				metrics.WithSubsystem("hiring"),
				metrics.WithHistogramBuckets([]float64{0.1, 1}),
			)
			m.CacheHit("analytics")

			Convey("Then metric names use them", func() {
				n, err := testutil.GatherAndCount(reg, "acme_hiring_cache_requests_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given a manager", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(metrics.WithRegistry(reg))

		Convey("When transitions and cache lookups are observed", func() {
			m.ObserveTransition(pipeline.StageApplied, pipeline.StageShortlisted, "committed")
			m.ObserveTransition(pipeline.StageApplied, pipeline.StageShortlisted, "committed")
			m.ObserveTransition(pipeline.StageApplied, pipeline.StageInterviewPassed, "invalid")
			m.CacheHit("analytics")
			m.CacheMiss("analytics")
			m.CacheMiss("analytics")

			Convey("Then the counters reflect them", func() {
				So(gatherCount(reg, "jobmate_workflow_transitions_total"), ShouldEqual, 2)
				So(testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP jobmate_workflow_cache_requests_total Result cache lookups by class and result (hit or miss)
# TYPE jobmate_workflow_cache_requests_total counter
jobmate_workflow_cache_requests_total{class="analytics",result="hit"} 1
jobmate_workflow_cache_requests_total{class="analytics",result="miss"} 2
`), "jobmate_workflow_cache_requests_total"), ShouldBeNil)
			})
		})

		Convey("When stage analytics are published", func() {
			m.SetStageAnalytics(analytics.FromCounts(map[pipeline.Stage]int{
				pipeline.StageApplied:         3,
				pipeline.StageInterviewPassed: 1,
			}))

			Convey("Then every stage has a gauge", func() {
				So(gatherCount(reg, "jobmate_workflow_candidates"), ShouldEqual, len(pipeline.Stages()))
				n, err := testutil.GatherAndCount(reg, "jobmate_workflow_success_rate_percent")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})
	})
}

func TestMiddleware(t *testing.T) {
	Convey("Given a mux wrapped by the middleware", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(metrics.WithRegistry(reg))
		mux := http.NewServeMux()
		mux.HandleFunc("GET /workflow/candidates/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		h := m.Middleware(mux)

		Convey("When requests hit a parameterised route", func() {
			for _, id := range []string{"a", "b"} {
				h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/workflow/candidates/"+id, nil))
			}

			Convey("Then they share the pattern label", func() {
				So(gatherCount(reg, "jobmate_workflow_http_requests_total"), ShouldEqual, 1)
			})
		})

		Convey("When /metrics is scraped", func() {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			body, _ := io.ReadAll(rec.Body)

			Convey("Then unmatched routes are labelled as such", func() {
				So(string(body), ShouldContainSubstring, `endpoint="unmatched"`)
			})
		})
	})
}

func gatherCount(reg *prometheus.Registry, name string) int {
	n, err := testutil.GatherAndCount(reg, name)
	if err != nil {
		return -1
	}
	return n
}
