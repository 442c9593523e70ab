package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func gatherFamily(name string) *dto.MetricFamily {
	families, err := GetRegistry().Gather()
	if err != nil {
		return nil
	}
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func counterWithLabel(f *dto.MetricFamily, label, value string) float64 {
	if f == nil {
		return 0
	}
	for _, m := range f.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == label && l.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then the defaults should apply", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "estatecamp")
				So(manager.subsystem, ShouldEqual, "leads")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithLikelihoodBuckets([]float64{0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test-namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.likelihoodBuckets, ShouldResemble, []float64{0.5, 1.0})
				So(manager.constLabels["env"], ShouldEqual, "test")
			})
		})

		Convey("When empty values are passed", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithLikelihoodBuckets(nil),
				WithConstLabels(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "estatecamp")
				So(manager.subsystem, ShouldEqual, "leads")
				So(manager.histogramBuckets, ShouldResemble, defaultLatencyBuckets)
				So(manager.likelihoodBuckets, ShouldResemble, defaultLikelihoodBuckets)
				So(manager.constLabels, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When a prediction is recorded", func() {
			before := counterWithLabel(gatherFamily("estatecamp_leads_predictions_total"), "segment", "Investor")
			RecordPrediction("Investor", 0.9)

			Convey("Then the segment counter should increase", func() {
				after := counterWithLabel(gatherFamily("estatecamp_leads_predictions_total"), "segment", "Investor")
				So(after, ShouldEqual, before+1)
				So(gatherFamily("estatecamp_leads_predicted_likelihood"), ShouldNotBeNil)
			})
		})

		Convey("When import skips are recorded", func() {
			before := counterWithLabel(gatherFamily("estatecamp_leads_import_skipped_total"), "reason", "duplicate")
			RecordImportSkipped("duplicate", 3)

			Convey("Then the reason counter should grow by n", func() {
				after := counterWithLabel(gatherFamily("estatecamp_leads_import_skipped_total"), "reason", "duplicate")
				So(after, ShouldEqual, before+3)
			})
		})

		Convey("When recording the remaining series", func() {
			So(func() {
				RecordScoringLatency(0.2)
				RecordScoringError()
				RecordPredictionPersisted()
				RecordPersistError()
				RecordJobDuplicate()
				RecordLeadsImported(10)
				RecordAssetUploaded("image")
				RecordExportRendered("pdf")
				UpdateTotalLeads(42)
				RecordRateLimited("/score")
				RecordHTTPRequest("/score", "POST", "200")
				RecordHTTPRequestDuration("/score", "POST", "200", 1.5)
				UpdateQueueSize(5)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.05)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(3)
				UpdateWorkerCount(4)
				UpdateWorkerActiveCount(2)
				RecordWorkerProcessingLatency(1)
				RecordWorkerError()
				RecordErrorByComponent("worker", "persist_failed")
				RecordErrorByType("validation_error", "warning")
				RecordErrorByEndpoint("/predict-lead-conversion", "POST", "invalid_argument")
				UpdateSystemMemoryUsage(1024 * 1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)

			Convey("Then the registry should expose them", func() {
				So(gatherFamily("estatecamp_leads_total"), ShouldNotBeNil)
				So(gatherFamily("estatecamp_leads_queue_size"), ShouldNotBeNil)
				So(gatherFamily("estatecamp_leads_http_requests_total"), ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordPrediction("Upgrader", 0.6)
					UpdateQueueSize(j)
					RecordHTTPRequest("/test", "GET", "200")
				}
			}()
		}
		wg.Wait()

		Convey("Then nothing should panic", func() {
			So(counterWithLabel(gatherFamily("estatecamp_leads_predictions_total"), "segment", "Upgrader"),
				ShouldBeGreaterThanOrEqualTo, 1000)
		})
	})
}
