package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

// value reads the current value of a counter or gauge.
func value(m prometheus.Metric) float64 {
	var out dto.Metric
	So(m.Write(&out), ShouldBeNil)
	if out.Counter != nil {
		return out.GetCounter().GetValue()
	}
	return out.GetGauge().GetValue()
}

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it uses the sideline namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
				manager.swaps.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "sideline_session_swaps_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(false),
				WithRefreshInterval(3*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "unit")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.Enabled(), ShouldBeFalse)
				So(manager.RefreshInterval(), ShouldEqual, 3*time.Second)
			})
		})

		Convey("When empty options are passed", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "sideline")
				So(manager.subsystem, ShouldEqual, "session")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When session metrics are recorded", func() {
			before := value(globalManager.swaps)
			RecordSwap()
			RecordClockTick()
			RecordStaleTick()
			RecordCommandApplied("tap")
			RecordCommandDuplicate()
			RecordCommandLatency(1.5)
			RecordLogLine("substitution")
			RecordReportSent("sent")
			UpdateObservers(2)
			UpdateClock(135, true)

			Convey("Then counters and gauges move", func() {
				So(value(globalManager.swaps), ShouldEqual, before+1)
				So(value(globalManager.clockElapsed), ShouldEqual, 135.0)
				So(value(globalManager.clockRunning), ShouldEqual, 1.0)
				So(value(globalManager.observers), ShouldEqual, 2.0)
			})

			Convey("And a stopped clock reports zero running", func() {
				UpdateClock(135, false)
				So(value(globalManager.clockRunning), ShouldEqual, 0.0)
			})
		})

		Convey("When operational metrics are recorded", func() {
			So(func() {
				UpdateQueueSize(3)
				UpdateQueueCapacity(1024)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordHTTPRequest("session", "GET", "200")
				RecordHTTPRequestDuration("session", "GET", "200", 2.0)
				RecordErrorByComponent("queue", "full")
				RecordErrorByEndpoint("tap", "POST", "not_found")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("When recording is disabled", func() {
			Configure(WithMetricsEnabled(false))
			defer Configure(WithMetricsEnabled(true))
			swaps := value(globalManager.swaps)
			elapsed := value(globalManager.clockElapsed)
			RecordSwap()
			UpdateClock(int(elapsed+60), true)

			Convey("Then nothing moves", func() {
				So(Enabled(), ShouldBeFalse)
				So(value(globalManager.swaps), ShouldEqual, swaps)
				So(value(globalManager.clockElapsed), ShouldEqual, elapsed)
			})
		})

		Convey("When the refresh interval is configured", func() {
			Configure(WithRefreshInterval(250 * time.Millisecond))
			defer Configure(WithRefreshInterval(defaultRefreshInterval))

			Convey("Then updaters see the new interval", func() {
				So(RefreshInterval(), ShouldEqual, 250*time.Millisecond)
			})
		})

		Convey("When the registry is exported", func() {
			RecordSwap()
			families, err := GetRegistry().Gather()

			Convey("Then the session metrics are on the custom registry", func() {
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "sideline_session_swaps_total")
			})
		})
	})
}
