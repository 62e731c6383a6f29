package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	Gauge instrument = iota
	Counter
	Histogram
)

var (
	ErrInstrumentNotSupported = errors.New("instrument type unsupported")
	ErrInstrumentTypeMismatch = errors.New("instrument is not of the expected type")
)

var (
	setupOnce sync.Once
	setupErr  error

	paintCounter        *prometheus.CounterVec
	paymentCounter      *prometheus.CounterVec
	airdropCounter      *prometheus.CounterVec
	snapshotCounter     *prometheus.CounterVec
	engineTime          *prometheus.CounterVec
	verificationTime    prometheus.Histogram
	paintedCellsGauge   prometheus.Gauge
	connectedGauge      prometheus.Gauge
	broadcastDropsTotal prometheus.Counter
)

// abstract prometheus types
type instrument int

type instrumentOpts struct {
	opts    prometheus.Opts
	buckets []float64
	vectors []string
}

type mi struct {
	gauge     prometheus.Gauge
	counterV  *prometheus.CounterVec
	counter   prometheus.Counter
	histogram prometheus.Histogram
}

// InstrumentOption - vararg for instrument options setting
type InstrumentOption func(o *instrumentOpts)

// Vectors - configuration used to create a vector of a given interface, slice of label names
func Vectors(labels ...string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.vectors = labels
	}
}

// Help - set the help field on instrument
func Help(help string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Help = help
	}
}

// Namespace - set namespace
func Namespace(ns string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Namespace = ns
	}
}

// Buckets - specific to histogram type
func Buckets(b []float64) InstrumentOption {
	return func(o *instrumentOpts) {
		o.buckets = b
	}
}

// AddInstrument, configure and register new metrics instrument
// this will, over time, be moved to use custom Registries, etc...
func AddInstrument(t instrument, name string, opts ...InstrumentOption) (*mi, error) {
	var col prometheus.Collector
	ret := mi{}
	opt := instrumentOpts{
		opts: prometheus.Opts{
			Name: name,
		},
	}
	// apply options
	for _, o := range opts {
		o(&opt)
	}
	switch t {
	case Gauge:
		if len(opt.vectors) != 0 {
			return nil, ErrInstrumentNotSupported
		}
		ret.gauge = prometheus.NewGauge(opt.gauge())
		col = ret.gauge
	case Counter:
		o := opt.counter()
		if len(opt.vectors) == 0 {
			ret.counter = prometheus.NewCounter(o)
			col = ret.counter
		} else {
			ret.counterV = prometheus.NewCounterVec(o, opt.vectors)
			col = ret.counterV
		}
	case Histogram:
		if len(opt.vectors) != 0 {
			return nil, ErrInstrumentNotSupported
		}
		ret.histogram = prometheus.NewHistogram(opt.histogram())
		col = ret.histogram
	default:
		return nil, ErrInstrumentNotSupported
	}
	if err := prometheus.Register(col); err != nil {
		return nil, err
	}
	return &ret, nil
}

// Setup registers all the instruments with the default registry. It is
// safe to call more than once.
func Setup() error {
	setupOnce.Do(func() {
		setupErr = setupMetrics()
	})
	return setupErr
}

// Handler returns the http handler exposing the registered instruments.
func Handler() http.Handler {
	return promhttp.Handler()
}

func (i instrumentOpts) gauge() prometheus.GaugeOpts {
	return prometheus.GaugeOpts(i.opts)
}

func (i instrumentOpts) counter() prometheus.CounterOpts {
	return prometheus.CounterOpts(i.opts)
}

func (i instrumentOpts) histogram() prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Name:      i.opts.Name,
		Namespace: i.opts.Namespace,
		Help:      i.opts.Help,
		Buckets:   i.buckets,
	}
}

func (m mi) Gauge() (prometheus.Gauge, error) {
	if m.gauge == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.gauge, nil
}

func (m mi) Counter() (prometheus.Counter, error) {
	if m.counter == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.counter, nil
}

func (m mi) CounterVec() (*prometheus.CounterVec, error) {
	if m.counterV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.counterV, nil
}

func (m mi) Histogram() (prometheus.Histogram, error) {
	if m.histogram == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.histogram, nil
}

func setupMetrics() error {
	h, err := AddInstrument(
		Counter,
		"paints_total",
		Namespace("baseworld"),
		Vectors("result"),
		Help("Number of paint requests processed, by result"),
	)
	if err != nil {
		return err
	}
	if paintCounter, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(
		Counter,
		"payment_verifications_total",
		Namespace("baseworld"),
		Vectors("status"),
		Help("Number of payment verifications, by final status"),
	)
	if err != nil {
		return err
	}
	if paymentCounter, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(
		Histogram,
		"payment_verification_seconds",
		Namespace("baseworld"),
		Buckets([]float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 12}),
		Help("Time spent resolving a payment reference, retries included"),
	)
	if err != nil {
		return err
	}
	if verificationTime, err = h.Histogram(); err != nil {
		return err
	}

	h, err = AddInstrument(
		Counter,
		"airdrops_total",
		Namespace("baseworld"),
		Vectors("event"),
		Help("Airdrop lifecycle transitions"),
	)
	if err != nil {
		return err
	}
	if airdropCounter, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(
		Counter,
		"snapshot_writes_total",
		Namespace("baseworld"),
		Vectors("result"),
		Help("Number of snapshot writes, by result"),
	)
	if err != nil {
		return err
	}
	if snapshotCounter, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(
		Counter,
		"engine_seconds_total",
		Namespace("baseworld"),
		Vectors("engine", "fn"),
	)
	if err != nil {
		return err
	}
	if engineTime, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(
		Gauge,
		"painted_cells",
		Namespace("baseworld"),
		Help("Number of painted cells"),
	)
	if err != nil {
		return err
	}
	if paintedCellsGauge, err = h.Gauge(); err != nil {
		return err
	}

	h, err = AddInstrument(
		Gauge,
		"connected_viewers",
		Namespace("baseworld"),
		Help("Number of connected push channel viewers"),
	)
	if err != nil {
		return err
	}
	if connectedGauge, err = h.Gauge(); err != nil {
		return err
	}

	h, err = AddInstrument(
		Counter,
		"broadcast_drops_total",
		Namespace("baseworld"),
		Help("Number of viewers dropped because they could not keep up"),
	)
	if err != nil {
		return err
	}
	broadcastDropsTotal, err = h.Counter()
	return err
}

// EngineTimeCounterAdd is used to time a function. Call it, using defer, at the start of the
// function to be timed.
//
// e.g.
//     defer metrics.EngineTimeCounterAdd("canvas", "paint")()
//
// Note the extra "()" at the end of the above line - the returned function must be called.
func EngineTimeCounterAdd(labelValues ...string) func() {
	tc := NewTimeCounter(labelValues...)
	return tc.EngineTimeCounterAdd
}

func PaintCounterInc(result string) {
	if paintCounter == nil {
		return
	}
	paintCounter.WithLabelValues(result).Inc()
}

func PaymentVerificationInc(status string) {
	if paymentCounter == nil {
		return
	}
	paymentCounter.WithLabelValues(status).Inc()
}

func PaymentVerificationObserve(d time.Duration) {
	if verificationTime == nil {
		return
	}
	verificationTime.Observe(d.Seconds())
}

func AirdropInc(event string) {
	if airdropCounter == nil {
		return
	}
	airdropCounter.WithLabelValues(event).Inc()
}

func SnapshotWriteInc(result string) {
	if snapshotCounter == nil {
		return
	}
	snapshotCounter.WithLabelValues(result).Inc()
}

func PaintedCellsSet(n int) {
	if paintedCellsGauge == nil {
		return
	}
	paintedCellsGauge.Set(float64(n))
}

func ConnectedViewersSet(n int) {
	if connectedGauge == nil {
		return
	}
	connectedGauge.Set(float64(n))
}

func BroadcastDropInc() {
	if broadcastDropsTotal == nil {
		return
	}
	broadcastDropsTotal.Inc()
}
