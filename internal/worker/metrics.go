package worker

// Metrics receives per-sweep counts from the workers.
type Metrics interface {
	WorkerRun(worker string, err error)
	WorkerOrders(worker, result string, n int)
}

type nopMetrics struct{}

func (nopMetrics) WorkerRun(string, error)          {}
func (nopMetrics) WorkerOrders(string, string, int) {}

func orNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
