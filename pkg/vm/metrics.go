package vm

import "github.com/prometheus/client_golang/prometheus"

// Collector exposes the executor's op-dispatch count, current operand
// stack depth and Exec call-nesting depth as Prometheus metrics, opt-in via
// an explicit registry (mirrors pkg/mem's Collector, the one other place in
// this engine instrumented this way — spec.md's Non-goals exclude a full
// metrics surface, but an embedder running many VMs benefits from these
// three metrics for free).
type Collector struct {
	state *State
}

// NewCollector builds a Collector reading live counters off state.
func NewCollector(state *State) *Collector {
	return &Collector{state: state}
}

var (
	opDispatchDesc = prometheus.NewDesc("june_vm_ops_dispatched_total", "Total bytecode operations dispatched.", nil, nil)
	stackDepthDesc = prometheus.NewDesc("june_vm_operand_stack_depth", "Current operand stack depth.", nil, nil)
	execDepthDesc  = prometheus.NewDesc("june_vm_exec_stack_depth", "Current executor call-nesting depth.", nil, nil)
)

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- opDispatchDesc
	ch <- stackDepthDesc
	ch <- execDepthDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(opDispatchDesc, prometheus.CounterValue, float64(c.state.opsDispatched))
	ch <- prometheus.MustNewConstMetric(stackDepthDesc, prometheus.GaugeValue, float64(len(c.state.OperandStack)))
	ch <- prometheus.MustNewConstMetric(execDepthDesc, prometheus.GaugeValue, float64(c.state.ExecStackCount))
}
