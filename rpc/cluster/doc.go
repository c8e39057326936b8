// Package cluster is the client side entry point of the RPC layer. It turns
// messages into bytes, sends them through a transport and turns the answer back
// into a message, all without blocking the caller.
//
// Key Components:
//
//   - ICluster / NewCluster: the cluster handle. A handle is bound to one shard,
//     one transport and one serializer and is safe for concurrent use. Commands
//     receive it explicitly on every execution, there is no global instance.
//
//   - Operation and Execute: an Operation carries an encoded request and knows how
//     to decode the response. Execute submits it and adapts the raw response future
//     into a future of the typed response (see future.Adapt).
//
//   - TransportError: every failure of Submit. It carries the message type and the
//     store.RetCode reported by the node, so callers can branch on e.g.
//     store.RetCNotFound with HasCode.
//
// Metrics:
//
//	Submit records per operation counters (dcmd_operations_total,
//	dcmd_operation_errors_total, dcmd_operations_cancelled_total) and a latency
//	histogram (dcmd_operation_duration_seconds) in the default VictoriaMetrics set.
//	They are exposed by the metrics endpoint of "dcmd serve", or by any caller of
//	metrics.WritePrometheus.
//
// Usage Example:
//
//	c, err := cluster.NewCluster(100, common.ClientConfig{
//	    Endpoints:     []string{"localhost:8080"},
//	    TimeoutSecond: 5,
//	    RetryCount:    3,
//	}, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	resp, err := cluster.Execute(c, op).Get()
package cluster
