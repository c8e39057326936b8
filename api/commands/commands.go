package commands

import (
	"github.com/ValentinKolb/dCMD/lib/future"
	"github.com/ValentinKolb/dCMD/rpc/cluster"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("commands")

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Command is an immutable, typed request. R is the typed response of the command
// and Q the information that identifies what the command queries (a location,
// a namespace or a table name).
//
// Commands are created by their builders and can be executed any number of times.
type Command[R, Q any] interface {
	// ExecuteAsync builds the wire operation, submits it to c and returns a future
	// of the typed response without blocking. Failures of the request, of decoding
	// and of the conversion into R are delivered through the future.
	ExecuteAsync(c cluster.ICluster) *future.Future[R]
	// QueryInfo returns what the command addresses
	QueryInfo() Q
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// Execute runs cmd and blocks until its response is available
func Execute[R, Q any](c cluster.ICluster, cmd Command[R, Q]) (R, error) {
	return cmd.ExecuteAsync(c).Get()
}

// Run executes op and adapts the raw result with convert. convert runs once,
// and only if the operation succeeded. Its errors fail the returned future
// with a *future.ConversionError.
// Cancelling the returned future abandons the request if its response has not
// arrived yet.
func Run[W, R any](c cluster.ICluster, op cluster.Operation[W], convert func(W) (R, error)) *future.Future[R] {
	return future.Adapt(cluster.Execute(c, op), convert)
}

// Failed returns a future that failed with err, for operations that could not be
// built. Nothing is sent in that case.
func Failed[R any](err error) *future.Future[R] {
	Logger.Warningf("failed to build operation: %v", err)
	return future.Failed[R](err)
}
