package runtime

import (
	"context"
	"time"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-custody/pkg/metrics"
	"github.com/code-payments/code-custody/pkg/solana"
)

const (
	executorMetricsName = "solana.runtime.executor"

	transactionExecutedEventName = "RuntimeTransactionExecuted"

	executionCountMetricName   = "Runtime/Execution/Count"
	executionLatencyMetricName = "Runtime/Execution/Latency"
	failureCountMetricName     = "Runtime/Execution/FailureCount"
)

func recordExecutionEvent(ctx context.Context, txn *solana.Transaction, result *Result, err error, latency time.Duration) {
	kvPairs := map[string]interface{}{
		"instructions": len(txn.Message.Instructions),
		"accounts":     len(txn.Message.Accounts),
		"latency_ms":   latency.Milliseconds(),
		"success":      err == nil,
	}
	if len(txn.Signatures) > 0 {
		kvPairs["signature"] = base58.Encode(txn.Signatures[0][:])
	}

	if result != nil {
		kvPairs["execution_id"] = result.ExecutionID.String()
		kvPairs["slot"] = result.Slot
	}

	var txErr *solana.TransactionError
	if errors.As(err, &txErr) {
		kvPairs["error"] = string(txErr.ErrorKey())
		if ixErr := txErr.InstructionError(); ixErr != nil {
			kvPairs["instruction_index"] = ixErr.Index
			kvPairs["instruction_error"] = string(ixErr.ErrorKey())
		}
	} else if err != nil {
		kvPairs["error"] = err.Error()
	}

	metrics.RecordEvent(ctx, transactionExecutedEventName, kvPairs)
	metrics.RecordCount(ctx, executionCountMetricName, 1)
	metrics.RecordDuration(ctx, executionLatencyMetricName, latency)
	if err != nil {
		metrics.RecordCount(ctx, failureCountMetricName, 1)
	}
}
