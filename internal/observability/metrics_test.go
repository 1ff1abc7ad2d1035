package observability

import "testing"

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordFrame("in", 42)
	RecordFrame("out", 10)
	RecordRequest(6, "ok")
	RecordRequest(17, "timeout")
	RecordPayloadDrop("decompress")
	RecordKeepaliveFailure()
}
