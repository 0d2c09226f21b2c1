package cnst

// Tracer names used across the services
const (
	TraceAPIServer = "choirhub/apiserver"
	TraceUpload    = "choirhub/upload"
)

const (
	SpanUploadStage  = "upload.stage"
	SpanUploadCommit = "upload.commit"
	SpanReconcile    = "upload.reconcile"
)
