package cnst

const (
	AppName     = "choirhub"
	CommandName = "apiserver"
)

const (
	// XLang is the header clients use to pick the response language
	XLang = "X-Lang"
	// XTraceID carries the request trace id
	XTraceID = "X-Trace-Id"
)

const (
	LangEN = "en"
	LangES = "es"
)
