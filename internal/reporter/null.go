package reporter

// NullReporter discards every event. It is the default when a caller
// supplies no reporter.
type NullReporter struct{}

func (NullReporter) RunStarted(RunSummary)             {}
func (NullReporter) SplitComplete(SplitSummary)        {}
func (NullReporter) HostStarted(string)                {}
func (NullReporter) ChunkProgress(ChunkProgressUpdate) {}
func (NullReporter) RunComplete(RunOutcome)            {}
func (NullReporter) Warning(string)                    {}
func (NullReporter) Error(ReporterError)               {}
func (NullReporter) Verbose(string)                    {}
