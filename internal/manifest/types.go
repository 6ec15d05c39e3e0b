package manifest

// Report is the output of a shopimg normalize run.
type Report struct {
	Version     int     `json:"version"`
	GeneratedAt string  `json:"generated_at"`
	Rule        string  `json:"rule"`
	Target      Target  `json:"target"`
	BasePath    string  `json:"base_path"`
	Items       []Entry `json:"items"`
	Stats       Stats   `json:"stats"`
}

// Target records the conversion rule the items were normalized under.
type Target struct {
	Type     string `json:"type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MaxBytes int64  `json:"max_bytes"`
}

// Entry is one item of the list, in list order.
type Entry struct {
	ID       string        `json:"id"`
	Remote   string        `json:"remote,omitempty"` // retained URL, no output file
	Original *OriginalInfo `json:"original,omitempty"`
	Output   *Output       `json:"output,omitempty"`
}

// OriginalInfo holds metadata about the source file.
type OriginalInfo struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Size         int64  `json:"size"`
	LastModified int64  `json:"last_modified"`
}

// Output is the normalized file written for an entry.
type Output struct {
	Type     string  `json:"type"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Size     int64   `json:"size"`     // bytes on disk
	Hash     string  `json:"hash"`     // first 16 hex chars of xxhash64
	Path     string  `json:"path"`     // relative to base_path
	Quality  float64 `json:"quality"`  // encoder quality in (0,1]
	Attempts int     `json:"attempts"` // encodings tried
}

// Stats aggregates run metrics.
type Stats struct {
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	TotalItems       int   `json:"total_items"`
	Normalized       int   `json:"normalized"`
	Retained         int   `json:"retained,omitempty"`
}

// SupportedReportVersion is the current schema version.
const SupportedReportVersion = 1

// FileName is the report name inside an output directory.
const FileName = "shopimg.report.json"
