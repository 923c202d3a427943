package notify

import "time"

// FileResult describes one file delivered by a fetch.
type FileResult struct {
	Key       string `json:"key"`
	Filename  string `json:"filename"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
}

// Event represents the payload sent downstream after a dataset fetch.
type Event struct {
	DatasetID   string       `json:"dataset_id"`
	DatasetName string       `json:"dataset_name"`
	Files       []FileResult `json:"files"`
	TotalBytes  int64        `json:"total_bytes"`
	ElapsedMs   int64        `json:"elapsed_ms"`
	CompletedAt time.Time    `json:"completed_at"`
}

// NewEvent constructs an Event for a completed dataset fetch.
func NewEvent(datasetID, datasetName string, files []FileResult, elapsed time.Duration) Event {
	var total int64
	for _, f := range files {
		total += f.SizeBytes
	}
	return Event{
		DatasetID:   datasetID,
		DatasetName: datasetName,
		Files:       files,
		TotalBytes:  total,
		ElapsedMs:   elapsed.Milliseconds(),
		CompletedAt: time.Now().UTC(),
	}
}
