package publisher

import "fmt"

// Platform tags every payload and result.
type Platform string

const (
	PlatformDevTo    Platform = "devto"
	PlatformTwitter  Platform = "twitter"
	PlatformLinkedIn Platform = "linkedin"
	PlatformHashnode Platform = "hashnode"
	PlatformBlog     Platform = "blog"
	PlatformRichText Platform = "richtext"
)

// Status is the terminal state of one builder run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Result is what a builder returns. Skipped and error results carry a
// human-readable Message; Payload is set only on success.
type Result struct {
	Platform Platform `json:"platform"`
	Status   Status   `json:"status"`
	Message  string   `json:"message,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Payload  any      `json:"payload,omitempty"`
}

func skipped(p Platform, format string, args ...any) Result {
	return Result{Platform: p, Status: StatusSkipped, Message: fmt.Sprintf(format, args...)}
}

func failed(p Platform, err error) Result {
	return Result{Platform: p, Status: StatusError, Message: err.Error()}
}
