package download

// Status is the job-level state chart. The linear success path is
// None -> Pending -> Head -> Download -> DownloadPost -> FileVerify -> Complete;
// Failed and Stop are terminal and reachable from any non-terminal state.
// The only backwards transition is Pending re-entry caused by scheduler
// pre-emption (see Service).
type Status int

const (
	StatusNone Status = iota
	StatusPending
	StatusHead
	StatusDownload
	StatusDownloadPost
	StatusFileVerify
	StatusComplete
	StatusFailed
	StatusStop
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "None"
	case StatusPending:
		return "Pending"
	case StatusHead:
		return "Head"
	case StatusDownload:
		return "Download"
	case StatusDownloadPost:
		return "DownloadPost"
	case StatusFileVerify:
		return "FileVerify"
	case StatusComplete:
		return "Complete"
	case StatusFailed:
		return "Failed"
	case StatusStop:
		return "Stop"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether s admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusFailed || s == StatusStop
}
