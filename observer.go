package firefly

import "time"

// ResponseInfo describes one outbound HTTP call made by the client.
type ResponseInfo struct {
	Op         string // OpToken or OpGenerate
	Method     string
	URL        string
	StatusCode int // 0 when no response was received
	Bytes      int
	Duration   time.Duration
	Err        error // transport error, if any
}

// Observer is invoked synchronously after every outbound call, whether or not
// it succeeded. It must not block.
type Observer func(ResponseInfo)

func (o Observer) notify(info ResponseInfo) {
	if o != nil {
		o(info)
	}
}
