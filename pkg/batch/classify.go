package batch

import (
	"github.com/ethpandaops/uploadoor/pkg/flickr"
)

// RawResult is the unprocessed result of one upload call: either a transport
// error or a body believed to be the service's structured reply.
type RawResult struct {
	Body []byte
	Err  error
}

// Classify interprets a raw upload result into a tagged Outcome. It never
// fails: a malformed or stat-less body degrades to a transport failure
// rather than propagating an error to the dispatcher.
func Classify(file string, raw RawResult) Outcome {
	if raw.Err != nil {
		return Outcome{
			File:   file,
			Status: StatusTransportFailure,
			Cause:  raw.Err.Error(),
		}
	}

	rsp, err := flickr.ParseRsp(raw.Body)
	if err != nil {
		return Outcome{
			File:   file,
			Status: StatusTransportFailure,
			Cause:  err.Error(),
		}
	}

	if rsp.OK() {
		return Outcome{
			File:    file,
			Status:  StatusSuccess,
			PhotoID: rsp.PhotoID,
		}
	}

	if rsp.Err == nil {
		return Outcome{
			File:    file,
			Status:  StatusRejected,
			Message: "service reported failure without error detail",
		}
	}

	return Outcome{
		File:    file,
		Status:  StatusRejected,
		Code:    rsp.Err.Code,
		Message: rsp.Err.Msg,
	}
}
