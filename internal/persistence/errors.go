package persistence

import "errors"

var errSessionKeyUpdateMissingRecord = errors.New("persistence: no verifier record for client id")
