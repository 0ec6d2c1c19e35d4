package processor

import "github.com/cmatc13/tender/pkg/errors"

func errorCode(err error) string {
	if code := errors.CodeOf(err); code != "" {
		return code
	}
	return "UNKNOWN"
}
