package download

import "errors"

var (
	ErrBusy           = errors.New("another download is in progress, please try again later")
	ErrNoTitle        = errors.New("could not resolve video title")
	ErrOutputNotFound = errors.New("output file not found after download")
	ErrCancelled      = errors.New("download cancelled")
)
