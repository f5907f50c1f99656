package launcher

import "errors"

var (
	errNoElements       = errors.New("launcher: catalog has no elements")
	errNoUsableManifest = errors.New("launcher: catalog element has no usable manifest entry")
)
