//go:build headless

package main

// NewWindowSink in headless builds hands back the counting null sink so
// the pipeline runs unchanged without a display.
func NewWindowSink(config DisplayConfig) (DisplaySink, error) {
	return NewNullSink(config), nil
}
