package models

import "errors"

var (
	// ErrNoFrames marks the normal end of a video source
	ErrNoFrames = errors.New("no more frames")

	// ErrEngineUnavailable is wrapped by remote engine errors raised before
	// any request was sent
	ErrEngineUnavailable = errors.New("engine unavailable")
)
