package domain

import "errors"

var (
	// ErrNotAuthenticated means the action requires a logged-in session and
	// none is present. Callers should route the user to the login flow.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionExpired means the server rejected our credentials and the
	// refresh attempt failed. The session must be torn down.
	ErrSessionExpired = errors.New("session expired")

	// ErrPlaybackAborted marks a play request that was superseded by a newer
	// source before it could start. Benign; never surfaced to the user.
	ErrPlaybackAborted = errors.New("playback aborted by source switch")

	// ErrSongNotFound means an id could not be resolved against the library.
	ErrSongNotFound = errors.New("song not found")

	// ErrQueueEmpty means a transport operation ran against an empty queue.
	ErrQueueEmpty = errors.New("queue is empty")
)
