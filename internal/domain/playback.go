package domain

// DeviceEvent identifies an asynchronous audio device callback.
type DeviceEvent int

const (
	// DeviceTimeUpdate fires periodically while a source is loaded; position
	// and duration should be re-read from the device.
	DeviceTimeUpdate DeviceEvent = iota
	// DeviceReady fires when the source is decoded and playable.
	DeviceReady
	// DeviceWaiting fires when the device starts fetching or buffering.
	DeviceWaiting
	// DeviceEnded fires when the current source plays to completion.
	DeviceEnded
	// DeviceError fires on a decode or transport failure of the source.
	DeviceError
)

// AudioDevice is the single audio output of the application. Exactly one
// source is live at a time; Load replaces it. Implementations deliver events
// from their own goroutines via the registered handler; the playback
// controller is the only caller and serializes all access.
type AudioDevice interface {
	// Load assigns a new source and begins fetching it. Any previous source
	// is stopped first; a pending Play for the old source must not start
	// audio once it settles.
	Load(src string) error
	// Play starts or resumes output. Returns ErrPlaybackAborted when the
	// request was superseded by a newer Load before it could take effect.
	Play() error
	Pause()
	// Stop halts output and clears the source entirely.
	Stop()
	Seek(seconds float64) error
	Position() float64 // seconds into the current source
	Duration() float64 // total seconds, 0 while unknown
	SetVolume(v float64)
	Source() string // currently assigned source URL, "" when idle
	SetHandler(fn func(DeviceEvent))
	Close() error
}
