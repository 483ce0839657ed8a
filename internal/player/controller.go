// Package player owns the single audio device and all transport control.
//
// The controller is a small state machine (idle, loading, playing, paused)
// driven by user intent on one side and asynchronous device events on the
// other. Source switches are serialized: a play request that settles after
// a newer source was assigned is recognized as a benign abort and ignored
// rather than surfaced as a failure.
package player

import (
	"errors"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/nvander/strum/internal/domain"
)

// RepeatMode controls what happens when a track ends.
type RepeatMode string

const (
	RepeatNone RepeatMode = "none"
	RepeatAll  RepeatMode = "all"
	RepeatOne  RepeatMode = "one"
)

// State is the controller's derived transport state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
)

// DefaultVolume is the initial volume and the level unmute restores.
// Unmute deliberately does not remember the prior level.
const DefaultVolume = 0.7

const skipSeconds = 15

// Queue supplies the ordered candidate list next/previous operate over.
type Queue interface {
	Songs() []domain.Song
}

// Resolver looks a song up by id in the library cache.
type Resolver func(id string) (domain.Song, bool)

// Status is an immutable snapshot of the playback session for the UI.
type Status struct {
	SongID      string
	State       State
	Playing     bool
	Buffering   bool
	CurrentTime float64
	Duration    float64
	Progress    float64 // 0..100, 0 when duration is unknown
	Volume      float64
	Shuffle     bool
	Repeat      RepeatMode
}

// Controller translates transport intent into device operations. It is the
// only component allowed to touch the audio device.
type Controller struct {
	device      domain.AudioDevice
	queue       Queue
	resolve     Resolver
	formatAudio func(ref string) string
	logger      *slog.Logger

	// notify publishes now-playing metadata (desktop notification).
	notify func(song domain.Song)
	// onSongChange fires whenever the current song id changes to a
	// non-empty value. Wired to the recently-played list.
	onSongChange func(id string)

	mu          sync.Mutex
	currentID   string
	playing     bool
	buffering   bool
	shuffle     bool
	repeat      RepeatMode
	volume      float64
	currentTime float64
	duration    float64

	rng *rand.Rand
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier sets the now-playing publisher.
func WithNotifier(fn func(domain.Song)) Option {
	return func(c *Controller) { c.notify = fn }
}

// WithOnSongChange sets the current-song hook.
func WithOnSongChange(fn func(id string)) Option {
	return func(c *Controller) { c.onSongChange = fn }
}

// WithRand overrides the shuffle source. Tests use a fixed seed.
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) { c.rng = rng }
}

// NewController creates the controller and takes ownership of the device.
func NewController(device domain.AudioDevice, queue Queue, resolve Resolver, formatAudio func(string) string, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if formatAudio == nil {
		formatAudio = func(ref string) string { return ref }
	}
	c := &Controller{
		device:      device,
		queue:       queue,
		resolve:     resolve,
		formatAudio: formatAudio,
		logger:      logger,
		repeat:      RepeatNone,
		volume:      DefaultVolume,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(rand.Int63()))
	}
	device.SetVolume(c.volume)
	device.SetHandler(c.handleDeviceEvent)
	return c
}

// Snapshot returns the current playback status.
func (c *Controller) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		SongID:      c.currentID,
		State:       c.stateLocked(),
		Playing:     c.playing,
		Buffering:   c.buffering,
		CurrentTime: c.currentTime,
		Duration:    c.duration,
		Progress:    progress(c.currentTime, c.duration),
		Volume:      c.volume,
		Shuffle:     c.shuffle,
		Repeat:      c.repeat,
	}
}

// CurrentSongID returns the id of the loaded song, "" when idle.
func (c *Controller) CurrentSongID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentID
}

// CurrentSong resolves the loaded song's metadata. ok is false for a
// dangling reference; transport control keeps working regardless.
func (c *Controller) CurrentSong() (domain.Song, bool) {
	c.mu.Lock()
	id := c.currentID
	c.mu.Unlock()
	if id == "" {
		return domain.Song{}, false
	}
	return c.resolve(id)
}

// PlaySong loads the song and starts playback. The autoplay path owns the
// play intent so that re-selecting the loaded song while paused resumes the
// device instead of only flipping the flag.
func (c *Controller) PlaySong(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCurrentLocked(id, true)
}

// SetCurrentSong loads the song, keeping the current play/pause intent:
// when playing, the new source auto-starts once loaded.
func (c *Controller) SetCurrentSong(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCurrentLocked(id, c.playing)
}

// TogglePlay flips the play/pause intent.
func (c *Controller) TogglePlay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = !c.playing
	if c.playing {
		c.playDeviceLocked()
	} else {
		c.device.Pause()
	}
}

// Next advances the queue manually. Manual skips always wrap.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advanceLocked(false)
}

// Previous steps back in the queue, wrapping past the start. Unlike natural
// end-of-queue, previous always wraps.
func (c *Controller) Previous() {
	c.mu.Lock()
	defer c.mu.Unlock()

	songs := c.queue.Songs()
	if len(songs) == 0 {
		return
	}

	var prev int
	cur := indexOf(songs, c.currentID)
	if c.shuffle {
		prev = c.randomIndexLocked(len(songs), cur)
	} else {
		prev = cur - 1
		if prev < 0 {
			prev = len(songs) - 1
		}
	}

	if songs[prev].ID == c.currentID {
		c.restartLocked()
		return
	}
	c.setCurrentLocked(songs[prev].ID, true)
}

// Seek jumps to a position given as a percentage of the duration. No-op
// while the duration is unknown.
func (c *Controller) Seek(percentage float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.device.Duration()
	if d <= 0 {
		return
	}
	percentage = clamp(percentage, 0, 100)
	t := percentage / 100 * d
	if err := c.device.Seek(t); err != nil {
		c.logger.Warn("seek failed", "error", err)
		return
	}
	c.currentTime = t
}

// SkipForward jumps 15 seconds ahead, clamped to the duration.
func (c *Controller) SkipForward() {
	c.skipBy(skipSeconds)
}

// SkipBackward jumps 15 seconds back, clamped to zero.
func (c *Controller) SkipBackward() {
	c.skipBy(-skipSeconds)
}

func (c *Controller) skipBy(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := clamp(c.device.Position()+delta, 0, c.device.Duration())
	if err := c.device.Seek(t); err != nil {
		c.logger.Warn("skip failed", "error", err)
		return
	}
	c.currentTime = t
}

// SetVolume sets the output level, clamped to [0,1].
func (c *Controller) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setVolumeLocked(v)
}

// ToggleMute silences the output, or restores the default level.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.volume > 0 {
		c.setVolumeLocked(0)
	} else {
		c.setVolumeLocked(DefaultVolume)
	}
}

// ToggleShuffle flips shuffle mode.
func (c *Controller) ToggleShuffle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shuffle = !c.shuffle
}

// CycleRepeat steps none -> all -> one -> none.
func (c *Controller) CycleRepeat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.repeat {
	case RepeatNone:
		c.repeat = RepeatAll
	case RepeatAll:
		c.repeat = RepeatOne
	default:
		c.repeat = RepeatNone
	}
}

// SetRepeat sets the repeat mode directly.
func (c *Controller) SetRepeat(mode RepeatMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repeat = mode
}

// Stop tears playback down to idle. Used on logout.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.device.Stop()
	c.currentID = ""
	c.playing = false
	c.buffering = false
	c.currentTime = 0
	c.duration = 0
}

// Close releases the device.
func (c *Controller) Close() error {
	return c.device.Close()
}

// === internals ===

func (c *Controller) stateLocked() State {
	switch {
	case c.currentID == "":
		return StateIdle
	case c.buffering:
		return StateLoading
	case c.playing:
		return StatePlaying
	default:
		return StatePaused
	}
}

// setCurrentLocked switches the loaded source. Assigning the same source is
// a no-op; a genuinely new source resets time state immediately so no stale
// progress shows against the new song.
func (c *Controller) setCurrentLocked(id string, autoplay bool) {
	changed := id != c.currentID
	c.currentID = id
	if id == "" {
		return
	}
	if changed && c.onSongChange != nil {
		c.onSongChange(id)
	}

	song, ok := c.resolve(id)
	if !ok || song.AudioURL == "" {
		// Dangling reference: metadata will not render, but transport
		// logic stays intact.
		c.logger.Warn("current song unresolvable", "songID", id)
		return
	}

	src := c.formatAudio(song.AudioURL)
	if c.device.Source() == src {
		if autoplay && !c.playing {
			c.playing = true
			c.playDeviceLocked()
		}
		return
	}

	c.currentTime = 0
	c.duration = 0
	c.buffering = true
	if autoplay {
		c.playing = true
	}

	if err := c.device.Load(src); err != nil {
		c.logger.Error("failed to load source", "songID", id, "error", err)
		c.buffering = false
		return
	}
	if autoplay {
		c.playDeviceLocked()
	}
	if c.notify != nil {
		go c.notify(song)
	}
}

// playDeviceLocked starts the device, tolerating the benign abort that
// happens when a newer source superseded this request.
func (c *Controller) playDeviceLocked() {
	if err := c.device.Play(); err != nil {
		if errors.Is(err, domain.ErrPlaybackAborted) {
			return
		}
		c.logger.Warn("play failed", "error", err)
		c.playing = false
	}
}

// restartLocked replays the current source from the top without reloading.
func (c *Controller) restartLocked() {
	if err := c.device.Seek(0); err != nil {
		c.logger.Warn("restart seek failed", "error", err)
	}
	c.currentTime = 0
	if c.playing {
		c.playDeviceLocked()
	}
}

// advanceLocked implements the end-of-track / skip transition. stopAtEnd is
// true only for a natural track end with repeat off and shuffle off; in that
// case running past the last track pauses instead of wrapping.
func (c *Controller) advanceLocked(stopAtEnd bool) {
	songs := c.queue.Songs()
	if len(songs) == 0 {
		return
	}

	if c.repeat == RepeatOne {
		c.playing = true
		c.restartLocked()
		return
	}

	cur := indexOf(songs, c.currentID)
	var next int
	if c.shuffle {
		next = c.randomIndexLocked(len(songs), cur)
	} else {
		next = cur + 1
		if next >= len(songs) {
			if stopAtEnd {
				// End of queue without repeat: stay on the last track.
				c.playing = false
				c.device.Pause()
				return
			}
			next = 0
		}
	}

	if songs[next].ID == c.currentID {
		// Single-candidate queue: restart in place, no source reload.
		c.restartLocked()
		return
	}
	c.setCurrentLocked(songs[next].ID, true)
}

// randomIndexLocked picks a shuffle target, never the current index while
// alternatives exist.
func (c *Controller) randomIndexLocked(n, cur int) int {
	if n <= 1 {
		return 0
	}
	if cur < 0 || cur >= n {
		return c.rng.Intn(n)
	}
	i := c.rng.Intn(n - 1)
	if i >= cur {
		i++
	}
	return i
}

// handleDeviceEvent is the device's callback; events arrive from device
// goroutines and are serialized here.
func (c *Controller) handleDeviceEvent(ev domain.DeviceEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev {
	case domain.DeviceTimeUpdate:
		c.currentTime = c.device.Position()
		if d := c.device.Duration(); d > 0 {
			c.duration = d
		}
	case domain.DeviceReady:
		c.buffering = false
		if d := c.device.Duration(); d > 0 {
			c.duration = d
		}
	case domain.DeviceWaiting:
		c.buffering = true
	case domain.DeviceEnded:
		c.advanceLocked(c.repeat == RepeatNone && !c.shuffle)
	case domain.DeviceError:
		// Genuine playback failure: clear buffering, keep the intent flag;
		// no auto-retry of a failed load.
		c.buffering = false
		c.logger.Error("device reported playback error", "songID", c.currentID)
	}
}

func (c *Controller) setVolumeLocked(v float64) {
	c.volume = clamp(v, 0, 1)
	c.device.SetVolume(c.volume)
}

func progress(currentTime, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return currentTime / duration * 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func indexOf(songs []domain.Song, id string) int {
	for i, s := range songs {
		if s.ID == id {
			return i
		}
	}
	return -1
}
