package player

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/nvander/strum/internal/domain"
)

const timeUpdateInterval = 500 * time.Millisecond

// BeepDevice plays mp3 streams through the system speaker. Loads are
// asynchronous: Load returns immediately, the source is fetched and decoded
// in the background, and readiness is reported through the event handler. A
// generation counter discards loads that were superseded before finishing.
type BeepDevice struct {
	httpClient *http.Client
	logger     *slog.Logger
	sampleRate beep.SampleRate

	gen atomic.Uint64

	mu       sync.Mutex
	src      string
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	level    float64
	wantPlay bool
	handler  func(domain.DeviceEvent)
	closed   chan struct{}
}

// NewBeepDevice initializes the speaker and starts the position ticker.
func NewBeepDevice(sampleRate int, logger *slog.Logger) (*BeepDevice, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}

	d := &BeepDevice{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
		sampleRate: sr,
		level:      DefaultVolume,
		closed:     make(chan struct{}),
	}
	go d.tick()
	return d, nil
}

// SetHandler installs the event sink. Events fire from background
// goroutines, never while the device lock is held.
func (d *BeepDevice) SetHandler(fn func(domain.DeviceEvent)) {
	d.mu.Lock()
	d.handler = fn
	d.mu.Unlock()
}

func (d *BeepDevice) emit(ev domain.DeviceEvent) {
	d.mu.Lock()
	fn := d.handler
	d.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// Load begins fetching and decoding the source. Any in-flight load is
// superseded; its result is discarded when it lands.
func (d *BeepDevice) Load(src string) error {
	gen := d.gen.Add(1)

	d.mu.Lock()
	d.src = src
	d.stopLocked()
	d.mu.Unlock()

	go d.fetchAndInstall(gen, src)
	return nil
}

func (d *BeepDevice) fetchAndInstall(gen uint64, src string) {
	d.emit(domain.DeviceWaiting)

	data, err := d.fetch(src)
	if err != nil {
		if gen != d.gen.Load() {
			return
		}
		d.logger.Error("failed to fetch audio", "src", src, "error", err)
		d.emit(domain.DeviceError)
		return
	}

	streamer, format, err := mp3.Decode(nopCloser{bytes.NewReader(data)})
	if err != nil {
		if gen != d.gen.Load() {
			return
		}
		d.logger.Error("failed to decode audio", "src", src, "error", err)
		d.emit(domain.DeviceError)
		return
	}

	d.mu.Lock()
	if gen != d.gen.Load() {
		d.mu.Unlock()
		streamer.Close()
		return
	}

	d.streamer = streamer
	d.format = format

	resampled := beep.Resample(4, format.SampleRate, d.sampleRate, streamer)
	d.ctrl = &beep.Ctrl{Streamer: resampled, Paused: !d.wantPlay}
	d.volume = &effects.Volume{Streamer: d.ctrl, Base: 2}
	d.applyVolumeLocked()

	seq := beep.Seq(d.volume, beep.Callback(func() {
		if gen == d.gen.Load() {
			go d.emit(domain.DeviceEnded)
		}
	}))
	d.mu.Unlock()

	speaker.Play(seq)
	d.emit(domain.DeviceReady)
}

func (d *BeepDevice) fetch(src string) ([]byte, error) {
	resp, err := d.httpClient.Get(src)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Play resumes or arms playback. If the source is still loading, playback
// starts as soon as it lands.
func (d *BeepDevice) Play() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.wantPlay = true
	if d.ctrl != nil {
		speaker.Lock()
		d.ctrl.Paused = false
		speaker.Unlock()
	}
	return nil
}

// Pause halts output without losing position.
func (d *BeepDevice) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.wantPlay = false
	if d.ctrl != nil {
		speaker.Lock()
		d.ctrl.Paused = true
		speaker.Unlock()
	}
}

// Stop tears down the current source entirely.
func (d *BeepDevice) Stop() {
	d.gen.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.src = ""
	d.wantPlay = false
	d.stopLocked()
}

func (d *BeepDevice) stopLocked() {
	if d.ctrl != nil {
		speaker.Lock()
		d.ctrl.Paused = true
		speaker.Unlock()
	}
	if d.streamer != nil {
		d.streamer.Close()
		d.streamer = nil
	}
	d.ctrl = nil
	d.volume = nil
}

// Seek jumps to the given position in seconds.
func (d *BeepDevice) Seek(seconds float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.streamer == nil {
		return nil
	}
	speaker.Lock()
	defer speaker.Unlock()
	return d.streamer.Seek(d.format.SampleRate.N(secondsToDuration(seconds)))
}

// Position returns the playback position in seconds.
func (d *BeepDevice) Position() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := d.streamer.Position()
	speaker.Unlock()
	return d.format.SampleRate.D(pos).Seconds()
}

// Duration returns the total length of the loaded source in seconds, zero
// while nothing is loaded.
func (d *BeepDevice) Duration() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.streamer == nil {
		return 0
	}
	return d.format.SampleRate.D(d.streamer.Len()).Seconds()
}

// SetVolume maps the linear 0..1 level onto the exponential volume effect.
func (d *BeepDevice) SetVolume(v float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.level = v
	d.applyVolumeLocked()
}

func (d *BeepDevice) applyVolumeLocked() {
	if d.volume == nil {
		return
	}
	speaker.Lock()
	if d.level <= 0 {
		d.volume.Silent = true
	} else {
		d.volume.Silent = false
		d.volume.Volume = math.Log2(d.level)
	}
	speaker.Unlock()
}

// Source returns the currently loaded (or loading) source URL.
func (d *BeepDevice) Source() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.src
}

// Close stops playback and the position ticker.
func (d *BeepDevice) Close() error {
	d.Stop()
	close(d.closed)
	return nil
}

// tick emits periodic position events while a source is loaded.
func (d *BeepDevice) tick() {
	ticker := time.NewTicker(timeUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.closed:
			return
		case <-ticker.C:
			d.mu.Lock()
			active := d.streamer != nil
			d.mu.Unlock()
			if active {
				d.emit(domain.DeviceTimeUpdate)
			}
		}
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// nopCloser keeps the reader seekable, which mp3 decoding relies on.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
