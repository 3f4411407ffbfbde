package audio

import (
	"log"
	"math"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 44100
	BufferSize = 512

	// MaxVoices caps simultaneous plinks; the quietest voice is replaced.
	MaxVoices = 16
	// MinImpactSpeed is the closing speed below which impacts are silent.
	MinImpactSpeed = 40.0
	loudSpeed      = 600.0
	voiceDecay     = 18.0 // per second
)

type voice struct {
	freq  float64
	amp   float64
	phase float64
	pan   float64 // 0 left, 1 right
}

// Processor synthesises a short plink for every audible impact.
type Processor struct {
	Stream *portaudio.Stream

	mu     sync.Mutex
	voices []voice
	// arena width for stereo panning
	width float64

	filterState [2]float64
	delayLine   [2][]float64
	delayHead   int

	Active bool
	logger *log.Logger
}

func NewProcessor(arenaWidth float64, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.Default()
	}
	delayLen := int(float64(SampleRate) * 0.12)
	return &Processor{
		voices:    make([]voice, 0, MaxVoices),
		width:     arenaWidth,
		delayLine: [2][]float64{make([]float64, delayLen), make([]float64, delayLen)},
		logger:    logger,
	}
}

func (a *Processor) Start() error {
	if err := portaudio.Initialize(); err != nil {
		a.logger.Printf("[audio] init failed: %v", err)
		return err
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, SampleRate, BufferSize, a.ProcessAudio)
	if err != nil {
		a.logger.Printf("[audio] open stream failed: %v", err)
		portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		a.logger.Printf("[audio] start stream failed: %v", err)
		stream.Close()
		portaudio.Terminate()
		return err
	}
	a.logger.Printf("[audio] started, %d Hz output", SampleRate)
	a.Stream = stream
	a.Active = true
	return nil
}

func (a *Processor) Stop() {
	if !a.Active {
		return
	}
	a.Stream.Stop()
	a.Stream.Close()
	portaudio.Terminate()
	a.Active = false
}

// Pitch maps a body radius to a plink frequency: small bodies ring high.
func Pitch(radius float64) float64 {
	return 220 + 1760/(1+radius/8)
}

// Impact queues a plink for a collision at point x between bodies of the
// given radius. It is safe to call from the simulation goroutine.
func (a *Processor) Impact(speed, radius, x float64) bool {
	if speed < MinImpactSpeed || math.IsNaN(speed) {
		return false
	}
	v := voice{
		freq: Pitch(radius),
		amp:  math.Min(speed/loudSpeed, 1) * 0.5,
		pan:  0.5,
	}
	if a.width > 0 {
		v.pan = math.Max(0, math.Min(x/a.width, 1))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.voices) < MaxVoices {
		a.voices = append(a.voices, v)
		return true
	}
	quietest := 0
	for i := range a.voices {
		if a.voices[i].amp < a.voices[quietest].amp {
			quietest = i
		}
	}
	if a.voices[quietest].amp > v.amp {
		return false
	}
	a.voices[quietest] = v
	return true
}

// Voices reports the number of sounding voices.
func (a *Processor) Voices() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.voices)
}

// Triangle Wave: smooth, no harsh buzz
func triangle(phase float64) float64 {
	p := phase - math.Floor(phase)
	return 4.0*math.Abs(p-0.5) - 1.0
}

// one-pole low pass
func lpf(sample, cutoff, dt, state float64) float64 {
	rc := 1.0 / (2.0 * math.Pi * cutoff)
	alpha := dt / (rc + dt)
	return state + alpha*(sample-state)
}

// ProcessAudio fills a stereo output buffer. It is the portaudio callback.
func (a *Processor) ProcessAudio(out [][]float32) {
	const dt = 1.0 / SampleRate
	decay := math.Exp(-voiceDecay * dt)

	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range out[0] {
		var l, r float64
		for j := range a.voices {
			v := &a.voices[j]
			s := v.amp * (0.7*math.Sin(2*math.Pi*v.phase) + 0.3*triangle(v.phase))
			l += s * (1 - v.pan)
			r += s * v.pan
			v.phase += v.freq * dt
			v.amp *= decay
		}

		a.filterState[0] = lpf(l, 4000, dt, a.filterState[0])
		a.filterState[1] = lpf(r, 4000, dt, a.filterState[1])

		dl, dr := a.delayLine[0][a.delayHead], a.delayLine[1][a.delayHead]
		mixL := a.filterState[0] + dl*0.25
		mixR := a.filterState[1] + dr*0.25
		a.delayLine[0][a.delayHead] = mixL * 0.4
		a.delayLine[1][a.delayHead] = mixR * 0.4
		a.delayHead = (a.delayHead + 1) % len(a.delayLine[0])

		out[0][i] = float32(math.Max(-1, math.Min(mixL, 1)))
		out[1][i] = float32(math.Max(-1, math.Min(mixR, 1)))
	}

	live := a.voices[:0]
	for _, v := range a.voices {
		if v.amp > 1e-3 {
			live = append(live, v)
		}
	}
	a.voices = live
}
