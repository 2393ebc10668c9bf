package livesession

import "sync"

type playbackState int

const (
	playbackIdle playbackState = iota
	playbackCollecting
	playbackStreaming
)

// playbackScheduler applies the initial-burst buffering policy to decoded
// assistant audio: the first chunks of a turn are collected until a
// threshold is met and then scheduled as one unit, after which every chunk
// is scheduled immediately in arrival order. The collection absorbs jitter
// in the first burst without adding latency to the rest of the turn.
type playbackScheduler struct {
	mu sync.Mutex

	state     playbackState
	threshold int
	pending   [][]byte

	schedule func(audio []byte)
	clear    func()
}

func newPlaybackScheduler(threshold int, schedule func(audio []byte), clear func()) *playbackScheduler {
	if threshold < 1 {
		threshold = 1
	}
	if schedule == nil {
		schedule = func([]byte) {}
	}
	if clear == nil {
		clear = func() {}
	}

	return &playbackScheduler{
		threshold: threshold,
		schedule:  schedule,
		clear:     clear,
	}
}

func (p *playbackScheduler) Push(chunk []byte) {
	p.mu.Lock()

	switch p.state {
	case playbackIdle:
		p.state = playbackCollecting
		fallthrough
	case playbackCollecting:
		p.pending = append(p.pending, chunk)
		if len(p.pending) < p.threshold {
			p.mu.Unlock()
			return
		}

		burst := concatChunks(p.pending)
		p.pending = nil
		p.state = playbackStreaming
		p.mu.Unlock()
		p.schedule(burst)

	case playbackStreaming:
		p.mu.Unlock()
		p.schedule(chunk)
	}
}

// Flush schedules any audio still held below the threshold and returns to
// idle. Called on the turn's audio completion signal, which can arrive
// before the threshold was ever met.
func (p *playbackScheduler) Flush() {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.state = playbackIdle
	p.mu.Unlock()

	if len(pending) > 0 {
		p.schedule(concatChunks(pending))
	}
}

// Reset discards all unscheduled audio without scheduling it and clears the
// output sink so queued-but-unplayed audio is dropped too. Called on
// barge-in and on teardown.
func (p *playbackScheduler) Reset() {
	p.mu.Lock()
	p.pending = nil
	p.state = playbackIdle
	p.mu.Unlock()

	p.clear()
}

func concatChunks(chunks [][]byte) []byte {
	totalLength := 0
	for _, chunk := range chunks {
		totalLength += len(chunk)
	}

	burst := make([]byte, 0, totalLength)
	for _, chunk := range chunks {
		burst = append(burst, chunk...)
	}
	return burst
}
