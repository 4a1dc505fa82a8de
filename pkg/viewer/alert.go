package viewer

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dhowden/tag"
	"github.com/dustin/go-humanize"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/go-mp3"
)

// Alert is a short sound played when intel names a system. It is decoded
// once at load and replayed from memory.
type Alert struct {
	Title  string
	MinGap time.Duration

	ctx  *audio.Context
	pcm  []byte
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// LoadAlert decodes an MP3 file into memory.
func LoadAlert(path string) (*Alert, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening alert sound: %w", err)
	}
	defer f.Close()

	var title, artist string
	if m, err := tag.ReadFrom(f); err == nil {
		title, artist = m.Title(), m.Artist()
	}
	name := describeTrack(path, title, artist)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	pcm, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(d.SampleRate())
	}
	duration := time.Duration(len(pcm)) * time.Second / time.Duration(d.SampleRate()*4)
	log.Printf("[ALERT] Loaded %s (%v, %s)", name, duration.Round(time.Millisecond), humanize.Bytes(uint64(len(pcm))))
	return &Alert{Title: name, MinGap: time.Second, ctx: ctx, pcm: pcm, now: time.Now}, nil
}

// Play starts the sound unless it was started less than MinGap ago. It is
// safe to call on a nil Alert.
func (a *Alert) Play() bool {
	if a == nil || !a.allow() {
		return false
	}
	if a.ctx == nil || len(a.pcm) == 0 {
		return true
	}
	a.ctx.NewPlayerFromBytes(a.pcm).Play()
	return true
}

func (a *Alert) allow() bool {
	now := time.Now()
	if a.now != nil {
		now = a.now()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.last.IsZero() && now.Sub(a.last) < a.MinGap {
		return false
	}
	a.last = now
	return true
}

// describeTrack names a sound from its tags, falling back to an
// "Artist - Title" file name.
func describeTrack(path, title, artist string) string {
	if title == "" {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		title = base
		if parts := strings.SplitN(base, " - ", 2); len(parts) == 2 {
			artist, title = parts[0], parts[1]
		}
	}
	if artist == "" {
		return title
	}
	return title + " by " + artist
}
