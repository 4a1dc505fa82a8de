package intel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sudorandom/telescope/pkg/mapengine"
	"golang.org/x/text/encoding/unicode"
)

// Publisher receives the commands produced by the tailer.
type Publisher interface {
	Publish(cmd mapengine.Command) int
}

// Report is one intel line that named at least one system.
type Report struct {
	Channel string
	Line    Line
	Systems []int64
}

// Tailer polls a chat log directory and follows every file belonging to one
// of the configured channels. Log files are named
// "<channel>_<yyyymmdd>_<hhmmss>[_<character id>].txt".
type Tailer struct {
	Dir      string
	Channels []string
	Interval time.Duration
	Matcher  *Matcher
	Out      Publisher

	offsets map[string]int64
	primed  bool
	now     func() time.Time
}

func NewTailer(dir string, channels []string, m *Matcher, out Publisher) *Tailer {
	return &Tailer{
		Dir:      dir,
		Channels: channels,
		Interval: time.Second,
		Matcher:  m,
		Out:      out,
		offsets:  make(map[string]int64),
		now:      time.Now,
	}
}

// Run polls until ctx is done. Files present on the first poll are followed
// from their current end; files created later are read from the start.
func (t *Tailer) Run(ctx context.Context) error {
	if len(t.Channels) == 0 {
		log.Printf("[INTEL] No channels configured, not watching %s", t.Dir)
		<-ctx.Done()
		return nil
	}
	log.Printf("[INTEL] Watching %s for %s", t.Dir, strings.Join(t.Channels, ", "))
	interval := t.Interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := t.Poll(); err != nil {
			log.Printf("[INTEL] Poll error: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll reads whatever was appended since the last poll, publishes a Notify
// for each system found and returns the reports.
func (t *Tailer) Poll() ([]Report, error) {
	if t.offsets == nil {
		t.offsets = make(map[string]int64)
	}
	if t.now == nil {
		t.now = time.Now
	}
	files, err := t.channelFiles()
	if err != nil {
		return nil, err
	}

	var reports []Report
	for _, f := range files {
		info, err := os.Stat(f.path)
		if err != nil {
			continue
		}
		off, known := t.offsets[f.path]
		if !known && !t.primed {
			t.offsets[f.path] = info.Size()
			continue
		}
		if info.Size() < off {
			// truncated or replaced
			off = 0
		}
		if info.Size() == off {
			continue
		}
		lines, next, err := readLines(f.path, off)
		if err != nil {
			log.Printf("[INTEL] Error reading %s: %v", f.path, err)
			continue
		}
		t.offsets[f.path] = next
		for _, s := range lines {
			l, ok := ParseLine(s)
			if !ok {
				continue
			}
			ids := t.Matcher.Find(l.Text)
			if len(ids) == 0 {
				continue
			}
			reports = append(reports, Report{Channel: f.channel, Line: l, Systems: ids})
			at := t.now()
			for _, id := range ids {
				if t.Out != nil {
					t.Out.Publish(mapengine.Notify{PointID: id, At: at})
				}
			}
		}
	}
	t.primed = true
	return reports, nil
}

type channelFile struct {
	path    string
	channel string
}

func (t *Tailer) channelFiles() ([]channelFile, error) {
	entries, err := os.ReadDir(t.Dir)
	if err != nil {
		return nil, fmt.Errorf("listing chat logs: %w", err)
	}
	var out []channelFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if !ok {
			continue
		}
		for _, ch := range t.Channels {
			if prefix == ch {
				out = append(out, channelFile{path: filepath.Join(t.Dir, e.Name()), channel: ch})
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out, nil
}

var utf16BOM = []byte{0xFF, 0xFE}

// readLines reads complete lines starting at off and returns the offset
// just past the last complete one. The client writes UTF-16LE with a BOM;
// plain UTF-8 files are accepted too.
func readLines(path string, off int64) ([]string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, off, err
	}
	defer f.Close()

	head := make([]byte, 2)
	n, _ := f.ReadAt(head, 0)
	wide := n == 2 && bytes.Equal(head, utf16BOM)
	if wide && off%2 == 1 {
		off--
	}

	if _, err := f.Seek(off, io.SeekStart); err != nil {
		return nil, off, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, off, err
	}

	end := lastNewline(data, wide)
	if end < 0 {
		return nil, off, nil
	}
	chunk := data[:end]
	if wide {
		if chunk, err = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(chunk); err != nil {
			return nil, off, fmt.Errorf("decoding %s: %w", path, err)
		}
	}
	chunk = bytes.TrimPrefix(chunk, []byte("\xef\xbb\xbf"))

	var lines []string
	for _, l := range strings.Split(string(chunk), "\n") {
		l = strings.TrimRight(l, "\r")
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines, off + int64(end), nil
}

// lastNewline returns the length of data up to and including the last
// newline, or -1 when there is none.
func lastNewline(data []byte, wide bool) int {
	if !wide {
		i := bytes.LastIndexByte(data, '\n')
		if i < 0 {
			return -1
		}
		return i + 1
	}
	for i := len(data) - 2; i >= 0; i-- {
		if i%2 == 0 && data[i] == '\n' && data[i+1] == 0 {
			return i + 2
		}
	}
	return -1
}
