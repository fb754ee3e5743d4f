package ffdiag

import (
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"strings"
)

// Ratio is an integer aspect ratio such as 16:9.
type Ratio struct {
	Num int `json:"num"`
	Den int `json:"den"`
}

func (r Ratio) String() string {
	return fmt.Sprintf("%d:%d", r.Num, r.Den)
}

// MediaInfo summarizes the program selected from an ffmpeg input preamble.
type MediaInfo struct {
	Duration    float64 `json:"duration"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	FPS         float64 `json:"fps"`
	SAR         Ratio   `json:"sar"`
	DAR         Ratio   `json:"dar"`
	SoundTracks int     `json:"sound_tracks"`
}

// HasVideo reports whether frame dimensions were observed.
func (m MediaInfo) HasVideo() bool {
	return m.Width > 0 && m.Height > 0
}

// Program accumulates the streams announced under one "Program" header.
type Program struct {
	ID          string
	Width       int
	Height      int
	FPS         float64
	SAR         Ratio
	DAR         Ratio
	SoundTracks int
}

const (
	markerProgram   = "Program "
	markerNoProgram = "No Program"
	markerDuration  = "Duration:"
	markerStream    = "Stream #"
	markerVideo     = "Video:"
	markerAudio     = "Audio:"
	markerRate      = "Hz,"
	markerPress     = "Press [q] to stop"
	markerTime      = " time="
	markerMapping   = "Stream mapping:"
	markerOutput    = "Output #"
)

var sizePattern = regexp.MustCompile(`\d+x\d+`)

// InfoParser incrementally builds a MediaInfo from ffmpeg's input preamble.
// It is not safe for concurrent use.
type InfoParser struct {
	duration float64
	programs map[string]*Program
	order    []string
	current  string
	done     bool
}

// NewInfoParser returns an empty parser.
func NewInfoParser() *InfoParser {
	return &InfoParser{programs: make(map[string]*Program)}
}

// Feed consumes one diagnostic line. It reports done once the preamble has
// ended; later lines are ignored. A non-nil error means a load-bearing token
// on this line could not be interpreted.
func (p *InfoParser) Feed(line string) (bool, error) {
	if p.done {
		return true, nil
	}
	trimmed := strings.TrimSpace(line)
	var err error
	switch {
	case strings.HasPrefix(trimmed, markerProgram), strings.HasPrefix(trimmed, markerNoProgram):
		p.startProgram(line)
	case strings.HasPrefix(trimmed, markerDuration):
		err = p.parseDuration(trimmed)
	}
	if err == nil && strings.Contains(line, markerStream) {
		switch {
		case strings.Contains(line, markerVideo):
			err = p.parseVideo(line)
		case strings.Contains(line, markerAudio) && strings.Contains(line, markerRate):
			p.program().SoundTracks++
		}
	}
	if strings.Contains(line, markerPress) || strings.Contains(line, markerTime) ||
		strings.HasPrefix(trimmed, markerMapping) || strings.HasPrefix(trimmed, markerOutput) {
		p.done = true
	}
	return p.done, err
}

// Duration returns the probe-global duration observed so far.
func (p *InfoParser) Duration() float64 {
	return p.duration
}

// Programs returns the programs in the order they were announced.
func (p *InfoParser) Programs() []Program {
	out := make([]Program, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, *p.programs[id])
	}
	return out
}

// Result selects the first program carrying at least one audio track. ok is
// false when no program qualifies.
func (p *InfoParser) Result() (MediaInfo, bool) {
	for _, id := range p.order {
		prog := p.programs[id]
		if prog.SoundTracks == 0 {
			continue
		}
		return MediaInfo{
			Duration:    p.duration,
			Width:       prog.Width,
			Height:      prog.Height,
			FPS:         prog.FPS,
			SAR:         prog.SAR,
			DAR:         prog.DAR,
			SoundTracks: prog.SoundTracks,
		}, true
	}
	return MediaInfo{}, false
}

// ParseInfo runs a fresh parser over lines and returns its result. Parse
// errors stop consumption immediately.
func ParseInfo(lines iter.Seq[string]) (MediaInfo, bool, error) {
	parser := NewInfoParser()
	for line := range lines {
		done, err := parser.Feed(line)
		if err != nil {
			return MediaInfo{}, false, err
		}
		if done {
			break
		}
	}
	info, ok := parser.Result()
	return info, ok, nil
}

func (p *InfoParser) startProgram(line string) {
	id := strings.TrimRight(line, " \t")
	if _, exists := p.programs[id]; !exists {
		p.programs[id] = &Program{ID: id}
		p.order = append(p.order, id)
	}
	p.current = id
}

// program returns the program stream lines are attributed to. Inputs without
// program headers get an implicit one.
func (p *InfoParser) program() *Program {
	if prog, ok := p.programs[p.current]; ok {
		return prog
	}
	p.programs[p.current] = &Program{ID: p.current}
	p.order = append(p.order, p.current)
	return p.programs[p.current]
}

func (p *InfoParser) parseDuration(trimmed string) error {
	value := strings.TrimPrefix(trimmed, markerDuration)
	value, _, _ = strings.Cut(value, ",")
	value = strings.TrimSpace(value)
	if value == "N/A" {
		return nil
	}
	seconds, err := ParseTimestamp(value)
	if err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	p.duration = seconds
	return nil
}

func (p *InfoParser) parseVideo(line string) error {
	prog := p.program()
	for _, token := range sizePattern.FindAllString(line, -1) {
		w, h, _ := strings.Cut(token, "x")
		width, err := strconv.Atoi(w)
		if err != nil {
			return fmt.Errorf("%w: video width %q", errMalformed, token)
		}
		if width == 0 {
			continue
		}
		height, err := strconv.Atoi(h)
		if err != nil {
			return fmt.Errorf("%w: video height %q", errMalformed, token)
		}
		if height == 0 {
			continue
		}
		prog.Width, prog.Height = width, height
		break
	}
	for _, item := range strings.Split(line, ",") {
		if !strings.Contains(item, " fps") {
			continue
		}
		value := strings.TrimSpace(strings.Replace(item, " fps", "", 1))
		fps, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: frame rate %q", errMalformed, strings.TrimSpace(item))
		}
		prog.FPS = fps
		break
	}
	if sar, ok, err := ratioAfter(line, "SAR "); err != nil {
		return err
	} else if ok {
		prog.SAR = sar
	}
	if dar, ok, err := ratioAfter(line, "DAR "); err != nil {
		return err
	} else if ok {
		prog.DAR = dar
	}
	return nil
}

// ratioAfter reads the "a:b" token following marker. The display ratio is
// closed by "]" in ffmpeg's output, so the token also ends there.
func ratioAfter(line, marker string) (Ratio, bool, error) {
	_, rest, found := strings.Cut(line, marker)
	if !found {
		return Ratio{}, false, nil
	}
	token, _, _ := strings.Cut(rest, " ")
	token, _, _ = strings.Cut(token, "]")
	token = strings.TrimRight(token, ",")
	num, den, found := strings.Cut(token, ":")
	if !found {
		return Ratio{}, false, fmt.Errorf("%w: %sratio %q", errMalformed, marker, token)
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return Ratio{}, false, fmt.Errorf("%w: %sratio %q", errMalformed, marker, token)
	}
	d, err := strconv.Atoi(den)
	if err != nil {
		return Ratio{}, false, fmt.Errorf("%w: %sratio %q", errMalformed, marker, token)
	}
	return Ratio{Num: n, Den: d}, true, nil
}
