package subtitles

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// FormatTimestamp renders d as HH:MM:SS,mmm. Negative values clamp to zero.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	seconds := ms / 1000
	ms -= seconds * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}

// ParseTimestamp parses HH:MM:SS,mmm. A period is accepted in place of the comma.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	clock, millisText, ok := strings.Cut(value, ",")
	if !ok {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(millisText)
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 || millis < 0 || millis > 999 {
		return 0, fmt.Errorf("timestamp out of range %q", value)
	}
	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
	return total, nil
}

// ReadLines parses an SRT file back into cues.
func ReadLines(path string) ([]Line, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	defer file.Close()

	const (
		expectSequence = iota
		expectTiming
		expectText
	)
	var (
		lines   []Line
		current Line
		state   = expectSequence
		lineNo  int
	)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNo++
		text := strings.TrimRight(scanner.Text(), "\r")
		switch state {
		case expectSequence:
			if strings.TrimSpace(text) == "" {
				continue
			}
			seq, err := strconv.Atoi(strings.TrimSpace(text))
			if err != nil {
				return nil, fmt.Errorf("srt line %d: invalid sequence %q", lineNo, text)
			}
			current = Line{Sequence: seq}
			state = expectTiming
		case expectTiming:
			startText, endText, ok := strings.Cut(text, "-->")
			if !ok {
				return nil, fmt.Errorf("srt line %d: missing timing arrow", lineNo)
			}
			start, err := ParseTimestamp(startText)
			if err != nil {
				return nil, fmt.Errorf("srt line %d: %w", lineNo, err)
			}
			end, err := ParseTimestamp(endText)
			if err != nil {
				return nil, fmt.Errorf("srt line %d: %w", lineNo, err)
			}
			current.Start, current.End = start, end
			state = expectText
		case expectText:
			if text == "" {
				lines = append(lines, current)
				state = expectSequence
				continue
			}
			if current.Text != "" {
				current.Text += "\n"
			}
			current.Text += text
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	switch state {
	case expectTiming:
		return nil, fmt.Errorf("srt: cue %d has no timing", current.Sequence)
	case expectText:
		lines = append(lines, current)
	}
	return lines, nil
}

// CountCues returns the number of cues in an SRT file.
func CountCues(path string) (int, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}

// Validate reports structural problems: non-contiguous sequence numbers,
// cues ending before they start, start times that go backwards, and empty text.
func Validate(lines []Line) []string {
	var issues []string
	var prevStart time.Duration
	for i, line := range lines {
		if line.Sequence != i+1 {
			issues = append(issues, fmt.Sprintf("cue %d: sequence %d, want %d", i+1, line.Sequence, i+1))
		}
		if line.End < line.Start {
			issues = append(issues, fmt.Sprintf("cue %d: ends before it starts", line.Sequence))
		}
		if i > 0 && line.Start < prevStart {
			issues = append(issues, fmt.Sprintf("cue %d: starts before the previous cue", line.Sequence))
		}
		if strings.TrimSpace(line.Text) == "" {
			issues = append(issues, fmt.Sprintf("cue %d: empty text", line.Sequence))
		}
		prevStart = line.Start
	}
	return issues
}
