package tutor

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Voice speaks coaching lines aloud. It is best-effort: errors are logged
// and never interrupt a turn.
type Voice interface {
	Say(ctx context.Context, text string) error
}

// CommandVoice speaks through an external program such as "say" or
// "espeak", passing the text as the last argument.
type CommandVoice struct {
	Command string
	Args    []string
}

// NewCommandVoice parses a command line like "espeak -s 140".
func NewCommandVoice(cmdline string) *CommandVoice {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil
	}
	return &CommandVoice{Command: fields[0], Args: fields[1:]}
}

func (v *CommandVoice) Say(ctx context.Context, text string) error {
	args := append(append([]string{}, v.Args...), text)
	return exec.CommandContext(ctx, v.Command, args...).Run()
}

const utteranceTimeout = 30 * time.Second

// speaker plays lines one at a time on a single worker. A new line
// interrupts the one being spoken and replaces any line still waiting.
type speaker struct {
	voice Voice
	log   logrus.FieldLogger

	lines chan utterance
	done  chan struct{}

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

type utterance struct {
	seq  uint64
	text string
}

func newSpeaker(v Voice, log logrus.FieldLogger) *speaker {
	sp := &speaker{
		voice: v,
		log:   log,
		lines: make(chan utterance, 1),
		done:  make(chan struct{}),
	}
	go sp.run()
	return sp
}

func (sp *speaker) say(text string) {
	sp.mu.Lock()
	sp.seq++
	u := utterance{seq: sp.seq, text: text}
	if sp.cancel != nil {
		sp.cancel()
	}
	sp.mu.Unlock()

	select {
	case <-sp.lines:
	default:
	}
	sp.lines <- u
}

func (sp *speaker) run() {
	defer close(sp.done)
	for u := range sp.lines {
		ctx, cancel := context.WithTimeout(context.Background(), utteranceTimeout)
		sp.mu.Lock()
		if u.seq != sp.seq {
			// Superseded while queued.
			sp.mu.Unlock()
			cancel()
			continue
		}
		sp.cancel = cancel
		sp.mu.Unlock()

		err := sp.voice.Say(ctx, u.text)
		cancel()
		if err != nil && !errors.Is(ctx.Err(), context.Canceled) {
			sp.log.WithError(err).Debug("voice output failed")
		}
	}
}

// close interrupts the current line and waits for the worker to exit.
func (sp *speaker) close() {
	sp.mu.Lock()
	sp.seq++
	if sp.cancel != nil {
		sp.cancel()
	}
	sp.mu.Unlock()
	close(sp.lines)
	<-sp.done
}
