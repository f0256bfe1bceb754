package tutor

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingVoice blocks on "hold" lines until interrupted and tracks how
// many lines are spoken at once.
type recordingVoice struct {
	mu      sync.Mutex
	active  int
	peak    int
	spoken  []string
	aborted []string
	started chan string
}

func newRecordingVoice() *recordingVoice {
	return &recordingVoice{started: make(chan string, 8)}
}

func (v *recordingVoice) Say(ctx context.Context, text string) error {
	v.mu.Lock()
	v.active++
	if v.active > v.peak {
		v.peak = v.active
	}
	v.mu.Unlock()
	v.started <- text

	var err error
	if text == "hold" {
		<-ctx.Done()
		err = ctx.Err()
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.active--
	if err != nil {
		v.aborted = append(v.aborted, text)
	} else {
		v.spoken = append(v.spoken, text)
	}
	return err
}

func TestNewCommandVoice(t *testing.T) {
	assert.Nil(t, NewCommandVoice("   "))

	v := NewCommandVoice("espeak -s 140")
	require.NotNil(t, v)
	assert.Equal(t, "espeak", v.Command)
	assert.Equal(t, []string{"-s", "140"}, v.Args)
}

func TestCommandVoicePassesTextLast(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("no shell available")
	}
	out := filepath.Join(t.TempDir(), "spoken.txt")
	v := &CommandVoice{Command: sh, Args: []string{"-c", `printf %s "$0" > "` + out + `"`}}

	require.NoError(t, v.Say(context.Background(), "Great job!"))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Great job!", string(b))
}

func TestCommandVoiceMissingProgram(t *testing.T) {
	v := NewCommandVoice("definitely-not-a-speech-program")
	assert.Error(t, v.Say(context.Background(), "hi"))
}

func TestSpeakerInterruptsPreviousLine(t *testing.T) {
	log, _ := test.NewNullLogger()
	voice := newRecordingVoice()
	sp := newSpeaker(voice, log)

	sp.say("hold")
	assert.Equal(t, "hold", <-voice.started)

	sp.say("What is 5 + 2?")
	select {
	case got := <-voice.started:
		assert.Equal(t, "What is 5 + 2?", got)
	case <-time.After(2 * time.Second):
		t.Fatal("second line was never spoken")
	}
	sp.close()

	voice.mu.Lock()
	defer voice.mu.Unlock()
	assert.Equal(t, 1, voice.peak)
	assert.Equal(t, []string{"hold"}, voice.aborted)
	assert.Equal(t, []string{"What is 5 + 2?"}, voice.spoken)
}

func TestServiceCloseStopsVoice(t *testing.T) {
	svc, _, _ := newTestService(t, failingKV{})
	voice := newRecordingVoice()
	svc.SetVoice(voice)

	svc.say("hold")
	assert.Equal(t, "hold", <-voice.started)
	svc.Close()

	voice.mu.Lock()
	defer voice.mu.Unlock()
	assert.Equal(t, []string{"hold"}, voice.aborted)
	assert.Nil(t, svc.voice)
}
