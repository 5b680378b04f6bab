package main

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/deskbot/internal/chat"
	"github.com/xaenox/deskbot/internal/classifier"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "REDIS_URL", "DATABASE_DRIVER", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_LEVEL", "error")
}

// ===== classify =====

func TestClassifyCommand(t *testing.T) {
	isolateEnv(t)

	out, err := run(t, "", "classify", "What's", "on", "my", "calendar", "today?")
	require.NoError(t, err)

	assert.Contains(t, out, `"intent": "view_calendar"`)
	assert.Contains(t, out, `"confidence": 0.9`)
	assert.Contains(t, out, `"originalText": "What's on my calendar today?"`)
	assert.Contains(t, out, `"type": "date"`)
}

func TestClassifyCommandRequiresText(t *testing.T) {
	isolateEnv(t)

	_, err := run(t, "", "classify")
	assert.Error(t, err)
}

// ===== chat =====

func TestChatCommand(t *testing.T) {
	isolateEnv(t)

	out, err := run(t, "help\n\n/reset\n/exit\n", "chat")
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, chat.WelcomeMessage))
	assert.Contains(t, out, classifier.HelpText())
	assert.Equal(t, 4, strings.Count(out, "> "))
}

func TestChatCommandEndsOnEOF(t *testing.T) {
	isolateEnv(t)

	out, err := run(t, "gibberish words", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, `"gibberish words"`)
}

func TestChatCommandAcceptsLongLines(t *testing.T) {
	isolateEnv(t)

	long := strings.Repeat("word ", 40*1024)
	out, err := run(t, long+"\n/exit\n", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "I'm not sure how to help with")
}

// ===== reminders =====

func TestRemindersCommands(t *testing.T) {
	isolateEnv(t)
	mr := miniredis.RunT(t)
	t.Setenv("DATABASE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", mr.Addr())

	out, err := run(t, "", "--user", "42", "reminders", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No reminders.")

	out, err = run(t, "", "--user", "42", "reminders", "add", "remind me to call John tomorrow at 3pm, urgent priority")
	require.NoError(t, err)
	assert.Contains(t, out, ": call John (due ")
	assert.Contains(t, out, "urgent)")

	id := regexp.MustCompile(`Created ([0-9a-f-]+):`).FindStringSubmatch(out)
	require.Len(t, id, 2)

	out, err = run(t, "", "--user", "42", "reminders", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "call John")
	assert.Contains(t, out, "pending")

	out, err = run(t, "", "--user", "7", "reminders", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No reminders.")

	out, err = run(t, "", "--user", "42", "reminders", "done", id[1][:8])
	require.NoError(t, err)
	assert.Contains(t, out, "Done: call John")

	out, err = run(t, "", "--user", "42", "reminders", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No reminders.")

	out, err = run(t, "", "--user", "42", "reminders", "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "done")
}

func TestRemindersAddWithoutDue(t *testing.T) {
	isolateEnv(t)

	_, err := run(t, "", "reminders", "add", "remind me to call John")
	assert.Error(t, err)
}
