package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"wrtbot/internal/cmdexec"
	"wrtbot/internal/metrics"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
	nextID   int
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return tgbotapi.Message{}, b.sendErr
	}
	b.sent = append(b.sent, c)
	b.nextID++
	return tgbotapi.Message{MessageID: b.nextID, Chat: &tgbotapi.Chat{ID: 1}}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) sentCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent)
}

// sentTexts extracts the text of every sent message and edit, in order.
func (b *fakeBot) sentTexts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var texts []string
	for _, c := range b.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			texts = append(texts, m.Text)
		case tgbotapi.EditMessageTextConfig:
			texts = append(texts, m.Text)
		}
	}
	return texts
}

func (b *fakeBot) setSendErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sendErr = err
}

// fakeRunner satisfies cmdexec.Runner with canned output, keyed by the
// full command line with a fallback on the bare command name.
type fakeRunner struct {
	mu     sync.Mutex
	output map[string]string
	calls  []string
}

func (r *fakeRunner) lookup(name string, args []string) string {
	full := strings.Join(append([]string{name}, args...), " ")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, full)
	if out, ok := r.output[full]; ok {
		return out
	}
	return r.output[name]
}

func (r *fakeRunner) calledWith(prefix string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, call := range r.calls {
		if strings.HasPrefix(call, prefix) {
			return true
		}
	}
	return false
}

func (r *fakeRunner) Exists(name string) bool { return true }

func (r *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	return []byte(r.lookup(name, args)), nil
}

func (r *fakeRunner) CombinedOutput(_ context.Context, name string, args ...string) ([]byte, error) {
	return []byte(r.lookup(name, args)), nil
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	r.lookup(name, args)
	return nil
}

func useFakeRunner(t *testing.T, output map[string]string) *fakeRunner {
	t.Helper()
	r := &fakeRunner{output: output}
	restore := cmdexec.SetRunner(r)
	t.Cleanup(restore)
	return r
}

func writeFileOrFail(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestAppContext(t *testing.T) *AppContext {
	t.Helper()
	dir := t.TempDir()

	cfg := &Config{}
	cfg.AdminID = 1
	cfg.Timezone = "UTC"
	applyConfigDefaults(cfg)
	cfg.Files.KnownDevices = filepath.Join(dir, "known_devices.json")
	cfg.Files.Aliases = filepath.Join(dir, "device_aliases.json")
	cfg.Files.DHCPLeases = filepath.Join(dir, "dhcp.leases")
	cfg.Files.UsageDB = filepath.Join(dir, "usage.db")

	ctx := newAppContext(cfg)
	ctx.Snapshot = func(ifaces []string) metrics.Snapshot {
		s := metrics.Snapshot{Time: time.Now(), Ifaces: make(map[string]metrics.IfaceCounters)}
		for _, name := range ifaces {
			s.Ifaces[name] = metrics.IfaceCounters{}
		}
		return s
	}
	return ctx
}
