package mailbox

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alertas-dev/alertas/internal/model"
)

// FixtureMessage is one message in a YAML mailbox dump.
type FixtureMessage struct {
	ID      string    `yaml:"id,omitempty"`
	From    string    `yaml:"from"`
	Snippet string    `yaml:"snippet,omitempty"`
	Plain   string    `yaml:"plain,omitempty"`
	HTML    string    `yaml:"html,omitempty"`
	Date    string    `yaml:"date,omitempty"`      // combined "date time" text
	Time    time.Time `yaml:"timestamp,omitempty"` // structured instant, wins over Date
}

// fixtureFile is the top-level YAML document.
type fixtureFile struct {
	Messages []FixtureMessage `yaml:"messages"`
}

// FileSource serves messages from a YAML dump instead of a live mailbox.
type FileSource struct {
	messages []FixtureMessage
}

// NewFileSource creates a source over messages.
func NewFileSource(messages []FixtureMessage) *FileSource {
	return &FileSource{messages: messages}
}

// LoadFile reads a YAML mailbox dump.
func LoadFile(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}
	var doc fixtureFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing fixtures %s: %w", path, err)
	}
	return NewFileSource(doc.Messages), nil
}

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context, q Query) ([]model.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []model.RawMessage
	for i, m := range s.messages {
		if !matchesSender(m.From, q.Sender) {
			continue
		}
		msg := m.raw(i)
		if !onOrAfter(msg.Timestamp, q.Since) {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (m FixtureMessage) raw(i int) model.RawMessage {
	id := m.ID
	if id == "" {
		id = fmt.Sprintf("fixture-%d", i+1)
	}
	ts := model.RawTimestamp(m.Date)
	if !m.Time.IsZero() {
		ts = model.At(m.Time)
	}
	return model.RawMessage{
		ID:        id,
		Snippet:   m.Snippet,
		Plain:     m.Plain,
		HTML:      m.HTML,
		Timestamp: ts,
	}
}
