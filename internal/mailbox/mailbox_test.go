package mailbox

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"

	"github.com/alertas-dev/alertas/internal/model"
)

func TestParseSince(t *testing.T) {
	got, err := ParseSince(" 2025-07-24 ")
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, time.July, got.Month())
	assert.Equal(t, 24, got.Day())
	assert.Equal(t, time.Local, got.Location())

	_, err = ParseSince("24/07/2025")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestSearchString(t *testing.T) {
	since, err := ParseSince("2025-07-24")
	require.NoError(t, err)

	q := Query{Sender: "alertas@infomistarjetas.com", Since: since}
	assert.Equal(t, "from:alertas@infomistarjetas.com after:2025/07/24", q.SearchString())
	assert.Equal(t, "from:x@y.z", Query{Sender: "x@y.z"}.SearchString())
	assert.Equal(t, "", Query{}.SearchString())
}

func TestMatchesSender(t *testing.T) {
	assert.True(t, matchesSender("Visa Alertas <ALERTAS@infomistarjetas.com>", "alertas@infomistarjetas.com"))
	assert.False(t, matchesSender("mcalertas@mcalertas.com.ar", "alertas@infomistarjetas.com"))
	assert.True(t, matchesSender("anyone@example.com", ""))
}

func TestOnOrAfter(t *testing.T) {
	since := time.Date(2025, 7, 24, 0, 0, 0, 0, time.Local)

	assert.True(t, onOrAfter(model.At(since), since))
	assert.True(t, onOrAfter(model.At(since.Add(time.Hour)), since))
	assert.False(t, onOrAfter(model.At(since.Add(-time.Minute)), since))
	assert.True(t, onOrAfter(model.RawTimestamp("sometime"), since), "unresolvable timestamps are kept")
	assert.True(t, onOrAfter(model.At(since.AddDate(-1, 0, 0)), time.Time{}))
}

const fixtureYAML = `
messages:
  - id: v1
    from: Visa <alertas@infomistarjetas.com>
    snippet: "Compra en establecimiento CAFE SUR, por $ 1.250,50"
    timestamp: 2025-07-25T14:03:09Z
  - from: mcalertas@mcalertas.com.ar
    plain: |
      Comercio: LIBRERIA
      Importe: $ 3,000.00
    date: "2025-07-26 09:15"
  - id: old
    from: alertas@infomistarjetas.com
    snippet: "Compra en establecimiento VIEJO, por $ 10"
    timestamp: 2025-07-01T10:00:00Z
`

func writeFixtures(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mailbox.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o644))
	return path
}

func TestFileSourceFiltersBySenderAndDate(t *testing.T) {
	src, err := LoadFile(writeFixtures(t))
	require.NoError(t, err)

	since := time.Date(2025, 7, 24, 0, 0, 0, 0, time.UTC)
	visa, err := src.Fetch(context.Background(), Query{Sender: "alertas@infomistarjetas.com", Since: since})
	require.NoError(t, err)
	require.Len(t, visa, 1)
	assert.Equal(t, "v1", visa[0].ID)
	assert.Contains(t, visa[0].Snippet, "CAFE SUR")

	mc, err := src.Fetch(context.Background(), Query{Sender: "mcalertas@mcalertas.com.ar", Since: since})
	require.NoError(t, err)
	require.Len(t, mc, 1)
	assert.Equal(t, "fixture-2", mc[0].ID)
	assert.Contains(t, mc[0].Plain, "Comercio: LIBRERIA")
	assert.Equal(t, "2025-07-26 09:15", mc[0].Timestamp.String())
}

func TestFileSourceCutoffInLocalZone(t *testing.T) {
	saved := time.Local
	time.Local = time.FixedZone("ART", -3*60*60)
	t.Cleanup(func() { time.Local = saved })

	src := NewFileSource([]FixtureMessage{
		{ID: "before", From: "alertas@infomistarjetas.com", Snippet: "x", Date: "2025-07-23 23:30:00"},
		{ID: "early", From: "alertas@infomistarjetas.com", Snippet: "x", Date: "2025-07-24 01:00:00"},
	})
	since, err := ParseSince("2025-07-24")
	require.NoError(t, err)

	got, err := src.Fetch(context.Background(), Query{Sender: "alertas@infomistarjetas.com", Since: since})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "early", got[0].ID)
}

func TestFileSourceWithoutCutoff(t *testing.T) {
	src, err := LoadFile(writeFixtures(t))
	require.NoError(t, err)

	all, err := src.Fetch(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFileSourceHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFileSource(nil).Fetch(ctx, Query{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading fixtures")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("messages: [oops"), 0o644))
	_, err = LoadFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing fixtures")
}

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestConvertMessageWalksParts(t *testing.T) {
	msg := &gmail.Message{
		Id:           "abc",
		Snippet:      "Compra en establecimiento CAF&Eacute; &amp; CO, por $ 10",
		InternalDate: time.Date(2025, 7, 25, 12, 0, 0, 0, time.UTC).UnixMilli(),
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmail.MessagePart{
				{
					MimeType: "multipart/alternative",
					Parts: []*gmail.MessagePart{
						{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("Comercio: LIBRERIA")}},
						{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64("<li>Comercio: LIBRERIA</li>")}},
					},
				},
			},
		},
	}

	raw := convertMessage(msg)
	assert.Equal(t, "abc", raw.ID)
	assert.Equal(t, "Compra en establecimiento CAFÉ & CO, por $ 10", raw.Snippet)
	assert.Equal(t, "Comercio: LIBRERIA", raw.Plain)
	assert.Equal(t, "<li>Comercio: LIBRERIA</li>", raw.HTML)

	at, ok := raw.Timestamp.Time()
	require.True(t, ok)
	assert.True(t, at.Equal(time.Date(2025, 7, 25, 12, 0, 0, 0, time.UTC)))
}

func TestConvertMessageWithoutPayload(t *testing.T) {
	raw := convertMessage(&gmail.Message{Id: "x"})
	assert.True(t, raw.Empty())
}

func TestDecodeBodyAcceptsUnpadded(t *testing.T) {
	data := base64.RawURLEncoding.EncodeToString([]byte("hola?"))
	out, err := decodeBody(data)
	require.NoError(t, err)
	assert.Equal(t, "hola?", string(out))

	_, err = decodeBody("!!!")
	assert.Error(t, err)
}
