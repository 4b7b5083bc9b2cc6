package mailbox

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/alertas-dev/alertas/internal/model"
)

const (
	gmailUser    = "me"
	listPageSize = 100
)

// GmailSource reads alerts from a Gmail mailbox with read-only access.
type GmailSource struct {
	srv    *gmail.Service
	logger *log.Logger
}

// NewGmailSource builds a Gmail source from an installed-app credentials file
// and a previously stored token (see Authorize).
func NewGmailSource(ctx context.Context, credentialsFile, tokenFile string, logger *log.Logger) (*GmailSource, error) {
	cfg, err := oauthConfig(credentialsFile)
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("reading token %s (run `alertas auth` first): %w", tokenFile, err)
	}
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("creating Gmail service: %w", err)
	}
	return &GmailSource{srv: srv, logger: logger}, nil
}

// Fetch implements Source. Every matching message is fetched in full.
func (s *GmailSource) Fetch(ctx context.Context, q Query) ([]model.RawMessage, error) {
	search := q.SearchString()
	s.logger.Debug("listing messages", "query", search)

	var ids []string
	call := s.srv.Users.Messages.List(gmailUser).Q(search).MaxResults(listPageSize)
	err := call.Pages(ctx, func(page *gmail.ListMessagesResponse) error {
		for _, m := range page.Messages {
			ids = append(ids, m.Id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing messages for %q: %w", search, err)
	}

	msgs := make([]model.RawMessage, 0, len(ids))
	for _, id := range ids {
		full, err := s.srv.Users.Messages.Get(gmailUser, id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("fetching message %s: %w", id, err)
		}
		msgs = append(msgs, convertMessage(full))
	}
	s.logger.Debug("fetched messages", "query", search, "count", len(msgs))
	return msgs, nil
}

// convertMessage maps a full Gmail message onto a RawMessage.
func convertMessage(msg *gmail.Message) model.RawMessage {
	raw := model.RawMessage{
		ID:      msg.Id,
		Snippet: html.UnescapeString(msg.Snippet),
	}
	if msg.InternalDate > 0 {
		raw.Timestamp = model.At(time.UnixMilli(msg.InternalDate).Local())
	}
	if msg.Payload != nil {
		raw.Plain = partBody(msg.Payload, "text/plain")
		raw.HTML = partBody(msg.Payload, "text/html")
	}
	return raw
}

// partBody returns the first body of the given MIME type in the part tree.
func partBody(part *gmail.MessagePart, mimeType string) string {
	if strings.EqualFold(part.MimeType, mimeType) && part.Body != nil && part.Body.Data != "" {
		if data, err := decodeBody(part.Body.Data); err == nil {
			return string(data)
		}
	}
	for _, child := range part.Parts {
		if body := partBody(child, mimeType); body != "" {
			return body
		}
	}
	return ""
}

// decodeBody decodes base64url body data, padded or not.
func decodeBody(data string) ([]byte, error) {
	if out, err := base64.URLEncoding.DecodeString(data); err == nil {
		return out, nil
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
}

func oauthConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading client secret file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parsing client secret file: %w", err)
	}
	return cfg, nil
}

// Authorize runs the installed-app consent flow: it prints the consent URL to
// out, reads the authorization code from in and stores the token in tokenFile.
func Authorize(ctx context.Context, credentialsFile, tokenFile string, in io.Reader, out io.Writer) error {
	cfg, err := oauthConfig(credentialsFile)
	if err != nil {
		return err
	}
	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Go to the following link in your browser, then paste the authorization code:\n%s\n> ", authURL)

	code, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && code == "" {
		return fmt.Errorf("reading authorization code: %w", err)
	}
	tok, err := cfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}
	if err := saveToken(tokenFile, tok); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved token to %s\n", tokenFile)
	return nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decoding token: %w", err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("saving oauth token: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("encoding oauth token: %w", err)
	}
	return nil
}
