// internal/runtime/auth.go
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	gc "github.com/joshsymonds/chronoreply/internal/gmail"
)

// Scopes requested on first authorization: read/modify messages, manage
// labels, and compose.
var Scopes = []string{
	gmail.GmailModifyScope,
	gmail.GmailLabelsScope,
	gmail.GmailComposeScope,
}

// NewGmailClient builds a Gmail client whose HTTP transport refreshes tok
// through cfg's token endpoint whenever the access token expires.
func NewGmailClient(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) (gc.Client, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return NewGoogleAPIClient(svc), nil
}

func DefaultLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
