// Package credential supplies OAuth tokens for the Gmail client, either from
// the local token file or through a one-time interactive exchange.
package credential

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2"
)

// ErrNoCredential means no usable token is stored yet.
var ErrNoCredential = errors.New("no stored credential")

// Provider returns a token the Gmail client can use.
type Provider interface {
	Credential(ctx context.Context) (*oauth2.Token, error)
}

// Store is the persistence a Provider reads from or writes to.
type Store interface {
	Load() (*oauth2.Token, error)
	Save(tok *oauth2.Token) error
}

// Cached serves the token from the store without any user interaction.
type Cached struct {
	Store Store
}

func (c Cached) Credential(_ context.Context) (*oauth2.Token, error) {
	tok, err := c.Store.Load()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, ErrNoCredential
	}
	return tok, nil
}

// Interactive asks a human to authorize the app, exchanges the pasted code for
// a token pair and stores it.
type Interactive struct {
	Config *oauth2.Config
	Store  Store
	In     io.Reader
	Out    io.Writer
	State  string
}

func (i Interactive) Credential(ctx context.Context) (*oauth2.Token, error) {
	state := i.State
	if state == "" {
		state = "state-token"
	}
	authURL := i.Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	if _, err := fmt.Fprintf(i.Out, "Authorize this app by visiting this URL: %s\n", authURL); err != nil {
		return nil, fmt.Errorf("print authorization url: %w", err)
	}
	if _, err := fmt.Fprint(i.Out, "Enter the authorization code from the URL: "); err != nil {
		return nil, fmt.Errorf("print prompt: %w", err)
	}

	// Fscanln reads In without buffering ahead, so input after the code stays
	// available to later prompts.
	var code string
	_, err := fmt.Fscanln(i.In, &code)
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New("read authorization code: empty code")
	}
	if err != nil {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}

	tok, err := i.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	if err := i.Store.Save(tok); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	if _, err := fmt.Fprintln(i.Out, "Token stored successfully."); err != nil {
		return nil, fmt.Errorf("print confirmation: %w", err)
	}
	return tok, nil
}

// Chain asks each provider in turn. It moves on only when a provider reports
// ErrNoCredential; any other failure ends the lookup.
type Chain []Provider

func (c Chain) Credential(ctx context.Context) (*oauth2.Token, error) {
	for _, p := range c {
		tok, err := p.Credential(ctx)
		if errors.Is(err, ErrNoCredential) {
			continue
		}
		return tok, err
	}
	return nil, ErrNoCredential
}

var (
	_ Provider = Cached{}
	_ Provider = Interactive{}
	_ Provider = Chain(nil)
	_ Store    = (*FileStore)(nil)
)
