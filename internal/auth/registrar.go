package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/go-oidc-login/go-oidc-login/internal/db/controller/provider"
	"github.com/go-oidc-login/go-oidc-login/internal/oidc"
)

// Registrar onboards OpenID Connect providers: it validates candidate
// URLs, performs dynamic client registration, and keeps the approved set
// in sync with the administrator's desired list.
type Registrar struct {
	store      *provider.Store
	protocol   Protocol
	siteURL    string
	clientName string
	validate   *validator.Validate
}

// NewRegistrar creates a registrar backed by the given store and wire client.
// clientName is the human-readable relying-party name sent to providers
// during registration.
func NewRegistrar(store *provider.Store, client *oidc.Client, siteURL, clientName string) *Registrar {
	return &Registrar{
		store:      store,
		protocol:   clientProtocol{client},
		siteURL:    siteURL,
		clientName: clientName,
		validate:   validator.New(),
	}
}

// RegisterProvider approves a single provider URL. An already-approved
// URL is an idempotent success returning the existing record, so approved
// providers are never re-registered and never mint throwaway credentials.
func (r *Registrar) RegisterProvider(ctx context.Context, candidateURL string) (*provider.Record, error) {
	rec, err := r.store.Get(candidateURL)
	if err == nil {
		return rec, nil
	}

	if !errors.Is(err, provider.ErrProviderNotFound) {
		return nil, err
	}

	newRec, err := r.register(ctx, candidateURL)
	if err != nil {
		return nil, err
	}

	if err := r.store.Upsert(*newRec); err != nil {
		return nil, err
	}

	log.Info().Str("provider", candidateURL).Msg("registered new OpenID Connect provider")

	return newRec, nil
}

// register validates the candidate URL and performs dynamic client
// registration against the provider. It never touches the store; the
// caller decides how the resulting record is persisted.
func (r *Registrar) register(ctx context.Context, candidateURL string) (*provider.Record, error) {
	if candidateURL == "" || r.validate.Var(candidateURL, "url") != nil {
		return nil, fmt.Errorf("%w: not a valid provider url", ErrValidation)
	}

	clientID, clientSecret, err := r.protocol.Register(
		ctx, candidateURL, RedirectURL(r.siteURL, candidateURL), r.clientName)
	if err != nil {
		return nil, err
	}

	return &provider.Record{
		ProviderURL:  candidateURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}, nil
}

// SyncProviderList reconciles the approved set against the full desired
// list: new URLs are registered, existing matches keep their credentials,
// and providers missing from the list are dropped. URLs that fail
// validation or registration are skipped without aborting the rest. The
// final set is persisted in one write, so the store is never observed
// half-updated, and re-running with the same input registers nothing.
func (r *Registrar) SyncProviderList(ctx context.Context, candidateURLs []string) ([]provider.Record, error) {
	existing, err := r.store.List()
	if err != nil {
		return nil, err
	}

	known := make(map[string]provider.Record, len(existing))
	for _, rec := range existing {
		known[rec.ProviderURL] = rec
	}

	final := make([]provider.Record, 0, len(candidateURLs))
	seen := make(map[string]bool, len(candidateURLs))

	for _, candidate := range candidateURLs {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" || seen[candidate] {
			continue
		}

		seen[candidate] = true

		if rec, ok := known[candidate]; ok {
			final = append(final, rec)

			continue
		}

		// register on the wire only; nothing is persisted until the
		// single ReplaceAll below, so a reader never sees a mix of the
		// old and the new set
		rec, err := r.register(ctx, candidate)
		if err != nil {
			log.Warn().Err(err).Str("provider", candidate).Msg("skipping provider")

			continue
		}

		log.Info().Str("provider", candidate).Msg("registered new OpenID Connect provider")

		final = append(final, *rec)
	}

	if err := r.store.ReplaceAll(final); err != nil {
		return nil, err
	}

	return final, nil
}
