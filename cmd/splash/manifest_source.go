package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/polynite/splash/internal/config"
	"github.com/polynite/splash/launcher"
)

// manifestSourceFlags are the flags every subcommand that needs manifest
// bytes shares: a local file, a direct URL, or catalog coordinates to
// resolve one through.
type manifestSourceFlags struct {
	file     string
	url      string
	platform string
	namespace string
	item     string
	app      string
	label    string
}

func addManifestSourceFlags(flags *manifestSourceFlags, cmd flagAdder) {
	cmd.StringVar(&flags.file, "manifest-file", "", "path to a local manifest file")
	cmd.StringVar(&flags.url, "manifest-url", "", "direct URL to a manifest file")
	cmd.StringVar(&flags.platform, "platform", "Windows", "catalog platform")
	cmd.StringVar(&flags.namespace, "namespace", "", "catalog namespace")
	cmd.StringVar(&flags.item, "catalog-item", "", "catalog item id")
	cmd.StringVar(&flags.app, "app", "", "catalog app name")
	cmd.StringVar(&flags.label, "label", "Live", "catalog label")
}

// flagAdder is the subset of *pflag.FlagSet (via *cobra.Command) used
// above, kept narrow so callers can pass either a command's Flags() or
// PersistentFlags().
type flagAdder interface {
	StringVar(p *string, name string, value string, usage string)
}

// resolveManifestBytes fetches manifest bytes per flags: a local file
// takes priority, then a direct URL, then catalog resolution.
func resolveManifestBytes(ctx context.Context, flags manifestSourceFlags, cfg *config.Config, fetcher *launcher.HTTPFetcher) ([]byte, error) {
	if flags.file != "" {
		return os.ReadFile(flags.file)
	}

	if flags.url != "" {
		return fetcher.Fetch(ctx, flags.url)
	}

	if flags.namespace == "" || flags.item == "" || flags.app == "" {
		return nil, fmt.Errorf("splash: no manifest source given; pass --manifest-file, --manifest-url, or --namespace/--catalog-item/--app")
	}

	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		auth := launcher.NewAuthenticator(fetcher.HTTPClient, launcher.ClientToken{
			AccountServiceURL: cfg.AccountServiceURL,
			UserAgent:         cfg.UserAgent,
			BasicAuth:         base64.StdEncoding.EncodeToString([]byte(cfg.ClientID + ":" + cfg.ClientSecret)),
		})
		token, err := auth.Authenticate(ctx)
		if err != nil {
			return nil, fmt.Errorf("authenticate: %w", err)
		}
		fetcher.BearerToken = token
	}

	catalog, err := fetcher.FetchCatalog(ctx, cfg.LauncherServiceURL, flags.platform, flags.namespace, flags.item, flags.app, flags.label)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	info, err := catalog.ResolveManifestURL()
	if err != nil {
		return nil, fmt.Errorf("resolve manifest url: %w", err)
	}

	return fetcher.Fetch(ctx, info.URL)
}
