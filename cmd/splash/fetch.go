package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/polynite/splash/assemble"
	"github.com/polynite/splash/chunkio"
	"github.com/polynite/splash/manifest"
)

func newFetchCmd() *cobra.Command {
	var (
		flags         manifestSourceFlags
		installDir    string
		fileFilterCSV string
		skipVerify    bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Decode a manifest and assemble its files to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, fetcher, cache, err := loadRuntime()
			if err != nil {
				return err
			}
			if installDir == "" {
				return fmt.Errorf("splash: --install-dir is required")
			}

			data, err := resolveManifestBytes(cmd.Context(), flags, cfg, fetcher)
			if err != nil {
				return err
			}

			m, err := manifest.Decode(data, manifest.Options{ChunkBaseURI: cfg.ChunkBaseURI})
			if err != nil {
				return err
			}

			filter := parseFileFilter(fileFilterCSV)
			codec := chunkio.NewCodec(fetcher, cache)
			codec.OnCacheError = func(err error) {
				logger.WithError(err).Warn("chunk cache write failed")
			}
			assembler := assemble.New(codec, m.Chunks)
			assembler.Workers = cfg.Workers

			return fetchFiles(cmd.Context(), assembler, m.Files, installDir, filter, skipVerify)
		},
	}

	addManifestSourceFlags(&flags, cmd.Flags())
	cmd.Flags().StringVar(&installDir, "install-dir", "", "directory to write assembled files to")
	cmd.Flags().StringVar(&fileFilterCSV, "files", "", "comma-separated list of file paths to fetch (default: all)")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "skip per-file SHA-1 verification after assembly")
	return cmd
}

func parseFileFilter(csv string) map[string]bool {
	if csv == "" {
		return nil
	}
	filter := make(map[string]bool)
	for _, name := range strings.Split(csv, ",") {
		if name != "" {
			filter[name] = true
		}
	}
	return filter
}

func fetchFiles(ctx context.Context, assembler *assemble.Assembler, files []manifest.FileDescriptor, installDir string, filter map[string]bool, skipVerify bool) error {
	for _, file := range files {
		if filter != nil && !filter[file.Path] {
			continue
		}

		log := logger.WithField("file", file.Path)
		log.Info("assembling file")

		data, err := assembler.Assemble(ctx, file)
		if err != nil {
			return fmt.Errorf("assemble %q: %w", file.Path, err)
		}

		if !skipVerify && !file.Verify(data) {
			return fmt.Errorf("assemble %q: content hash mismatch", file.Path)
		}

		dest := filepath.Join(installDir, filepath.FromSlash(file.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
