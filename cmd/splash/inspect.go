package main

import (
	"github.com/spf13/cobra"

	"github.com/polynite/splash/manifest"
)

func newInspectCmd() *cobra.Command {
	var flags manifestSourceFlags

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Decode a manifest and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, fetcher, _, err := loadRuntime()
			if err != nil {
				return err
			}

			data, err := resolveManifestBytes(cmd.Context(), flags, cfg, fetcher)
			if err != nil {
				return err
			}

			m, err := manifest.Decode(data, manifest.Options{ChunkBaseURI: cfg.ChunkBaseURI})
			if err != nil {
				return err
			}

			var totalBytes int64
			for _, f := range m.Files {
				totalBytes += f.TotalSize
			}

			logger.WithFields(map[string]interface{}{
				"app_name":      m.AppName,
				"build_version": m.BuildVersion,
				"app_id":        m.AppID,
				"chunk_count":   len(m.Chunks),
				"file_count":    len(m.Files),
				"total_bytes":   totalBytes,
			}).Info("manifest decoded")
			return nil
		},
	}

	addManifestSourceFlags(&flags, cmd.Flags())
	return cmd
}
