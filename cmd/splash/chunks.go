package main

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/polynite/splash/chunkio"
	"github.com/polynite/splash/manifest"
)

func newChunksCmd() *cobra.Command {
	var flags manifestSourceFlags

	cmd := &cobra.Command{
		Use:   "chunks",
		Short: "Fetch and cache every chunk a manifest references, without assembling files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, fetcher, cache, err := loadRuntime()
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

			codec := chunkio.NewCodec(fetcher, cache)
			codec.OnCacheError = func(err error) {
				logger.WithError(err).Warn("chunk cache write failed")
			}

			logger.WithField("chunk_count", len(m.Chunks)).Info("fetching chunks")
			return fetchAllChunks(cmd.Context(), codec, m.Chunks, cfg.Workers)
		},
	}

	addManifestSourceFlags(&flags, cmd.Flags())
	return cmd
}

func fetchAllChunks(ctx context.Context, codec *chunkio.Codec, chunks map[manifest.GUID]manifest.ChunkDescriptor, workers int) error {
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, descriptor := range chunks {
		descriptor := descriptor
		g.Go(func() error {
			_, err := codec.Body(gctx, descriptor)
			return err
		})
	}
	return g.Wait()
}
