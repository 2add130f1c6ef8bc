package cli

import (
	"context"

	"github.com/notelab/recall/pkg/cli/config"
	"github.com/notelab/recall/pkg/service/embedding"
	"github.com/notelab/recall/pkg/usecase"
	"github.com/notelab/recall/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func joinFlags(flags ...[]cli.Flag) []cli.Flag {
	var result []cli.Flag
	for _, flag := range flags {
		result = append(result, flag...)
	}
	return result
}

// buildUseCases assembles the use case layer from CLI configuration. The
// returned closer releases the repository.
func buildUseCases(ctx context.Context, repoCfg *config.Repository, geminiCfg *config.GeminiCfg, reviewCfg *config.Review) (*usecase.UseCases, func(), error) {
	repo, err := repoCfg.Configure(ctx)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		safe.Close(ctx, repo)
	}

	opts := append(reviewCfg.Options(), usecase.WithRepository(repo))

	if geminiCfg.IsConfigured() {
		llm, err := geminiCfg.Configure(ctx)
		if err != nil {
			closer()
			return nil, nil, err
		}
		opts = append(opts, usecase.WithEmbeddingSource(embedding.New(repo, llm)))
	}

	return usecase.New(opts...), closer, nil
}
