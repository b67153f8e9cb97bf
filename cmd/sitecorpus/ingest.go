package main

import (
	"context"
	"fmt"

	"github.com/ternarybob/sitecorpus/internal/app"
	"github.com/ternarybob/sitecorpus/internal/services/jobengine"
)

func runIngest(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sitecorpus ingest <seed-url> [display-name]")
	}
	displayName := ""
	if len(args) > 1 {
		displayName = args[1]
	}

	result, err := a.Engine.Ingest(ctx, jobengine.IngestInput{SeedURL: args[0], DisplayName: displayName})
	if err != nil {
		return err
	}

	fmt.Printf("website %s: discovered %d, written %d, errors %d\n",
		result.WebsiteID, result.PagesDiscovered, result.PagesWritten, len(result.Errors))
	return nil
}

func runSync(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sitecorpus sync <website-id>")
	}

	result, err := a.Engine.Sync(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("sync job %s: discovered %d, updated %d, deleted %d, errored %d\n",
		result.SyncJobID, result.URLsDiscovered, result.URLsUpdated, result.URLsDeleted, result.URLsErrored)
	return nil
}

func runIndex(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sitecorpus index <website-id>")
	}

	result, err := a.Engine.Index(ctx, jobengine.IndexInput{WebsiteID: args[0], AutoCreateStore: true})
	if err != nil {
		return err
	}

	fmt.Printf("indexing job %s: pages indexed %d, errors %d\n",
		result.IndexingJobID, result.PagesIndexed, len(result.Errors))
	return nil
}

func runRecover(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sitecorpus recover <ingestion-job-id>")
	}

	result, err := a.Engine.Recover(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("recovery status: %s (recovered=%v)\n", result.Status, result.Recovered)
	if result.Result != nil {
		fmt.Printf("website %s: written %d, errors %d\n",
			result.Result.WebsiteID, result.Result.PagesWritten, len(result.Result.Errors))
	}
	return nil
}
