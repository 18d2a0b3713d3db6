package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/uploadoor/pkg/batch"
	"github.com/ethpandaops/uploadoor/pkg/config"
	"github.com/ethpandaops/uploadoor/pkg/flickr"
	"github.com/ethpandaops/uploadoor/pkg/ledger"
	"github.com/ethpandaops/uploadoor/pkg/scan"
)

const bytesInMB = 1048576

var (
	runDir         string
	runTags        string
	runPublic      bool
	runTimeout     int
	runConcurrency int
	runDryRun      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Upload all eligible files in a directory",
	Long: `Scan the source directory, skip files already recorded in the
.uploaded completion log, and upload the rest with bounded parallelism.
A failed file never aborts the batch; it is simply reported and stays
eligible for the next run.`,
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runDir, "dir", "d", "", "directory to upload (default: current directory)")
	runCmd.Flags().StringVarP(&runTags, "tags", "t", "", "tags applied to uploaded photos")
	runCmd.Flags().BoolVarP(&runPublic, "public", "p", false, "upload as public")
	runCmd.Flags().IntVarP(&runTimeout, "timeout", "o", 0, "per-upload timeout in seconds")
	runCmd.Flags().IntVarP(&runConcurrency, "concurrency", "c", 0, "max simultaneous uploads")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "list candidates without uploading")
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	applyRunFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	maxSize, err := cfg.MaxFileSizeBytes()
	if err != nil {
		return err
	}

	// Setup context with signal handling.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received shutdown signal, finishing in-flight uploads")
		cancel()
	}()

	led, err := ledger.Open(cfg.Upload.Dir)
	if err != nil {
		return fmt.Errorf("opening completion log: %w", err)
	}

	defer func() {
		if err := led.Close(); err != nil {
			log.WithError(err).Warn("Failed to close completion log")
		}
	}()

	candidates, err := scan.Select(log, cfg.Upload.Dir, &scan.Options{
		Extensions:   cfg.Upload.Extensions,
		MaxFileSize:  maxSize,
		ExcludeNames: []string{ledger.FileName},
		Completed:    led.Snapshot(),
	})
	if err != nil {
		return fmt.Errorf("scanning %s: %w", cfg.Upload.Dir, err)
	}

	if len(candidates) == 0 {
		log.WithField("dir", cfg.Upload.Dir).Info("Nothing to upload")

		return nil
	}

	log.WithFields(logrus.Fields{
		"files":    len(candidates),
		"total_mb": fmt.Sprintf("%.1f", float64(scan.TotalSize(candidates))/bytesInMB),
		"dir":      cfg.Upload.Dir,
	}).Info("Found files to upload")

	if runDryRun {
		for _, c := range candidates {
			log.WithFields(logrus.Fields{
				"file": c.Name,
				"size": c.Size,
			}).Info("Would upload")
		}

		return nil
	}

	client, err := authorizedClient(ctx, cfg)
	if err != nil {
		return err
	}

	dispatcher, err := batch.NewDispatcher(log, &batch.DispatcherConfig{
		Concurrency:   cfg.Upload.Concurrency,
		RatePerSecond: cfg.Upload.RatePerSecond,
		Ledger:        led,
	})
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}

	uploadFn := func(ctx context.Context, c scan.Candidate) batch.RawResult {
		body, err := client.Upload(ctx, c.Path, &flickr.UploadOptions{
			Tags:     cfg.Upload.Tags,
			IsPublic: cfg.Upload.Public,
			Timeout:  cfg.Upload.Timeout,
		})

		return batch.RawResult{Body: body, Err: err}
	}

	report, err := dispatcher.Run(ctx, candidates, uploadFn)

	log.WithFields(logrus.Fields{
		"attempted": report.Attempted,
		"succeeded": report.Succeeded,
		"rejected":  report.Rejected,
		"failed":    report.Failed,
	}).Info("Batch complete")

	if err != nil {
		return fmt.Errorf("recording completed uploads: %w", err)
	}

	return nil
}

// applyRunFlags overrides config values with flags the user actually set.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("dir") {
		cfg.Upload.Dir = os.ExpandEnv(runDir)
	}

	if cmd.Flags().Changed("tags") {
		cfg.Upload.Tags = runTags
	}

	if cmd.Flags().Changed("public") {
		cfg.Upload.Public = runPublic
	}

	if cmd.Flags().Changed("timeout") {
		cfg.Upload.Timeout = time.Duration(runTimeout) * time.Second
	}

	if cmd.Flags().Changed("concurrency") {
		cfg.Upload.Concurrency = runConcurrency
	}
}

// authorizedClient builds a Flickr client with a verified auth token.
func authorizedClient(ctx context.Context, cfg *config.Config) (*flickr.Client, error) {
	client := flickr.New(log, &flickr.Config{
		APIKey:    cfg.Flickr.APIKey,
		APISecret: cfg.Flickr.APISecret,
		RestURL:   cfg.Flickr.RestURL,
		AuthURL:   cfg.Flickr.AuthURL,
		UploadURL: cfg.Flickr.UploadURL,
	})

	token, err := flickr.LoadToken(cfg.Flickr.TokenFile)
	if err != nil {
		return nil, err
	}

	auth, err := client.CheckToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("verifying auth token: %w", err)
	}

	client.SetToken(auth.Token)

	log.WithFields(logrus.Fields{
		"user":  auth.User.Username,
		"perms": auth.Perms,
	}).Info("Authorized")

	return client, nil
}
