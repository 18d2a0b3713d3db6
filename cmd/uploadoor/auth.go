package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/uploadoor/pkg/config"
	"github.com/ethpandaops/uploadoor/pkg/flickr"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize uploadoor with a Flickr account",
	Long: `Request write permission for the configured API key. The grant
happens in a browser; the resulting auth token is cached locally and reused
by every subsequent run.`,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Flickr.APIKey == "" || cfg.Flickr.APISecret == "" {
		return fmt.Errorf("flickr.api_key and flickr.api_secret must be configured")
	}

	ctx := cmd.Context()

	client := flickr.New(log, &flickr.Config{
		APIKey:    cfg.Flickr.APIKey,
		APISecret: cfg.Flickr.APISecret,
		RestURL:   cfg.Flickr.RestURL,
		AuthURL:   cfg.Flickr.AuthURL,
		UploadURL: cfg.Flickr.UploadURL,
	})

	frob, err := client.GetFrob(ctx)
	if err != nil {
		return fmt.Errorf("requesting frob: %w", err)
	}

	fmt.Printf("Open the following URL in a browser and grant write access:\n\n")
	fmt.Printf("  %s\n\n", client.AuthorizeURL(frob, "write"))
	fmt.Printf("Press ENTER once you have confirmed the permissions.\n")

	if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err != nil {
		return fmt.Errorf("waiting for confirmation: %w", err)
	}

	auth, err := client.GetToken(ctx, frob)
	if err != nil {
		return fmt.Errorf("exchanging frob for token: %w", err)
	}

	if err := flickr.SaveToken(cfg.Flickr.TokenFile, auth.Token); err != nil {
		return fmt.Errorf("caching auth token: %w", err)
	}

	log.WithFields(logrus.Fields{
		"user":       auth.User.Username,
		"perms":      auth.Perms,
		"token_file": cfg.Flickr.TokenFile,
	}).Info("Authorization complete")

	return nil
}
