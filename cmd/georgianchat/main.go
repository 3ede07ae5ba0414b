package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teilomillet/georgianchat"
	"github.com/teilomillet/georgianchat/config"
	"github.com/teilomillet/georgianchat/internal/observability"
	"github.com/teilomillet/georgianchat/llm"
	"github.com/teilomillet/georgianchat/persona"
	"github.com/teilomillet/georgianchat/server"
)

// Sample conversation used by the smoke test.
const (
	smokeMessage   = "Good day, sir! How fares the weather in London today?"
	smokeCharacter = "georgian-gentleman"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var manifestPath string

	rootCmd := &cobra.Command{
		Use:           "georgianchat",
		Short:         "Historical persona chat on Mistral-7B-Instruct",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVar(&manifestPath, "manifest", "deploy.yaml", "Deployment manifest path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve generate_response and health_check over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, manifestPath)
		},
	}

	var (
		remoteURL string
		character string
		message   string
	)
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one generation with the sample conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			messages := []llm.Message{{Role: llm.RoleUser, Content: message}}
			if remoteURL != "" {
				return runRemote(cmd.Context(), cmd.OutOrStdout(), remoteURL, messages, character)
			}
			return runLocal(cmd.Context(), cmd.OutOrStdout(), manifestPath, messages, character)
		},
	}
	generateCmd.Flags().StringVar(&remoteURL, "remote", "", "Base URL of a running server to call instead of generating locally")
	generateCmd.Flags().StringVar(&character, "character", smokeCharacter, "Character id")
	generateCmd.Flags().StringVar(&message, "message", smokeMessage, "User message")

	charactersCmd := &cobra.Command{
		Use:   "characters",
		Short: "List the available characters",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			for _, info := range persona.Registry() {
				fmt.Fprintf(w, "  %-20s %s\n", info.ID, info.Name)
				fmt.Fprintf(w, "  %-20s %s\n", "", info.Description)
			}
		},
	}

	deployCmd := &cobra.Command{
		Use:   "deploy",
		Short: "Print the resolved deployment manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := config.LoadManifest(manifestPath)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(manifest)
			if err != nil {
				return fmt.Errorf("encoding manifest: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	rootCmd.AddCommand(serveCmd, generateCmd, charactersCmd, deployCmd)
	return rootCmd
}

func newService(manifestPath string) (*georgianchat.Service, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	return georgianchat.New(cfg, georgianchat.WithManifest(manifest))
}

func runServe(ctx context.Context, manifestPath string) error {
	svc, err := newService(manifestPath)
	if err != nil {
		return err
	}
	cfg := svc.Config()
	logger := cfg.GetLogger()

	tracingCfg := observability.DefaultTracingConfig()
	tracingCfg.OTLPEndpoint = cfg.OTLPEndpoint
	tp, err := observability.InitTracing(ctx, tracingCfg)
	if err != nil {
		return fmt.Errorf("initialising tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Tracer shutdown failed", "error", err)
		}
	}()

	keeper, err := svc.NewKeeper()
	if err != nil {
		return err
	}
	if err := keeper.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := keeper.Stop(); err != nil {
			logger.Warn("Keep-warm shutdown failed", "error", err)
		}
	}()

	return svc.NewServer().Run(ctx, cfg.ListenAddr)
}

func runLocal(ctx context.Context, out io.Writer, manifestPath string, messages []llm.Message, character string) error {
	svc, err := newService(manifestPath)
	if err != nil {
		return err
	}
	res, err := svc.GenerateResponse(ctx, messages, character)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Response: %s\n", res.Response)
	return nil
}

func runRemote(ctx context.Context, out io.Writer, baseURL string, messages []llm.Message, character string) error {
	client := server.NewClient(baseURL, config.DefaultManifest().Generate.Timeout)

	health, err := client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	fmt.Fprintf(out, "Health: %s (model %s, provider %s)\n", health.Status, health.Model, health.Provider)

	res, err := client.GenerateResponse(ctx, llm.GenerateRequest{Messages: messages, Character: character})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Character: %s\n", res.Character)
	fmt.Fprintf(out, "Response: %s\n", res.Response)
	return nil
}
