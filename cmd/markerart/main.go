package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zen-systems/markerart/pkg/adapter"
	"github.com/zen-systems/markerart/pkg/config"
	"github.com/zen-systems/markerart/pkg/server"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "markerart",
		Short: "Art idea and image generation functions",
		Long: `markerart turns a set of marker colors into art project ideas and turns
	a text prompt into a generated image. Both operations can be run once from the
	command line or served over HTTP.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (default ~/.markerart/config.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(ideasCmd())
	rootCmd.AddCommand(imageCmd())
	rootCmd.AddCommand(providersCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var addrFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve both functions over HTTP",
		Long: `Serves POST /v1/ideas and POST /v1/image until interrupted.

	Request bodies may be JSON objects or JSON strings holding an object.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp("")
			if err != nil {
				return err
			}

			addr := a.cfg.Server.Addr
			if addrFlag != "" {
				addr = addrFlag
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(a.log, a.envelope, a.ideas, a.image)
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (overrides server.addr)")

	return cmd
}

func ideasCmd() *cobra.Command {
	var sampleFlag bool
	var providerFlag string

	cmd := &cobra.Command{
		Use:   "ideas [color...]",
		Short: "Generate art ideas for a set of colors",
		Long: `Generates art project ideas for the given marker colors.
	With no colors, green, blue and brown are used.

	Use --sample to answer from canned ideas without calling a provider.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sampleFlag {
				providerFlag = "mock"
			}
			a, err := loadApp(providerFlag)
			if err != nil {
				return err
			}

			body, err := json.Marshal(map[string][]string{"colorNames": args})
			if err != nil {
				return err
			}

			resp := a.ideas.Handle(cmd.Context(), body)
			return printResponse(resp, a.envelope)
		},
	}

	cmd.Flags().BoolVar(&sampleFlag, "sample", false, "use canned sample ideas")
	cmd.Flags().StringVar(&providerFlag, "provider", "", "override text provider (openai, anthropic, google, deepseek, mock)")

	return cmd
}

func imageCmd() *cobra.Command {
	var outFlag string

	cmd := &cobra.Command{
		Use:   "image [prompt]",
		Short: "Generate an image from a prompt",
		Long: `Generates an image from the prompt and prints the response.

	Use --out to write the decoded image to a file instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp("")
			if err != nil {
				return err
			}

			body, err := json.Marshal(map[string]string{"prompt": args[0]})
			if err != nil {
				return err
			}

			resp := a.image.Handle(cmd.Context(), body)
			if outFlag == "" || !resp.Success {
				return printResponse(resp, a.envelope)
			}

			encoded, _ := resp.Payload.(string)
			data, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return fmt.Errorf("failed to decode image: %w", err)
			}
			if err := os.WriteFile(outFlag, data, 0644); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %d bytes to %s\n", len(data), outFlag)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFlag, "out", "o", "", "write the decoded image to this file")

	return cmd
}

func providersCmd() *cobra.Command {
	var resolveFlag bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List text providers, models, and aliases",
		Long: `Lists text providers with their models and key status.

	Use --resolve to show aliases and what they resolve to.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp("")
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

			if resolveFlag {
				aliases := a.cfg.ModelAliases()
				fmt.Fprintln(w, "ALIAS\tMODEL")
				for _, name := range aliases.ListAliases() {
					fmt.Fprintf(w, "%s\t%s\n", name, aliases.Resolve(name))
				}
				return w.Flush()
			}

			fmt.Fprintln(w, "PROVIDER\tMODELS\tSTATUS")
			for _, name := range a.registry.Names() {
				p, _ := a.registry.Text(name)
				status := "no key"
				if a.cfg.HasKey(name) || name == "mock" {
					status = "ready"
				}
				if name == a.cfg.Ideas.Provider {
					status += " (active)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, strings.Join(p.Models(), ", "), status)
			}

			status := "no key"
			if a.cfg.HasKey("stability") {
				status = "ready"
			}
			fmt.Fprintf(w, "stability\t%s\t%s\n", "stable-diffusion-xl-1024-v1-0", status)

			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&resolveFlag, "resolve", false, "show aliases and what they resolve to")

	return cmd
}

func loadApp(ideasProvider string) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return newApp(cfg, ideasProvider)
}

func printResponse(resp adapter.Response, envelope adapter.Envelope) error {
	_, data, err := resp.Render(envelope)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	if !resp.Success {
		return fmt.Errorf("%s", resp.Message)
	}
	return nil
}
