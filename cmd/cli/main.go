package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"

	"shabdsetu-client/internal/bootstrap"
	"shabdsetu-client/internal/config"
	"shabdsetu-client/internal/tracer"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type app struct {
	cfg       *config.Config
	container *bootstrap.Container
	shutdown  func(context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{}
	err := a.rootCommand().ExecuteContext(ctx)
	// flush rendered output before reporting
	if closeErr := a.close(); err == nil {
		err = closeErr
	}
	if err != nil {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func (a *app) rootCommand() *cobra.Command {
	var baseURL string

	root := &cobra.Command{
		Use:           "shabdsetu",
		Short:         "OCR, proofreading and translation for PDF and Word documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// 0. Tracer (no-op unless OTEL_ENABLED=true)
			a.shutdown = tracer.InitTracer()

			// 1. Configuration
			a.cfg = config.Load()
			if baseURL != "" {
				a.cfg.App.BaseURL = baseURL
			}

			// 2. Container
			c, err := bootstrap.NewContainer(cmd.Context(), a.cfg, bootstrap.Options{
				Out:     cmd.OutOrStdout(),
				OpenURL: openBrowser(cmd),
			})
			if err != nil {
				return err
			}
			a.container = c
			return nil
		},
	}
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "backend URL (overrides SHABDSETU_BASE_URL)")

	root.AddCommand(
		a.themeCommand(),
		a.loginCommand(),
		a.logoutCommand(),
		a.trialCommand(),
		a.processCommand(),
		a.statusCommand(),
		a.downloadCommand(),
		a.sendCommand(),
		a.logsCommand(),
	)
	return root
}

func (a *app) close() error {
	var err error
	if a.container != nil {
		err = a.container.Close()
		a.container = nil
	}
	if a.shutdown != nil {
		_ = a.shutdown(context.Background())
		a.shutdown = nil
	}
	return err
}

// openBrowser prints the checkout link and tries the platform opener.
func openBrowser(cmd *cobra.Command) func(string) error {
	return func(url string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "Complete the payment in your browser: %s\n", url)

		var opener *exec.Cmd
		switch runtime.GOOS {
		case "darwin":
			opener = exec.Command("open", url)
		case "windows":
			opener = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
		default:
			opener = exec.Command("xdg-open", url)
		}
		if err := opener.Start(); err != nil {
			// the printed link is enough
			return nil
		}
		go opener.Wait()
		return nil
	}
}
