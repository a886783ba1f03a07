package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"shabdsetu-client/internal/constant"
	"shabdsetu-client/internal/controller"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *app) themeCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [show|toggle]",
		Short:     "Show or toggle the display theme",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"show", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			themes := a.container.ThemeController
			current := themes.Load(cmd.Context())
			if len(args) == 1 && args[0] == "toggle" {
				next, err := themes.Toggle(cmd.Context())
				if err != nil {
					return err
				}
				current = next
			}
			fmt.Fprintln(cmd.OutOrStdout(), current)
			return nil
		},
	}
}

func (a *app) loginCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a one-time code sent to your email",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			login := a.container.LoginController
			in := bufio.NewScanner(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			prompt := func(label string) (string, bool) {
				fmt.Fprint(out, label)
				if !in.Scan() {
					return "", false
				}
				return strings.TrimSpace(in.Text()), true
			}

			for {
				if email == "" {
					var ok bool
					if email, ok = prompt("Email: "); !ok {
						return errors.New("login aborted")
					}
				}
				if err := login.RequestCode(ctx, email); err != nil {
					if errors.Is(err, controller.ErrInvalidEmail) {
						email = ""
						continue
					}
					return err
				}

				for login.State() == controller.StateOtpSent {
					code, ok := prompt("Code (or 'resend' / 'change'): ")
					if !ok {
						return errors.New("login aborted")
					}
					switch strings.ToLower(code) {
					case "resend":
						if err := login.Resend(ctx); err != nil && !errors.Is(err, controller.ErrRejected) {
							return err
						}
					case "change":
						login.ChangeEmail()
						email = ""
					default:
						err := login.VerifyCode(ctx, code)
						if err != nil && !errors.Is(err, controller.ErrInvalidCode) && !errors.Is(err, controller.ErrRejected) {
							return err
						}
					}
				}
				if login.State() == controller.StateVerified {
					return nil
				}
			}
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address to send the code to")
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget stored cookies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.container.LoginController.Logout(cmd.Context())
		},
	}
}

func (a *app) trialCommand() *cobra.Command {
	var mode int

	cmd := &cobra.Command{
		Use:   "trial",
		Short: "Show the free-trial allowance for a mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.container.JobController.SelectMode(cmd.Context(), constant.Mode(mode)); err != nil {
				return err
			}
			if a.container.Session.Trial == nil {
				return errors.New("trial information unavailable")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&mode, "mode", 0, modeHelp())
	_ = cmd.MarkFlagRequired("mode")
	return cmd
}

func (a *app) processCommand() *cobra.Command {
	var (
		mode        int
		opts        controller.SubmitOptions
		pay         bool
		outDir      string
		emailResult bool
	)

	cmd := &cobra.Command{
		Use:   "process FILE",
		Short: "Upload a document, wait for processing and download the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := a.container

			if err := c.JobController.SelectMode(ctx, constant.Mode(mode)); err != nil {
				return err
			}
			if _, err := c.UploadController.Select(ctx, args[0]); err != nil {
				return err
			}

			res, err := c.JobController.Process(ctx, opts)
			if err != nil {
				return err
			}

			switch res.Submit.Outcome {
			case controller.OutcomePaymentRequired:
				if !pay {
					color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "Re-run with --pay to pay and process this document.")
					return nil
				}
				if res, err = c.PaymentController.Initiate(ctx, opts); err != nil {
					return err
				}
				if err := checkPaidResult(res); err != nil {
					return err
				}
			case controller.OutcomeRejected:
				return fmt.Errorf("%w: %s", controller.ErrRejected, res.Submit.Message)
			}

			if res.Job == nil {
				return nil
			}
			if _, err := c.JobController.Download(ctx, res.Job.OutputFile, outDir); err != nil {
				return err
			}
			if emailResult {
				return c.JobController.SendDocument(ctx, res.Job.JobID)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&mode, "mode", 0, modeHelp())
	f.StringVar(&opts.Language, "language", "", "document language (proofreading modes)")
	f.StringVar(&opts.SourceLang, "source-lang", "", "source language (translation modes)")
	f.StringVar(&opts.TargetLang, "target-lang", "", "target language (translation modes)")
	f.BoolVar(&pay, "pay", false, "pay through the checkout page when the trial is used up")
	f.StringVar(&outDir, "out", ".", "directory for the processed file")
	f.BoolVar(&emailResult, "email-result", false, "also email the result")
	_ = cmd.MarkFlagRequired("mode")
	return cmd
}

func (a *app) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status JOB_ID",
		Short: "Follow a running job until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.container.JobController.Poll(cmd.Context(), args[0])
			return err
		},
	}
}

func (a *app) downloadCommand() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "download OUTPUT_FILE",
		Short: "Download a processed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.container.JobController.Download(cmd.Context(), args[0], outDir)
			return err
		},
	}
	cmd.Flags().StringVar(&outDir, "out", ".", "destination directory")
	return cmd
}

func (a *app) sendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "send JOB_ID",
		Short: "Email the result of a finished job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.container.JobController.SendDocument(cmd.Context(), args[0])
		},
	}
}

func (a *app) logsCommand() *cobra.Command {
	var (
		level string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent client log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.container.Logger.GetLogs(level, limit, 0)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s %-5s [%s] %s", e.Timestamp, e.Level, e.Module, e.Message)
				for k, v := range e.Details {
					fmt.Fprintf(out, " %s=%v", k, v)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "only show this level (DEBUG, INFO, WARN, ERROR)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries")
	return cmd
}

// checkPaidResult fails when a paid resubmission did not produce a job.
func checkPaidResult(res *controller.ProcessResult) error {
	if res == nil || res.Submit == nil {
		return errors.New("payment received but processing did not start")
	}
	switch res.Submit.Outcome {
	case controller.OutcomeAccepted:
		if res.Job != nil {
			return nil
		}
	case controller.OutcomeRejected:
		return fmt.Errorf("%w: payment received but the document was not processed: %s", controller.ErrRejected, res.Submit.Message)
	case controller.OutcomePaymentRequired:
		return fmt.Errorf("payment received but the server still asks for payment: %s", res.Submit.Message)
	}
	return errors.New("payment received but processing did not start")
}

func modeHelp() string {
	var parts []string
	for _, spec := range constant.Modes() {
		parts = append(parts, fmt.Sprintf("%d=%s", spec.Mode, spec.Name))
	}
	return "processing mode (" + strings.Join(parts, ", ") + ")"
}
