package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"flacmirror/internal/config"
	"flacmirror/internal/encode"
	"flacmirror/internal/logging"
	"flacmirror/internal/run"
)

func newRootCommand() *cobra.Command {
	var (
		configFlag  string
		bitrateFlag string
		workersFlag int
		dryRunFlag  bool
		overwrite   bool
		assumeYes   bool
	)

	rootCmd := &cobra.Command{
		Use:   "flacmirror <source-dir> <dest-dir>",
		Short: "Mirror a FLAC tree into an MP3 tree",
		Long: `flacmirror walks a FLAC source tree and produces a parallel MP3 tree,
preserving the directory structure. Already-converted files are skipped,
so an interrupted run can simply be restarted.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _, _, err := config.Load(configFlag)
			if err != nil {
				return err
			}

			quality := config.DefaultQuality
			if bitrateFlag != "" {
				quality, err = config.ParseQuality(bitrateFlag)
				if err != nil {
					return err
				}
			}

			outputs := []string{"stderr"}
			if settings.Logging.Dir != "" {
				dir, err := config.ExpandPath(settings.Logging.Dir)
				if err != nil {
					return err
				}
				outputs = append(outputs, filepath.Join(dir, "flacmirror.log"))
			}
			logger, err := logging.New(logging.Options{
				Level:       settings.Logging.Level,
				Format:      settings.Logging.Format,
				OutputPaths: outputs,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			confirm := promptConfirm
			if assumeYes || dryRunFlag {
				confirm = nil
			}

			result, err := run.Execute(ctx, run.Options{
				Settings: settings,
				Run: config.Run{
					SourceDir: args[0],
					DestDir:   args[1],
					Quality:   quality,
					Overwrite: overwrite,
					DryRun:    dryRunFlag,
					Workers:   workersFlag,
				},
				Encoder: encode.NewFFmpeg(settings.Encoder.Binary),
				Logger:  logger,
				Out:     cmd.OutOrStdout(),
				Confirm: confirm,
			})
			if err != nil {
				return err
			}
			if result.Declined {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			}
			// Per-job failures are reported through the summary and the
			// published error log; only precondition failures exit non-zero.
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().StringVarP(&bitrateFlag, "bitrate", "b", "", "MP3 quality: a CBR bitrate like 192k or a VBR level like V2 (default V2)")
	rootCmd.Flags().IntVar(&workersFlag, "workers", 0, "Concurrent conversion jobs (default derived from CPU count)")
	rootCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Report what would be converted without writing anything")
	rootCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Re-encode files whose output already exists")
	rootCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip confirmation prompts")

	return rootCmd
}

func promptConfirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
