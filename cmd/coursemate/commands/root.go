// ABOUTME: Root command and global flags for the coursemate CLI
// ABOUTME: Registers every subcommand and validates the shared output flags
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	configPath   string
)

const banner = `
 ██████╗ ██████╗ ██╗   ██╗██████╗ ███████╗███████╗███╗   ███╗ █████╗ ████████╗███████╗
██╔════╝██╔═══██╗██║   ██║██╔══██╗██╔════╝██╔════╝████╗ ████║██╔══██╗╚══██╔══╝██╔════╝
██║     ██║   ██║██║   ██║██████╔╝███████╗█████╗  ██╔████╔██║███████║   ██║   █████╗
██║     ██║   ██║██║   ██║██╔══██╗╚════██║██╔══╝  ██║╚██╔╝██║██╔══██║   ██║   ██╔══╝
╚██████╗╚██████╔╝╚██████╔╝██║  ██║███████║███████╗██║ ╚═╝ ██║██║  ██║   ██║   ███████╗
 ╚═════╝ ╚═════╝  ╚═════╝ ╚═╝  ╚═╝╚══════╝╚══════╝╚═╝     ╚═╝╚═╝  ╚═╝   ╚═╝   ╚══════╝`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coursemate",
		Short: "Ask questions about your course materials",
		Long: banner + `

Coursemate indexes course transcripts and answers questions about them.
A chat model decides when to search course content or fetch a course
outline, and every answer comes back with the lessons it was drawn from.

Run it as a CLI, an HTTP API (serve) or an MCP server (mcp).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case "auto", "text", "json":
				return nil
			default:
				return fmt.Errorf("invalid --format %q (want auto, text or json)", outputFormat)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print results")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, text or json")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (YAML or TOML)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewIngestCmd(),
		NewQueryCmd(),
		NewSearchCmd(),
		NewOutlineCmd(),
		NewCoursesCmd(),
		NewServeCmd(),
		NewMCPCmd(),
		NewEvalCmd(),
		NewExportCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func jsonOutput() bool {
	return outputFormat == "json"
}
