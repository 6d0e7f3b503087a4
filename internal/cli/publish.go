package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/kilupskalvis/folio/internal/core"
	"github.com/kilupskalvis/folio/internal/github"
	"github.com/kilupskalvis/folio/internal/persist"
	"github.com/manifoldco/promptui"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Save the page and publish it to GitHub",
	Long: `Save the page locally and write it to the configured GitHub repository
as one commit. The token comes from FOLIO_GITHUB_TOKEN or 'folio token set'.

If the remote file changed since it was read the publish fails and nothing
is retried; the page stays saved locally.

Examples:
  folio publish
  folio publish -m "Refresh the landing page" --data`,
	Args: cobra.NoArgs,
	Run:  runPublish,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the GitHub publishing token",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set [token]",
	Short: "Store the GitHub token",
	Long:  `Store the GitHub token used for publishing. Without an argument the token is read from a masked prompt.`,
	Args:  cobra.MaximumNArgs(1),
	Run:   runTokenSet,
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored GitHub token",
	Args:  cobra.NoArgs,
	Run:   runTokenClear,
}

var (
	publishMessage string
	publishData    bool
)

func init() {
	publishCmd.Flags().StringVarP(&publishMessage, "message", "m", "", "Commit message")
	publishCmd.Flags().BoolVar(&publishData, "data", false, "Also publish the catalog data files")

	tokenCmd.AddCommand(tokenSetCmd, tokenClearCmd)
}

func runPublish(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := initContext()
	defer c.Close()

	remote := c.Workspace.Config.Remote
	if remote.Owner != "" {
		fmt.Printf("Publishing %s to %s/%s (%s)...\n", pageFlag, remote.Owner, remote.Repo, remote.Branch)
	}

	var bar *progressbar.ProgressBar
	progress := func(phase string, current, total int) {
		switch phase {
		case "saving":
			fmt.Printf("Saving locally...\n")
		case "publishing":
			if current == 0 {
				fmt.Printf("Writing %s...\n", c.Workspace.Config.RemotePath(pageFlag))
			}
		case "data":
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Writing data files"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetWidth(40),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}
			_ = bar.Set(current)
			if current == total {
				_ = bar.Finish()
			}
		}
	}

	res, err := c.Workspace.Publish(ctx, pageFlag, core.PublishOptions{
		Message:     publishMessage,
		IncludeData: publishData,
	}, progress)
	switch {
	case errors.Is(err, persist.ErrMissingCredential):
		exitError("no GitHub token; run 'folio token set' or set %s", persist.TokenEnvVar)
	case errors.Is(err, github.ErrRemoteConflict):
		exitError("%v\nThe page is saved locally. Publish again to overwrite the remote version.", err)
	case err != nil:
		exitError("publish failed: %v", err)
	}

	green := color.New(color.FgGreen)
	verb := "Updated"
	if res.Page.Created {
		verb = "Created"
	}
	green.Printf("%s %s ", verb, res.Page.Path)
	fmt.Printf("(commit %s)\n", shortSHA(res.Page.CommitSHA))
	if res.Page.URL != "" {
		fmt.Printf("  %s\n", res.Page.URL)
	}
	for _, d := range res.Data {
		fmt.Printf("  %s %s\n", d.Path, shortSHA(d.CommitSHA))
	}
}

// shortSHA returns the first 7 characters of a commit sha
func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func runTokenSet(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	var token string
	if len(args) == 1 {
		token = args[0]
	} else {
		prompt := promptui.Prompt{
			Label: "GitHub token",
			Mask:  '*',
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("token is required")
				}
				return nil
			},
		}
		var err error
		if token, err = prompt.Run(); err != nil {
			exitError("%v", err)
		}
	}

	if err := c.Workspace.Gateway.SetCredential(token); err != nil {
		exitError("failed to store token: %v", err)
	}
	color.New(color.FgGreen).Println("Token stored")
	if os.Getenv(persist.TokenEnvVar) != "" {
		fmt.Printf("Note: %s is set and takes precedence.\n", persist.TokenEnvVar)
	}
}

func runTokenClear(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	if err := c.Workspace.Gateway.ClearCredential(); err != nil {
		exitError("failed to remove token: %v", err)
	}
	fmt.Println("Token removed")
}
