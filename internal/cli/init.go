package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/kilupskalvis/folio/internal/config"
	"github.com/kilupskalvis/folio/internal/store"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new folio workspace",
	Long: `Initialize a new folio workspace in the current directory.
This creates a .folio directory holding the configuration, the local
page store and exported files.`,
	Run: runInit,
}

var (
	initBackend     string
	initOwner       string
	initRepo        string
	initBranch      string
	initPathPrefix  string
	initInteractive bool
)

func init() {
	f := initCmd.Flags()
	f.StringVar(&initBackend, "backend", config.BackendBolt, "Storage backend (bbolt|sqlite)")
	f.StringVar(&initOwner, "owner", "", "GitHub owner of the site repository")
	f.StringVar(&initRepo, "repo", "", "GitHub repository the site is published to")
	f.StringVar(&initBranch, "branch", "main", "Branch to publish to")
	f.StringVar(&initPathPrefix, "path-prefix", "", "Directory of the pages inside the repository")
	f.BoolVarP(&initInteractive, "interactive", "i", false, "Ask for the publishing settings")
}

func runInit(cmd *cobra.Command, args []string) {
	if _, err := config.FindRoot(); err == nil {
		exitError("folio workspace already exists")
	}

	cfg := config.Default()
	cfg.StorageBackend = initBackend
	cfg.Remote.Owner = initOwner
	cfg.Remote.Repo = initRepo
	cfg.Remote.Branch = initBranch
	cfg.Remote.PathPrefix = initPathPrefix

	if initInteractive {
		if err := runRemoteWizard(&cfg.Remote); err != nil {
			exitError("%v", err)
		}
	}

	fmt.Printf("Initializing folio workspace...\n")
	cfg, err := config.Initialize(cfg)
	if err != nil {
		exitError("failed to initialize config: %v", err)
	}

	st, err := store.Open(cfg.StorageBackend, cfg.DatabasePath(), store.Options{QuotaBytes: cfg.Storage.QuotaBytes})
	if err != nil {
		exitError("failed to create store: %v", err)
	}
	st.Close()

	color.New(color.FgGreen).Printf("\nInitialized empty folio workspace in %s/\n", config.FolioDir)
	fmt.Printf("Storage backend: %s\n", cfg.StorageBackend)
	if cfg.Remote.Owner != "" && cfg.Remote.Repo != "" {
		fmt.Printf("Publishing to %s/%s (%s)\n", cfg.Remote.Owner, cfg.Remote.Repo, cfg.Remote.Branch)
		fmt.Printf("\nRun 'folio token set' to store a GitHub token.\n")
	} else {
		fmt.Printf("\nNo repository configured; edit %s to enable publishing.\n", cfg.Path())
	}
}

// runRemoteWizard asks for the publishing target, using the flag values as
// defaults.
func runRemoteWizard(remote *config.RemoteConfig) error {
	notEmpty := func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("value is required")
		}
		return nil
	}

	prompts := []struct {
		label    string
		value    *string
		validate promptui.ValidateFunc
	}{
		{"GitHub owner", &remote.Owner, notEmpty},
		{"Repository", &remote.Repo, notEmpty},
		{"Branch", &remote.Branch, notEmpty},
		{"Path prefix (blank for the repository root)", &remote.PathPrefix, nil},
	}
	for _, p := range prompts {
		prompt := promptui.Prompt{
			Label:    p.label,
			Default:  *p.value,
			Validate: p.validate,
		}
		v, err := prompt.Run()
		if err != nil {
			return fmt.Errorf("%s: %w", strings.ToLower(p.label), err)
		}
		*p.value = strings.Trim(strings.TrimSpace(v), "/")
	}
	return nil
}
