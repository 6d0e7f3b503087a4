package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/kilupskalvis/folio/internal/mcpserver"
	"github.com/kilupskalvis/folio/internal/server"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	serveListen      string
	serveTLSCert     string
	serveTLSKey      string
	serveWebhookURLs string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the editor HTTP API for this workspace",
	Long: `Run the editor HTTP API for this workspace.

Editing endpoints require the owner password as a bearer token. The password
hash is read from the workspace config (set it with 'folio serve password')
or the FOLIO_ADMIN_PASSWORD environment variable.

Examples:
  folio serve
  folio serve --listen 127.0.0.1:8720 --webhook-urls https://hooks.example.com/deploy`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

var servePasswordCmd = &cobra.Command{
	Use:   "password",
	Short: "Set the owner password of the HTTP API",
	Args:  cobra.NoArgs,
	Run:   runServePassword,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve page editing tools over MCP on stdio",
	Long: `Serve page editing tools over the Model Context Protocol on stdio, so an
assistant can inspect and edit the pages of this workspace.`,
	Args: cobra.NoArgs,
	Run:  runMCP,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveListen, "listen", os.Getenv("FOLIO_LISTEN"), "Listen address (default from config)")
	f.StringVar(&serveTLSCert, "tls-cert", os.Getenv("FOLIO_TLS_CERT"), "TLS certificate file")
	f.StringVar(&serveTLSKey, "tls-key", os.Getenv("FOLIO_TLS_KEY"), "TLS key file")
	f.StringVar(&serveWebhookURLs, "webhook-urls", os.Getenv("FOLIO_WEBHOOK_URLS"), "Comma-separated webhook URLs to notify on publish")

	serveCmd.AddCommand(servePasswordCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	if !cmd.Flags().Changed("log-level") && os.Getenv("FOLIO_LOG_LEVEL") == "" {
		logLevelFlag = "info"
	}
	c := initContext()
	defer c.Close()

	cfg := c.Workspace.Config
	scfg, err := server.ConfigFrom(cfg, serveWebhookURLs)
	if err != nil {
		exitError("%v", err)
	}
	if scfg.AdminPasswordHash == "" {
		color.New(color.FgYellow).Fprintf(os.Stderr,
			"Warning: no owner password configured; editing endpoints will reject every request\n")
	}

	listen := serveListen
	if listen == "" {
		listen = cfg.Server.Listen
	}

	srv := server.New(c.Workspace, scfg, c.Workspace.Logger())
	defer srv.Close()
	if err := server.ListenAndServe(srv, listen, serveTLSCert, serveTLSKey); err != nil {
		exitError("server error: %v", err)
	}
}

func runServePassword(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	prompt := promptui.Prompt{
		Label: "Owner password",
		Mask:  '*',
		Validate: func(s string) error {
			if len(s) < 8 {
				return fmt.Errorf("use at least 8 characters")
			}
			return nil
		},
	}
	pw, err := prompt.Run()
	if err != nil {
		exitError("%v", err)
	}
	confirm := promptui.Prompt{Label: "Repeat password", Mask: '*'}
	again, err := confirm.Run()
	if err != nil {
		exitError("%v", err)
	}
	if pw != again {
		exitError("passwords do not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		exitError("%v", err)
	}
	cfg := c.Workspace.Config
	cfg.Server.AdminPasswordHash = string(hash)
	if err := cfg.Save(); err != nil {
		exitError("failed to save config: %v", err)
	}
	color.New(color.FgGreen).Println("Owner password updated")
}

func runMCP(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	if err := mcpserver.NewServer(c.Workspace).Serve(); err != nil {
		exitError("mcp server: %v", err)
	}
}
