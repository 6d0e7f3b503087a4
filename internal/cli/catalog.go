package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/kilupskalvis/folio/internal/catalog"
	"github.com/kilupskalvis/folio/internal/models"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage projects, achievements and FAQs shown on the site",
}

var catalogProjectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects",
	Args:  cobra.NoArgs,
	Run:   runListProjects,
}

var catalogProjectAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a project",
	Long: `Add a project from flags, or from a JSON file with --file
("-" reads standard input).`,
	Args: cobra.NoArgs,
	Run:  runAddProject,
}

var catalogAchievementsCmd = &cobra.Command{
	Use:   "achievements",
	Short: "List achievements",
	Args:  cobra.NoArgs,
	Run:   runListAchievements,
}

var catalogAchievementAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an achievement from a JSON file",
	Args:  cobra.NoArgs,
	Run:   runAddAchievement,
}

var catalogFAQsCmd = &cobra.Command{
	Use:   "faqs",
	Short: "List FAQs",
	Args:  cobra.NoArgs,
	Run:   runListFAQs,
}

var catalogFAQAddCmd = &cobra.Command{
	Use:   "add <question> <answer>",
	Short: "Add a FAQ",
	Args:  cobra.ExactArgs(2),
	Run:   runAddFAQ,
}

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "List contact form messages",
	Args:  cobra.NoArgs,
	Run:   runMessages,
}

var messagesReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark a message as read",
	Args:  cobra.ExactArgs(1),
	Run:   runMarkRead,
}

var (
	projectCategory string
	projectQuery    string
	projectFile     string
	projectTitle    string
	projectDesc     string
	projectTech     []string
	achievementFile string
	achievementCat  string
	messagesUnread  bool
)

func init() {
	catalogCmd.AddCommand(catalogProjectsCmd, catalogAchievementsCmd, catalogFAQsCmd)

	pf := catalogProjectsCmd.Flags()
	pf.StringVar(&projectCategory, "category", "", "Only projects of this category")
	pf.StringVarP(&projectQuery, "query", "q", "", "Search title, description and technologies")

	af := catalogProjectAddCmd.Flags()
	af.StringVar(&projectFile, "file", "", "Project as JSON")
	af.StringVar(&projectTitle, "title", "", "Title")
	af.StringVar(&projectDesc, "description", "", "Short description")
	af.StringVar(&projectCategory, "category", "", "Category (frontend, backend, fullstack, mobile...)")
	af.StringSliceVar(&projectTech, "tech", nil, "Technologies, comma separated")

	catalogAchievementsCmd.Flags().StringVar(&achievementCat, "category", "", "Only achievements of this category")
	catalogAchievementAddCmd.Flags().StringVar(&achievementFile, "file", "-", "Achievement as JSON")

	catalogProjectsCmd.AddCommand(catalogProjectAddCmd, deleteCommand("project", func(s *catalog.Service, id string) error {
		return s.DeleteProject(id)
	}))
	catalogAchievementsCmd.AddCommand(catalogAchievementAddCmd, deleteCommand("achievement", func(s *catalog.Service, id string) error {
		return s.DeleteAchievement(id)
	}))
	catalogFAQsCmd.AddCommand(catalogFAQAddCmd, deleteCommand("FAQ", func(s *catalog.Service, id string) error {
		return s.DeleteFAQ(id)
	}))

	messagesCmd.Flags().BoolVar(&messagesUnread, "unread", false, "Only unread messages")
	messagesCmd.AddCommand(messagesReadCmd, analyticsCmd)
}

// deleteCommand builds the "delete <id>" subcommand of a catalog list.
func deleteCommand(kind string, del func(s *catalog.Service, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: fmt.Sprintf("Delete a %s", kind),
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := initContext()
			defer c.Close()
			if err := del(c.Workspace.Catalog, args[0]); err != nil {
				exitError("%v", err)
			}
			fmt.Printf("Deleted %s %s\n", kind, args[0])
		},
	}
}

func runListProjects(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	page, err := c.Workspace.Catalog.Projects(catalog.ProjectFilter{
		Category: projectCategory,
		Query:    projectQuery,
		Limit:    1 << 20,
	})
	if err != nil {
		exitError("%v", err)
	}
	if page.Total == 0 {
		fmt.Println("No projects")
		return
	}
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)
	for _, p := range page.Items {
		yellow.Printf("%-10s ", p.ID)
		fmt.Printf("%-32s ", preview(p.Title, 32))
		cyan.Printf("%-10s ", p.Category)
		fmt.Printf("%4d views", p.Views)
		if p.Featured {
			color.New(color.FgGreen).Print("  featured")
		}
		fmt.Println()
	}
}

func runAddProject(cmd *cobra.Command, args []string) {
	var p models.Project
	if projectFile != "" {
		readJSONInput(projectFile, &p)
	} else {
		p = models.Project{Title: projectTitle, Description: projectDesc, Category: projectCategory, Technologies: projectTech}
	}

	c := initContext()
	defer c.Close()

	added, err := c.Workspace.Catalog.AddProject(p)
	if err != nil {
		exitError("%v", err)
	}
	color.New(color.FgGreen).Printf("Added project %s\n", added.ID)
}

func runListAchievements(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	list, err := c.Workspace.Catalog.Achievements(achievementCat)
	if err != nil {
		exitError("%v", err)
	}
	if len(list) == 0 {
		fmt.Println("No achievements")
		return
	}
	yellow := color.New(color.FgYellow)
	for _, a := range list {
		yellow.Printf("%-10s ", a.ID)
		fmt.Printf("%-40s %s %s\n", preview(a.Title, 40), a.Organization, a.Date)
	}
}

func runAddAchievement(cmd *cobra.Command, args []string) {
	var a models.Achievement
	readJSONInput(achievementFile, &a)

	c := initContext()
	defer c.Close()

	added, err := c.Workspace.Catalog.AddAchievement(a)
	if err != nil {
		exitError("%v", err)
	}
	color.New(color.FgGreen).Printf("Added achievement %s\n", added.ID)
}

func runListFAQs(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	list, err := c.Workspace.Catalog.FAQs()
	if err != nil {
		exitError("%v", err)
	}
	yellow := color.New(color.FgYellow)
	for _, f := range list {
		yellow.Printf("%s ", f.ID)
		fmt.Println(f.Question)
		fmt.Printf("    %s\n", preview(f.Answer, 76))
	}
}

func runAddFAQ(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	added, err := c.Workspace.Catalog.AddFAQ(args[0], args[1])
	if err != nil {
		exitError("%v", err)
	}
	color.New(color.FgGreen).Printf("Added FAQ %s\n", added.ID)
}

func runMessages(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	msgs, err := c.Workspace.Catalog.Messages()
	if err != nil {
		exitError("%v", err)
	}

	shown := 0
	yellow := color.New(color.FgYellow)
	bold := color.New(color.Bold)
	for _, m := range msgs {
		if messagesUnread && m.Read {
			continue
		}
		shown++
		yellow.Printf("message %s", m.ID)
		if !m.Read {
			color.New(color.FgGreen).Print(" (unread)")
		}
		fmt.Println()
		fmt.Printf("From: %s <%s>\n", m.Name, m.Email)
		fmt.Printf("Date: %s\n", m.Date.Local().Format(time.DateTime))
		if m.Subject != "" {
			bold.Printf("\n    %s\n", m.Subject)
		}
		fmt.Printf("\n    %s\n\n", strings.ReplaceAll(m.Body, "\n", "\n    "))
	}
	if shown == 0 {
		fmt.Println("No messages")
	}
}

func runMarkRead(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	if err := c.Workspace.Catalog.MarkRead(args[0]); err != nil {
		exitError("%v", err)
	}
	fmt.Printf("Marked %s as read\n", args[0])
}

var analyticsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show contact and project view counters",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := initContext()
		defer c.Close()

		a, err := c.Workspace.Catalog.Analytics()
		if err != nil {
			exitError("%v", err)
		}
		fmt.Printf("Contact submissions: %d\n", a.ContactSubmissions)
		fmt.Printf("Project views:       %d\n", a.ProjectViews)
		if len(a.Activities) > 0 {
			fmt.Println("\nRecent activity:")
			for _, act := range a.Activities {
				fmt.Printf("  %s  %s\n", act.Time.Local().Format(time.DateTime), act.Description)
			}
		}
	},
}

// readJSONInput decodes a JSON file or standard input into v.
func readJSONInput(path string, v any) {
	data, err := readInput(path)
	if err != nil {
		exitError("failed to read %s: %v", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		exitError("invalid JSON in %s: %v", path, err)
	}
}
