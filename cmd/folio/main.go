package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"folio/internal/app"
	"folio/internal/config"
	"folio/internal/history"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func readConfig() (*config.Config, error) {
	paths, err := app.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("resolving paths: %w", err)
	}

	cfg, err := config.ReadFromFile(paths.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates a FolioApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "CreateSnapshot", "RestoreSnapshot").
func newApp(operation string) (*app.FolioApp, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewFolioApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readPassphrase prompts on the terminal without echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

// readText returns the contents of path, or stdin when path is "-".
func readText(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading text: %w", err)
	}
	return string(data), nil
}

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Version control for composite documents",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and database",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.DefaultPaths()
		if err != nil {
			return fmt.Errorf("failed to resolve paths: %w", err)
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, paths.BaseDir)

		if err := config.Init(paths.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		if err := app.InitDatabase(cfg); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", paths.ConfigPath)
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", paths.BaseDir)
		fmt.Println("Run `folio config keys init` to create backup encryption keys.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.DefaultPaths()
		if err != nil {
			return fmt.Errorf("failed to resolve paths: %w", err)
		}

		cfg, err := config.ReadFromFile(paths.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", paths.ConfigPath)
		fmt.Printf("Host ID:    %s\n", cfg.HostID)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Database:   %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:      %s (%s)\n", v.Name, v.Type)
		}
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		fmt.Printf("Previews:   %t\n", cfg.Preview.Enabled)
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage backup encryption keys",
}

var configKeysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the backup encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		pass, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		pub, err := app.SetupKeys(cfg, pass)
		if err != nil {
			return err
		}
		fmt.Printf("Keys written to %s\n", cfg.Encryption.PublicKeyPath)
		if pub != "" {
			fmt.Printf("Public key: %s\n", pub)
		}
		return nil
	},
}

var configVaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage vault",
}

var configVaultCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the vault is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		if err := app.ValidateVault(cfg); err != nil {
			return err
		}
		fmt.Printf("Vault %s is reachable\n", cfg.Vaults[0].Name)
		return nil
	},
}

// vault command
var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Synchronize the database with the vault",
}

var vaultPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Replace the local database with the vault backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		cfg, err := readConfig()
		if err != nil {
			return err
		}

		var pass string
		if cfg.Encryption.Type != "none" {
			if pass, err = readPassphrase("Passphrase: "); err != nil {
				return err
			}
		}

		version, err := app.PullDatabase(cfg, pass, force)
		if err != nil {
			return err
		}
		fmt.Printf("Database restored from vault (version %d)\n", version)
		return nil
	},
}

// project command
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")

		a, err := newApp("CreateProject")
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.CreateProject(args[0], description)
		if err != nil {
			return err
		}
		fmt.Printf("Created project %s (%s)\n", p.Name, p.ID)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListProjects")
		if err != nil {
			return err
		}
		defer a.Close()

		projects, err := a.Projects()
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			fmt.Println("No projects.")
			return nil
		}
		for _, p := range projects {
			fmt.Printf("%s  %s\n", p.ID, p.Name)
		}
		return nil
	},
}

// doc command
var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage documents",
}

var docNewCmd = &cobra.Command{
	Use:   "new TITLE",
	Short: "Create a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, _ := cmd.Flags().GetString("project")
		file, _ := cmd.Flags().GetString("file")

		var text string
		if file != "" {
			t, err := readText(file)
			if err != nil {
				return err
			}
			text = t
		}

		a, err := newApp("NewDocument")
		if err != nil {
			return err
		}
		defer a.Close()

		doc, err := a.NewDocument(project, args[0], text)
		if err != nil {
			return err
		}
		fmt.Printf("Created document %s (%d words)\n", doc.ID, doc.WordCount)
		return nil
	},
}

var docEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Replace a document's text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		text, err := readText(file)
		if err != nil {
			return err
		}

		a, err := newApp("EditDocument")
		if err != nil {
			return err
		}
		defer a.Close()

		doc, err := a.EditDocument(args[0], text)
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s (%d words)\n", doc.Title, doc.WordCount)
		return nil
	},
}

var docListCmd = &cobra.Command{
	Use:   "list PROJECT",
	Short: "List a project's documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListDocuments")
		if err != nil {
			return err
		}
		defer a.Close()

		docs, err := a.Documents(args[0])
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Println("No documents.")
			return nil
		}
		for _, d := range docs {
			fmt.Printf("%s  %6d  %s\n", d.ID, d.WordCount, d.Title)
		}
		return nil
	},
}

var docImportCmd = &cobra.Command{
	Use:   "import PROJECT PATH",
	Short: "Import text and markdown files as documents",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		recursive, _ := cmd.Flags().GetBool("recursive")

		a, err := newApp("ImportDocuments")
		if err != nil {
			return err
		}
		defer a.Close()

		docs, err := a.ImportDocuments(args[0], args[1], recursive)
		if err != nil {
			return fmt.Errorf("import failed after %d document(s): %w", len(docs), err)
		}
		fmt.Printf("Imported %d document(s)\n", len(docs))
		return nil
	},
}

// snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Create, inspect and restore snapshots",
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create PROJECT",
	Short: "Snapshot every document of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		previewDoc, _ := cmd.Flags().GetString("preview")

		a, err := newApp("CreateSnapshot")
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.CreateSnapshot(args[0], previewDoc)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", s.ID, s.Label)
		fmt.Printf("%d document(s), %d words, %d pages\n", len(s.Documents), s.WordCount, s.PageCount)
		return nil
	},
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore SNAPSHOT_ID",
	Short: "Restore a project's documents from a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RestoreSnapshot")
		if err != nil {
			return err
		}
		defer a.Close()

		s, restored, err := a.Restore(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Restored %s\n", s.Label)
		for _, id := range restored {
			fmt.Printf("  %s\n", id)
		}
		return nil
	},
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show SNAPSHOT_ID",
	Short: "Print a snapshot manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")

		a, err := newApp("ShowSnapshot")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.ExportSnapshot(args[0], os.Stdout, format)
	},
}

var snapshotPreviewCmd = &cobra.Command{
	Use:   "preview SNAPSHOT_ID",
	Short: "Write a snapshot's preview image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = args[0] + ".png"
		}

		a, err := newApp("FetchPreview")
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		if err := a.FetchPreview(args[0], f); err != nil {
			f.Close()
			os.Remove(out)
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Printf("Preview written to %s\n", out)
		return nil
	},
}

// log command
var logCmd = &cobra.Command{
	Use:   "log PROJECT",
	Short: "View the active branch's snapshot history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ViewHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		view, err := a.History(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Branch %s\n", view.ActiveBranch().Name)
		if len(view.Snapshots()) == 0 {
			fmt.Println("No snapshots.")
			return nil
		}
		head := view.HeadSnapshotID()
		for _, s := range view.Snapshots() {
			marker := " "
			if s.ID == head {
				marker = "*"
			}
			fmt.Printf("%s %s  %-12s  %s  %6d words  %3d pages\n",
				marker,
				s.ID,
				history.TriggerIcon(s.TriggerType),
				runewidth.FillRight(s.Label, 36),
				s.WordCount,
				s.PageCount,
			)
		}
		return nil
	},
}

// branch command
var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Manage branches",
}

var branchListCmd = &cobra.Command{
	Use:   "list PROJECT",
	Short: "List a project's branches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListBranches")
		if err != nil {
			return err
		}
		defer a.Close()

		view, err := a.History(args[0])
		if err != nil {
			return err
		}
		active := view.ActiveBranch()
		for _, b := range view.Branches() {
			marker := " "
			if active != nil && b.ID == active.ID {
				marker = "*"
			}
			head := string(b.HeadSnapshotID)
			if head == "" {
				head = "(no snapshots)"
			}
			fmt.Printf("%s %s  %s\n", marker, runewidth.FillRight(b.Name, 20), head)
		}
		return nil
	},
}

var branchCreateCmd = &cobra.Command{
	Use:   "create PROJECT NAME",
	Short: "Branch from a snapshot and switch to the new branch",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")

		a, err := newApp("CreateBranch")
		if err != nil {
			return err
		}
		defer a.Close()

		b, err := a.CreateBranch(args[0], args[1], from)
		if err != nil {
			return err
		}
		fmt.Printf("Created branch %s at %s\n", b.Name, b.HeadSnapshotID)
		return nil
	},
}

var branchCheckoutCmd = &cobra.Command{
	Use:   "checkout PROJECT NAME",
	Short: "Switch branches and restore the branch head",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("CheckoutBranch")
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.CheckoutBranch(args[0], args[1])
		if err != nil {
			return err
		}
		if s == nil {
			fmt.Printf("Switched to %s (no snapshots to restore)\n", args[1])
			return nil
		}
		fmt.Printf("Switched to %s, restored %s\n", args[1], s.Label)
		return nil
	},
}

// ops command
var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "View recorded operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("ListOperations")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.Operations(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt != nil {
				duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-16s  %s  %-8s  %-10s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				strings.TrimSpace(op.Parameters),
			)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configKeysCmd)
	configKeysCmd.AddCommand(configKeysInitCmd)
	configCmd.AddCommand(configVaultCmd)
	configVaultCmd.AddCommand(configVaultCheckCmd)

	vaultCmd.AddCommand(vaultPullCmd)
	vaultPullCmd.Flags().BoolP("force", "f", false, "Overwrite an existing local database")

	projectCmd.AddCommand(projectCreateCmd)
	projectCreateCmd.Flags().StringP("description", "d", "", "Project description")
	projectCmd.AddCommand(projectListCmd)

	docCmd.AddCommand(docNewCmd)
	docNewCmd.Flags().StringP("project", "p", "", "Project name (default: the shared workspace)")
	docNewCmd.Flags().StringP("file", "f", "", "Read the initial text from a file, or - for stdin")
	docCmd.AddCommand(docEditCmd)
	docEditCmd.Flags().StringP("file", "f", "-", "Read the new text from a file, or - for stdin")
	docCmd.AddCommand(docListCmd)
	docCmd.AddCommand(docImportCmd)
	docImportCmd.Flags().BoolP("recursive", "r", false, "Recurse into subdirectories")

	snapshotCmd.AddCommand(snapshotCreateCmd)
	snapshotCreateCmd.Flags().String("preview", "", "Document id to render as the preview")
	snapshotCmd.AddCommand(snapshotRestoreCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
	snapshotShowCmd.Flags().StringP("output", "o", "yaml", "Manifest format: yaml or json")
	snapshotCmd.AddCommand(snapshotPreviewCmd)
	snapshotPreviewCmd.Flags().StringP("output", "o", "", "Output file (default: <id>.png)")

	branchCmd.AddCommand(branchListCmd)
	branchCmd.AddCommand(branchCreateCmd)
	branchCreateCmd.Flags().String("from", "", "Snapshot id to branch from (default: the active head)")
	branchCmd.AddCommand(branchCheckoutCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(vaultCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(docCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(opsCmd)
	opsCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
}
