package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/user"
	"strings"

	"gemchat/internal/app"
	"gemchat/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	flagConfig string
	flagUser   string
	flagMock   bool
	flagNoTUI  bool
)

func loadApplication() (*app.Application, error) {
	path := flagConfig
	if path == "" {
		path = app.DefaultConfigPath()
	}
	cfg, err := app.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if flagMock || cfg.APIKey == "" {
		cfg.APIKey = "mock"
		cfg.GenerateURL = "mock://"
		cfg.HistoryURL = "mock://"
		cfg.PersistURL = "mock://"
	}
	return app.NewApplication(cfg, os.Stderr), nil
}

func currentUser() string {
	if flagUser != "" {
		return flagUser
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "local"
}

func runREPL(a *app.Application) error {
	ctx := context.Background()
	fmt.Println("gemchat — /new starts a new chat, /quit exits.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/new":
			if _, added := a.NewSession(); added {
				fmt.Println("conversation archived.")
			}
			continue
		}

		outcome, err := a.Submit(ctx, line)
		switch outcome {
		case app.OutcomeCompleted:
			msgs := a.Transcript.Snapshot()
			fmt.Println(msgs[len(msgs)-1].Text)
		case app.OutcomeLimitReached:
			fmt.Println("session limit reached — /new starts a new chat.")
		case app.OutcomeUnauthenticated:
			fmt.Println("not signed in.")
		case app.OutcomeFailed:
			fmt.Printf("no reply: %v\n", err)
		}
	}
	return scanner.Err()
}

func main() {
	root := &cobra.Command{
		Use:     "gemchat",
		Short:   "gemchat - conversational client for the Gemini generation API",
		Long:    "gemchat is a single-user chat client. Prompts go to the remote generation service, replies land in a scrolling transcript, and finished conversations are archived as named sessions for later recall.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApplication()
			if err != nil {
				return err
			}
			defer a.Close()

			a.Login(cmd.Context(), currentUser())
			defer a.Logout()

			if flagNoTUI {
				return runREPL(a)
			}
			p := tea.NewProgram(tui.New(a), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	root.PersistentFlags().BoolVar(&flagMock, "mock", false, "run against a local mock backend")
	root.Flags().StringVar(&flagUser, "user", "", "override the signed-in user")
	root.Flags().BoolVarP(&flagNoTUI, "no-tui", "n", false, "use a plain REPL instead of the TUI")

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "List archived sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApplication()
			if err != nil {
				return err
			}
			metas := a.Archive.List()
			if len(metas) == 0 {
				fmt.Println("no archived sessions.")
				return nil
			}
			for _, meta := range metas {
				fmt.Printf("%s  %s  %2d msgs  %s\n",
					meta.ID, meta.ArchivedAt.Format("2006-01-02 15:04"), meta.MessageCount, meta.Preview)
			}
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one archived session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApplication()
			if err != nil {
				return err
			}
			if !a.Archive.Delete(args[0]) {
				return fmt.Errorf("no session with id %s", args[0])
			}
			fmt.Println("deleted.")
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every archived session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApplication()
			if err != nil {
				return err
			}
			a.Archive.Replace(nil)
			fmt.Println("archive cleared.")
			return nil
		},
	}

	sessionsCmd.AddCommand(deleteCmd, clearCmd)
	root.AddCommand(sessionsCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
