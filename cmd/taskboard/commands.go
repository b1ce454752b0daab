package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"taskboard/internal/board"
	"taskboard/internal/client"
	"taskboard/internal/models"
	"taskboard/internal/session"
	"taskboard/internal/tui"
)

var errNotLoggedIn = errors.New("not logged in, run `taskboard login` first")

type app struct {
	server *string
	out    io.Writer
	in     io.Reader
}

// load returns the saved session with the --server override applied.
func (a *app) load() (session.Session, error) {
	s, err := session.Load()
	if err != nil {
		return session.Session{}, err
	}
	if *a.server != "" {
		s.Server = *a.server
	}
	return s, nil
}

func (a *app) authedClient() (session.Session, *client.Client, error) {
	s, err := a.load()
	if err != nil {
		return s, nil, err
	}
	if s.Token == "" {
		return s, nil, errNotLoggedIn
	}
	return s, client.New(s.Server, client.WithToken(s.Token)), nil
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label+": ")
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) saveAuth(s session.Session, resp *models.AuthResponse) error {
	s.Token = resp.AccessToken
	s.RefreshToken = resp.RefreshToken
	if resp.User != nil {
		s.Name = resp.User.Name
	}
	if err := session.Save(s); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", s.Name)
	return nil
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.load()
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = a.prompt("Password"); err != nil {
					return err
				}
			}
			resp, err := client.New(s.Server).Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			return a.saveAuth(s, resp)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) registerCmd() *cobra.Command {
	var req models.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.load()
			if err != nil {
				return err
			}
			if req.Password == "" {
				if req.Password, err = a.prompt("Password"); err != nil {
					return err
				}
			}
			req.ConfirmPassword = req.Password
			resp, err := client.New(s.Server).Register(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}
			return a.saveAuth(s, resp)
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the refresh token and forget the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, api, err := a.authedClient()
			if errors.Is(err, errNotLoggedIn) {
				fmt.Fprintln(a.out, "Not logged in")
				return nil
			}
			if err != nil {
				return err
			}
			if err := api.Logout(cmd.Context()); err != nil {
				log.Printf("server logout failed: %v", err)
			}
			if err := session.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func (a *app) boardCmd() *cobra.Command {
	var filterName string
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the interactive board",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := models.ParseFilter(filterName)
			if err != nil {
				return err
			}
			s, api, err := a.authedClient()
			if err != nil {
				return err
			}

			// the terminal belongs to the TUI, so logs go to a file
			f, err := tea.LogToFile(filepath.Join(os.TempDir(), "taskboard.log"), "board")
			if err != nil {
				return err
			}
			defer f.Close()

			bridge := &tui.Bridge{}
			coord := board.New(api, board.Session{Token: s.Token, Name: s.Name},
				board.WithLogger(log.Default()),
				board.WithNotifier(bridge),
			)
			coord.OnChange(bridge.Changed)
			if err := coord.SetFilter(cmd.Context(), filter); err != nil {
				return err
			}

			p := tea.NewProgram(tui.New(cmd.Context(), coord), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			bridge.Attach(p)
			_, err = p.Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&filterName, "filter", string(models.DefaultFilter), "Today, This Week or This Month")
	return cmd
}

func (a *app) tasksCmd() *cobra.Command {
	var filterName string
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks in a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := models.ParseFilter(filterName)
			if err != nil {
				return err
			}
			_, api, err := a.authedClient()
			if err != nil {
				return err
			}
			tasks, err := api.FetchTasks(cmd.Context(), filter)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(tasks))
			for i := range tasks {
				t := &tasks[i]
				due := ""
				if t.DueDate != nil {
					due = t.DueDate.Local().Format("2006-01-02")
				}
				rows = append(rows, []string{
					t.ID.Hex(),
					t.Title,
					t.State.Label(),
					string(t.Priority),
					fmt.Sprintf("%d/%d", t.Completed(), len(t.Checklist)),
					due,
					t.Assignee,
				})
			}
			fmt.Fprintln(a.out, renderTable([]string{"ID", "Title", "State", "Priority", "Checklist", "Due", "Assignee"}, rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&filterName, "filter", string(models.DefaultFilter), "Today, This Week or This Month")
	return cmd
}

func (a *app) analyticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show task counts by state, priority and due date",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, api, err := a.authedClient()
			if err != nil {
				return err
			}
			analytics, err := api.FetchAnalytics(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(models.AnalyticsKeys))
			for _, k := range models.AnalyticsKeys {
				rows = append(rows, []string{k, strconv.Itoa(analytics[k])})
			}
			fmt.Fprintln(a.out, renderTable([]string{"Metric", "Count"}, rows))
			return nil
		},
	}
}

func (a *app) peopleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "people",
		Short: "Manage the people you can assign tasks to",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your people",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, api, err := a.authedClient()
			if err != nil {
				return err
			}
			people, err := api.FetchPeople(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range people {
				fmt.Fprintln(a.out, p)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <email>",
		Short: "Add a person by email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, api, err := a.authedClient()
			if err != nil {
				return err
			}
			warn := board.NotifierFunc(func(m string) { fmt.Fprintln(os.Stderr, "warning:", m) })
			coord := board.New(api, board.Session{Token: s.Token, Name: s.Name}, board.WithNotifier(warn))
			coord.FetchPeople(cmd.Context())
			if !coord.AddPerson(cmd.Context(), strings.TrimSpace(args[0])) {
				return fmt.Errorf("%s was not added", args[0])
			}
			fmt.Fprintf(a.out, "Added %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "suggest <query>",
		Short: "Suggest registered users to add",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, api, err := a.authedClient()
			if err != nil {
				return err
			}
			suggestions, err := api.SuggestPeople(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(suggestions))
			for _, s := range suggestions {
				rows = append(rows, []string{s.Email, s.Name})
			}
			fmt.Fprintln(a.out, renderTable([]string{"Email", "Name"}, rows))
			return nil
		},
	})

	return cmd
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}
