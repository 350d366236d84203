// Package userclient is the terminal client for a running queryquest server.
package userclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultServer        = "http://127.0.0.1:3001"
	defaultRankingsLimit = 10
	defaultHTTPTimeout   = 15 * time.Second
)

type Config struct {
	ServerURL     string
	Token         string
	RankingsLimit int
	HTTPTimeout   time.Duration
}

type session struct {
	client    *HTTPClient
	reader    *bufio.Reader
	out       io.Writer
	serverURL string
	missionID string
}

func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return errors.New("token is required")
	}

	serverURL := strings.TrimSpace(cfg.ServerURL)
	if serverURL == "" {
		serverURL = defaultServer
	}
	rankingsLimit := cfg.RankingsLimit
	if rankingsLimit == 0 {
		rankingsLimit = defaultRankingsLimit
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	s := &session{
		client:    NewHTTPClient(serverURL, token, &http.Client{Timeout: timeout}),
		reader:    bufio.NewReader(in),
		out:       out,
		serverURL: serverURL,
	}

	fmt.Fprintf(out, "queryquest\nserver=%s\n\n", serverURL)
	printHelp(out)

	for {
		fmt.Fprint(out, s.prompt())
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		command := strings.ToLower(args[0])

		switch command {
		case "help":
			printHelp(out)
		case "exit", "quit":
			return nil
		case "missions":
			err = s.listMissions(ctx)
		case "show":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: show <mission_id>")
				continue
			}
			err = s.showMission(ctx, args[1])
		case "use":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: use <mission_id>")
				continue
			}
			err = s.useMission(ctx, args[1])
		case "hint":
			missionID := s.missionID
			if len(args) > 1 {
				missionID = args[1]
			}
			if missionID == "" {
				fmt.Fprintln(out, "usage: hint <mission_id> (or pick one with 'use')")
				continue
			}
			err = s.showHint(ctx, missionID)
		case "run":
			if s.missionID == "" {
				fmt.Fprintln(out, "no mission selected. use 'use <mission_id>' first or 'sql' for practice.")
				continue
			}
			sql := commandArgument(line, command)
			if sql == "" {
				fmt.Fprintln(out, "usage: run <sql>")
				continue
			}
			err = s.submit(ctx, sql, s.missionID)
		case "sql":
			sql := commandArgument(line, command)
			if sql == "" {
				fmt.Fprintln(out, "usage: sql <sql>")
				continue
			}
			err = s.submit(ctx, sql, "")
		case "progress":
			err = s.showProgress(ctx)
		case "rankings":
			limit, parseErr := parseSignedLimit(args, 1, rankingsLimit)
			if parseErr != nil {
				fmt.Fprintf(out, "invalid rankings limit: %v\n", parseErr)
				continue
			}
			err = s.showRankings(ctx, limit)
		case "reset":
			err = s.reset(ctx)
		case "whoami":
			err = s.whoami(ctx)
		default:
			fmt.Fprintln(out, "unknown command. type 'help' for usage.")
		}

		if err != nil {
			fmt.Fprintf(out, "error: %v\n", describeClientError(err, s.serverURL))
		}
	}
}

func (s *session) prompt() string {
	if s.missionID == "" {
		return "\n> "
	}
	return fmt.Sprintf("\n[%s]> ", s.missionID)
}

func (s *session) listMissions(ctx context.Context) error {
	missions, err := s.client.ListMissions(ctx)
	if err != nil {
		return err
	}
	progress, err := s.client.GetProgress(ctx)
	if err != nil {
		return err
	}

	if len(missions) == 0 {
		fmt.Fprintln(s.out, "No missions available.")
		return nil
	}

	fmt.Fprintln(s.out, "Missions:")
	for _, m := range missions {
		marker := "locked"
		switch {
		case progress.IsCompleted(m.ID):
			marker = "done"
		case progress.IsUnlocked(m.ID):
			marker = "open"
		}
		fmt.Fprintf(s.out, "  %-18s [%-6s] L%d %s (%d XP)\n", m.ID, marker, m.Level, m.Title, m.XPReward)
	}
	return nil
}

func (s *session) showMission(ctx context.Context, missionID string) error {
	m, err := s.client.GetMission(ctx, missionID)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "%s: %s (level %d, %d XP)\n\n", m.ID, m.Title, m.Level, m.XPReward)
	if m.Story != "" {
		fmt.Fprintf(s.out, "%s\n\n", m.Story)
	}
	fmt.Fprintln(s.out, m.Description)
	if len(m.ValidationRules.ExpectedColumns) > 0 {
		fmt.Fprintf(s.out, "\nExpected columns: %s\n", strings.Join(m.ValidationRules.ExpectedColumns, ", "))
	}
	return nil
}

func (s *session) useMission(ctx context.Context, missionID string) error {
	m, err := s.client.GetMission(ctx, missionID)
	if err != nil {
		return err
	}
	s.missionID = m.ID
	fmt.Fprintf(s.out, "Current mission: %s (%s)\n", m.ID, m.Title)
	return nil
}

func (s *session) showHint(ctx context.Context, missionID string) error {
	template, hint, err := s.client.GetTemplate(ctx, missionID)
	if err != nil {
		return err
	}
	if hint != "" {
		fmt.Fprintf(s.out, "Hint: %s\n\n", hint)
	}
	fmt.Fprintln(s.out, template)
	return nil
}

func (s *session) submit(ctx context.Context, sql, missionID string) error {
	result, err := s.client.SubmitQuery(ctx, sql, missionID)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode != http.StatusUnauthorized {
			fmt.Fprintf(s.out, "Rejected: %s\n", apiErr.Message)
			return nil
		}
		return err
	}

	printRows(s.out, result.Columns, result.Rows)
	fmt.Fprintf(s.out, "\n%d row(s)\n", result.RowCount)
	if result.Success {
		fmt.Fprintf(s.out, "%s\n", result.Feedback)
	} else {
		fmt.Fprintf(s.out, "Not yet: %s\n", result.Feedback)
	}
	if result.PlayerProgress != nil && result.XPEarned != nil && *result.XPEarned > 0 {
		printProgress(s.out, *result.PlayerProgress)
	}
	return nil
}

func (s *session) showProgress(ctx context.Context) error {
	progress, err := s.client.GetProgress(ctx)
	if err != nil {
		return err
	}
	printProgress(s.out, progress)
	return nil
}

func (s *session) showRankings(ctx context.Context, limit int) error {
	entries, err := s.client.GetRankings(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(s.out, "No rankings yet.")
		return nil
	}

	fmt.Fprintln(s.out, "Rankings:")
	for idx, entry := range entries {
		fmt.Fprintf(s.out, "%d. %s level=%d xp=%d completed=%d\n",
			idx+1,
			entry.Username,
			entry.Level,
			entry.XP,
			entry.CompletedCount,
		)
	}
	return nil
}

func (s *session) reset(ctx context.Context) error {
	confirmed, err := promptYesNo(s.reader, s.out, "reset all progress? (yes/no): ")
	if err != nil {
		return err
	}
	if !confirmed {
		return nil
	}

	progress, err := s.client.ResetProgress(ctx)
	if err != nil {
		return err
	}
	s.missionID = ""
	fmt.Fprintln(s.out, "Progress reset.")
	printProgress(s.out, progress)
	return nil
}

func (s *session) whoami(ctx context.Context) error {
	user, err := s.client.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s <%s> id=%s\n", user.Username, user.Email, user.ID)
	return nil
}
