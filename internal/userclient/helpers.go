package userclient

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"text/tabwriter"

	"queryquest/internal/quest"
)

const maxDisplayRows = 25

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  missions")
	fmt.Fprintln(out, "  show <mission_id>")
	fmt.Fprintln(out, "  use <mission_id>")
	fmt.Fprintln(out, "  hint [mission_id]")
	fmt.Fprintln(out, "  run <sql>          submit against the current mission")
	fmt.Fprintln(out, "  sql <sql>          free-form practice query")
	fmt.Fprintln(out, "  progress")
	fmt.Fprintln(out, "  rankings [limit]")
	fmt.Fprintln(out, "  reset")
	fmt.Fprintln(out, "  whoami")
	fmt.Fprintln(out, "  exit")
}

func parseSignedLimit(args []string, index int, defaultValue int) (int, error) {
	if len(args) <= index {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(args[index])
	if err != nil {
		return 0, errors.New("must be an integer")
	}
	return value, nil
}

func promptYesNo(reader *bufio.Reader, out io.Writer, prompt string) (bool, error) {
	for {
		fmt.Fprint(out, prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(out, "Please answer yes or no.")
		}
	}
}

func describeClientError(err error, serverURL string) error {
	if errors.Is(err, ErrServiceUnavailable) {
		return fmt.Errorf("queryquest service unavailable at %s", serverURL)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s (check --token)", apiErr.Message)
	}
	return err
}

// commandArgument returns the raw text after the command word, preserving the
// SQL's internal spacing.
func commandArgument(line, command string) string {
	return strings.TrimSpace(line[len(command):])
}

func printProgress(out io.Writer, progress quest.Progress) {
	fmt.Fprintf(out, "Level %d  XP %d/%d  completed %d  unlocked %d\n",
		progress.CurrentLevel,
		progress.CurrentXP,
		progress.XPToNextLevel,
		len(progress.CompletedMissions),
		len(progress.UnlockedMissions),
	)
}

func printRows(out io.Writer, columns []string, rows []map[string]any) {
	if len(columns) == 0 {
		return
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	for idx, row := range rows {
		if idx == maxDisplayRows {
			break
		}
		cells := make([]string, len(columns))
		for col, name := range columns {
			cells[col] = formatValue(row[name])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()

	if len(rows) > maxDisplayRows {
		fmt.Fprintf(out, "... %d more row(s)\n", len(rows)-maxDisplayRows)
	}
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
