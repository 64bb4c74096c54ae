package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"todod/internals/env"
	"todod/internals/schemas"
	"todod/internals/timeouts"
	"todod/sdk"
	"todod/tui"
)

// Oracle-bound calls can take a while per task; the HTTP client timeout
// has to cover a full run of a long plan.
const oracleCallTimeout = timeouts.OracleCall

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "todo",
		Short:         "Agent-driven TODO executor",
		Long:          "todo plans a high-level goal into a task list and executes it one task at a time through the todod daemon.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCmd(), stepCmd(), runCmd(), showCmd(), lsCmd(), tuiCmd(), stopCmd())
	return root
}

func newCmd() *cobra.Command {
	var model string
	var runAll bool

	cmd := &cobra.Command{
		Use:   "new <goal>",
		Short: "Plan a new session for a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := daemonClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), oracleCallTimeout)
			defer cancel()

			response, err := client.CreateSession(ctx, schemas.SessionCreateRequest{Goal: args[0], Model: model})
			if err != nil {
				return err
			}
			fmt.Printf("session %s created\n", response.SessionID)
			printState(response.State)

			if runAll && response.HasPending {
				response, err = client.RunSession(ctx, response.SessionID)
				if err != nil {
					return err
				}
				fmt.Println()
				printState(response.State)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "override the oracle model for planning")
	cmd.Flags().BoolVar(&runAll, "run", false, "execute all tasks immediately after planning")
	return cmd
}

func stepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "step <session-id>",
		Short: "Execute the next pending task of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := daemonClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), oracleCallTimeout)
			defer cancel()

			response, err := client.StepSession(ctx, args[0])
			if err != nil {
				return err
			}
			printState(response.State)
			if !response.HasPending {
				fmt.Println("all tasks are in a terminal state")
			}
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <session-id>",
		Short: "Execute all remaining tasks of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := daemonClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), oracleCallTimeout)
			defer cancel()

			response, err := client.RunSession(ctx, args[0])
			if err != nil {
				return err
			}
			printState(response.State)
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show the full state of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := daemonClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			response, err := client.GetSession(ctx, args[0])
			if err != nil {
				return err
			}
			printState(response.State)
			return nil
		},
	}
}

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List sessions, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := daemonClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			sessions, err := client.ListSessions(ctx)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("no sessions")
				return nil
			}
			for _, session := range sessions {
				pending := session.TaskCounts[schemas.TaskStatusPending]
				total := 0
				for _, count := range session.TaskCounts {
					total += count
				}
				fmt.Printf("%s  %s  %d/%d tasks pending  (updated %s)\n",
					session.SessionID, session.Goal, pending, total,
					session.UpdatedAt.Local().Format(time.RFC3339))
			}
			return nil
		},
	}
}

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Create a session through an interactive form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := daemonClient()
			if err != nil {
				return err
			}
			return tui.Run(client)
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the todod daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := sdk.NewClient()
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
			defer cancel()
			return client.Shutdown(ctx)
		},
	}
}

func printState(state *schemas.SessionState) {
	fmt.Printf("goal: %s\n", state.Goal)
	for _, task := range state.Tasks {
		fmt.Printf("[%d] %-15s %s\n", task.ID, task.Status, task.Title)
		if task.Result != nil && *task.Result != "" {
			fmt.Printf("    result: %s\n", *task.Result)
		}
		if task.Reflection != nil && *task.Reflection != "" {
			fmt.Printf("    reflection: %s\n", *task.Reflection)
		}
	}
}

func daemonClient() (*sdk.Client, error) {
	client := sdk.NewClient(withOracleTimeout())
	if err := ensureDaemonRunning(client); err != nil {
		return nil, err
	}
	return client, nil
}

func withOracleTimeout() sdk.Option {
	return sdk.WithHTTPClient(&http.Client{Timeout: oracleCallTimeout})
}

func ensureDaemonRunning(client *sdk.Client) error {
	baseURL := env.Get().BASE_URL
	if sdk.IsRunning(baseURL) {
		return nil
	}

	if err := startDaemon(); err != nil {
		return err
	}
	if !sdk.WaitForStart(baseURL, nil) {
		return errors.New("failed to reach todod")
	}
	return nil
}

func startDaemon() error {
	path, err := findDaemonBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

func findDaemonBinary() (string, error) {
	executable, err := os.Executable()
	if err == nil {
		candidate := filepath.Join(filepath.Dir(executable), "todod")
		if _, statErr := os.Stat(candidate); statErr == nil {
			return candidate, nil
		}
	}

	path, err := exec.LookPath("todod")
	if err != nil {
		return "", fmt.Errorf("todod not found in PATH")
	}
	return path, nil
}
