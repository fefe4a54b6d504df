package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	jwttoken "handoff/internal/jwt_token"
)

// --- Global Command Variables ---
var (
	serverAddr  string
	adminToken  string
	bearerToken string
	operator    string
	reason      string
	timeout     time.Duration
	auditLimit  int
	signingKey  string
	tokenTTL    time.Duration
	cueLocation string

	rootCmd = &cobra.Command{
		Use:           "handoffctl",
		Short:         "Operate a handoff service migration",
		Long:          "handoffctl drives the phased registry rollout: inspect progress, advance or hold the schedule, roll back and finalize.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// --- Inspection ---
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show schedule, migration progress, health and rollback state",
		Args:  cobra.NoArgs,
		RunE:  getJSON("/admin/status"),
	}
	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Print the human readable migration report",
		Args:  cobra.NoArgs,
		RunE:  runReport,
	}
	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Run the health battery and print the snapshot",
		Args:  cobra.NoArgs,
		RunE:  getJSON("/admin/health"),
	}
	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show phase transitions, rollbacks and flag changes",
		Args:  cobra.NoArgs,
		RunE:  getJSON("/admin/history"),
	}
	readinessCmd = &cobra.Command{
		Use:   "readiness",
		Short: "Show whether legacy access can be permanently disabled",
		Args:  cobra.NoArgs,
		RunE:  getJSON("/admin/readiness"),
	}
	usageCmd = &cobra.Command{
		Use:   "usage",
		Short: "Show per-subsystem legacy and registry access counts",
		Args:  cobra.NoArgs,
		RunE:  getJSON("/admin/usage"),
	}
	usageResetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Clear usage statistics",
		Args:  cobra.NoArgs,
		RunE:  runUsageReset,
	}
	auditCmd = &cobra.Command{
		Use:   "audit",
		Short: "List recent audit events",
		Args:  cobra.NoArgs,
		RunE:  runAudit,
	}

	// --- Schedule ---
	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the rollout schedule at day 1",
		Args:  cobra.NoArgs,
		RunE:  postJSON("/admin/schedule/start", false),
	}
	advanceCmd = &cobra.Command{
		Use:   "advance",
		Short: "Advance to the next phase",
		Args:  cobra.NoArgs,
		RunE:  postJSON("/admin/schedule/advance", false),
	}
	advanceToCmd = &cobra.Command{
		Use:   "advance-to [phase]",
		Short: "Jump to a named phase (day1..day5, completed)",
		Args:  cobra.ExactArgs(1),
		RunE:  runAdvanceTo,
	}
	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Reset the schedule and flags to their defaults",
		Args:  cobra.NoArgs,
		RunE:  postJSON("/admin/schedule/reset", false),
	}
	holdCmd = &cobra.Command{
		Use:   "hold",
		Short: "Hold forward progress of the schedule",
		Args:  cobra.NoArgs,
		RunE:  postJSON("/admin/schedule/hold", true),
	}
	releaseCmd = &cobra.Command{
		Use:   "release",
		Short: "Release a schedule hold",
		Args:  cobra.NoArgs,
		RunE:  postJSON("/admin/schedule/release", true),
	}

	// --- Safety ---
	rollbackCmd = &cobra.Command{
		Use:   "rollback",
		Short: "Execute an emergency rollback of every subsystem",
		Args:  cobra.NoArgs,
		RunE:  postJSON("/admin/rollback", true),
	}
	rollbackServiceCmd = &cobra.Command{
		Use:   "rollback-service [subsystem]",
		Short: "Roll a single subsystem back to its legacy singleton",
		Args:  cobra.ExactArgs(1),
		RunE:  runRollbackService,
	}
	restoreCmd = &cobra.Command{
		Use:   "restore",
		Short: "Re-enable the subsystems disabled by the last rollback",
		Args:  cobra.NoArgs,
		RunE:  postJSON("/admin/restore", true),
	}
	emergencyCmd = &cobra.Command{
		Use:   "emergency",
		Short: "Record an open emergency without rolling back",
		Args:  cobra.NoArgs,
		RunE:  postJSON("/admin/emergency", true),
	}
	finalizeCmd = &cobra.Command{
		Use:   "finalize",
		Short: "Permanently disable legacy access once the gate allows it",
		Args:  cobra.NoArgs,
		RunE:  postJSON("/admin/finalize", false),
	}

	// --- Utilities ---
	cueCmd = &cobra.Command{
		Use:   "cue [subsystem] [name]",
		Short: "Fire a cue through a hosted subsystem to exercise its call path",
		Args:  cobra.ExactArgs(2),
		RunE:  runCue,
	}
	tokenCmd = &cobra.Command{
		Use:   "token [operator]",
		Short: "Mint an operator bearer token signed with the server's JWT key",
		Args:  cobra.ExactArgs(1),
		RunE:  runToken,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&serverAddr, "addr", envOr("HANDOFF_SERVER", "http://localhost:8080"), "handoff server address")
	pf.StringVar(&adminToken, "admin-token", os.Getenv("HANDOFF_ADMIN_TOKEN"), "shared admin token")
	pf.StringVar(&bearerToken, "token", os.Getenv("HANDOFF_OPERATOR_TOKEN"), "operator bearer token")
	pf.StringVar(&operator, "operator", envOr("HANDOFF_OPERATOR", os.Getenv("USER")), "operator name recorded on the audit trail")
	pf.DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	for _, c := range []*cobra.Command{holdCmd, releaseCmd, rollbackCmd, rollbackServiceCmd, restoreCmd, emergencyCmd} {
		c.Flags().StringVar(&reason, "reason", "", "reason recorded with the action")
	}
	auditCmd.Flags().IntVar(&auditLimit, "limit", 100, "maximum number of events")
	cueCmd.Flags().StringVar(&cueLocation, "location", "handoffctl", "call-site tag recorded in usage telemetry")
	tokenCmd.Flags().StringVar(&signingKey, "signing-key", os.Getenv("HANDOFF_JWT_SIGNING_KEY"), "HS256 signing key")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")

	usageCmd.AddCommand(usageResetCmd)
	rootCmd.AddCommand(
		statusCmd, reportCmd, healthCmd, historyCmd, readinessCmd, usageCmd, auditCmd,
		startCmd, advanceCmd, advanceToCmd, resetCmd, holdCmd, releaseCmd,
		rollbackCmd, rollbackServiceCmd, restoreCmd, emergencyCmd, finalizeCmd,
		cueCmd, tokenCmd,
	)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func client() *apiClient {
	return newAPIClient(serverAddr, adminToken, bearerToken, operator, timeout)
}

func reasonBody() any {
	return map[string]string{"reason": reason}
}

func getJSON(path string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		body, err := client().do(cmd.Context(), http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		return printJSON(cmd, body)
	}
}

func postJSON(path string, withReason bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		var payload any
		if withReason {
			payload = reasonBody()
		}
		body, err := client().do(cmd.Context(), http.MethodPost, path, payload)
		if err != nil {
			return err
		}
		return printJSON(cmd, body)
	}
}

func runReport(cmd *cobra.Command, _ []string) error {
	body, err := client().do(cmd.Context(), http.MethodGet, "/admin/report", nil)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(body)
	return err
}

func runUsageReset(cmd *cobra.Command, _ []string) error {
	if _, err := client().do(cmd.Context(), http.MethodDelete, "/admin/usage", nil); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "usage statistics cleared")
	return nil
}

func runAudit(cmd *cobra.Command, _ []string) error {
	return getJSON("/admin/audit?limit="+strconv.Itoa(auditLimit))(cmd, nil)
}

func runAdvanceTo(cmd *cobra.Command, args []string) error {
	body, err := client().do(cmd.Context(), http.MethodPost, "/admin/schedule/advance-to",
		map[string]string{"phase": args[0]})
	if err != nil {
		return err
	}
	return printJSON(cmd, body)
}

func runRollbackService(cmd *cobra.Command, args []string) error {
	body, err := client().do(cmd.Context(), http.MethodPost, "/admin/rollback/service",
		map[string]string{"subsystem": args[0], "reason": reason})
	if err != nil {
		return err
	}
	return printJSON(cmd, body)
}

func runCue(cmd *cobra.Command, args []string) error {
	body, err := client().do(cmd.Context(), http.MethodPost, "/v1/cues",
		map[string]string{"subsystem": args[0], "name": args[1], "location": cueLocation})
	if err != nil {
		return err
	}
	return printJSON(cmd, body)
}

func runToken(cmd *cobra.Command, args []string) error {
	if signingKey == "" {
		return fmt.Errorf("a signing key is required (--signing-key or HANDOFF_JWT_SIGNING_KEY)")
	}
	token, err := jwttoken.NewService(signingKey).Issue(args[0], tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func printJSON(cmd *cobra.Command, body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		_, err = cmd.OutOrStdout().Write(body)
		return err
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(cmd.OutOrStdout())
	return err
}

// execute runs the root command with ctx.
func execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
