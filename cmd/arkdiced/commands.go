package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ark-network/ark-dice/pkg/fairness"
	"github.com/urfave/cli/v2"
)

// flags
var (
	urlFlag = &cli.StringFlag{
		Name:  "url",
		Usage: "the url of the arkdiced http api",
		Value: "http://localhost:7080",
	}
	adminUserFlag = &cli.StringFlag{
		Name:    "admin-user",
		Usage:   "username for the admin api",
		EnvVars: []string{"ARK_DICE_ADMIN_USER"},
	}
	adminPassFlag = &cli.StringFlag{
		Name:    "admin-pass",
		Usage:   "password for the admin api",
		EnvVars: []string{"ARK_DICE_ADMIN_PASS"},
	}
	nonceFlag = &cli.StringFlag{
		Name:     "nonce",
		Usage:    "revealed nonce secret",
		Required: true,
	}
	txidFlag = &cli.StringFlag{
		Name:     "txid",
		Usage:    "txid of the bet",
		Required: true,
	}
	multiplierFlag = &cli.Uint64Flag{
		Name:     "multiplier",
		Usage:    "multiplier of the game address, eg. 200 for x2",
		Required: true,
	}
	commitmentFlag = &cli.StringFlag{
		Name:  "nonce-hash",
		Usage: "published nonce hash to check the secret against",
	}
)

// commands
var (
	nonceCmd = &cli.Command{
		Name:  "nonce",
		Usage: "Manage the server nonce",
		Subcommands: append(
			cli.Commands{},
			nonceRotateCmd,
		),
	}
	nonceRotateCmd = &cli.Command{
		Name:   "rotate",
		Usage:  "Expire the current nonce and reveal it",
		Action: adminAction(http.MethodPost, "/v1/admin/nonce/rotate"),
	}
	payoutsCmd = &cli.Command{
		Name:  "payouts",
		Usage: "Manage winner payouts",
		Subcommands: append(
			cli.Commands{},
			payoutsRetryCmd,
			payoutsPendingCmd,
		),
	}
	payoutsRetryCmd = &cli.Command{
		Name:   "retry",
		Usage:  "Run a payout round now",
		Action: adminAction(http.MethodPost, "/v1/admin/payouts/retry"),
	}
	payoutsPendingCmd = &cli.Command{
		Name:   "pending",
		Usage:  "List winners not paid yet",
		Action: adminAction(http.MethodGet, "/v1/admin/payouts/pending"),
	}
	consolidateCmd = &cli.Command{
		Name:   "consolidate",
		Usage:  "Consolidate the wallet funds",
		Action: adminAction(http.MethodPost, "/v1/admin/consolidate"),
	}
	recoverCmd = &cli.Command{
		Name:   "recover",
		Usage:  "Settle payments missed while the server was down",
		Action: adminAction(http.MethodPost, "/v1/admin/recover"),
	}
	unresolvedCmd = &cli.Command{
		Name:   "unresolved",
		Usage:  "List payments that could not be scored",
		Action: adminAction(http.MethodGet, "/v1/admin/unresolved"),
	}
	verifyCmd = &cli.Command{
		Name:   "verify",
		Usage:  "Recompute the outcome of a bet offline",
		Action: verifyAction,
		Flags:  []cli.Flag{nonceFlag, txidFlag, multiplierFlag, commitmentFlag},
	}
)

func adminAction(method, path string) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		url := strings.TrimSuffix(ctx.String("url"), "/") + path
		buf, err := doAdmin(
			method, url, ctx.String("admin-user"), ctx.String("admin-pass"),
		)
		if err != nil {
			return err
		}
		return printJSON(buf)
	}
}

func verifyAction(ctx *cli.Context) error {
	nonce := ctx.String("nonce")
	txid := ctx.String("txid")
	multiplier := ctx.Uint64("multiplier")

	commitment := fairness.Commitment(nonce)
	if expected := ctx.String("nonce-hash"); len(expected) > 0 &&
		!fairness.VerifyCommitment(nonce, expected) {
		return fmt.Errorf("nonce does not match hash %s, got %s", expected, commitment)
	}

	outcome := fairness.Compute(nonce, txid, multiplier)
	buf, err := json.Marshal(map[string]interface{}{
		"nonce_hash":    commitment,
		"result_number": outcome.RolledNumber,
		"target_number": outcome.TargetNumber,
		"is_win":        outcome.IsWinner,
	})
	if err != nil {
		return err
	}
	return printJSON(buf)
}

func doAdmin(method, url, user, pass string) ([]byte, error) {
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json")
	if len(user) > 0 {
		req.SetBasicAuth(user, pass)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	// nolint:all
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(buf))
	}
	return buf, nil
}

func printJSON(buf []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, buf, "", "  "); err != nil {
		return err
	}
	fmt.Println(out.String())
	return nil
}
