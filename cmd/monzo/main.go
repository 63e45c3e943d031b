// Package main is the monzo command line client
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
)

// cli holds the parsed command tree
type cli struct {
	app     *kingpin.Application
	debug   *bool
	envFile *string

	auth     *kingpin.CmdClause
	authSave *bool
	refresh  *kingpin.CmdClause
	refSave  *bool
	logout   *kingpin.CmdClause

	whoami   *kingpin.CmdClause
	accounts *kingpin.CmdClause

	balance        *kingpin.CmdClause
	balanceAccount *string

	pots        *kingpin.CmdClause
	potsAccount *string
	potsAll     *bool

	deposit  *kingpin.CmdClause
	withdraw *kingpin.CmdClause
	transfer map[string]*transferArgs

	transactions   *kingpin.CmdClause
	txListAccount  *string
	txListSince    *string
	txListBefore   *string
	txListLimit    *int
	txListMerchant *bool

	transaction  *kingpin.CmdClause
	txID         *string
	txMerchant   *bool
	annotate     *kingpin.CmdClause
	annotateTxID *string
	annotateKV   *map[string]string

	feed         *kingpin.CmdClause
	feedAccount  *string
	feedTitle    *string
	feedImageURL *string
	feedBody     *string
	feedURL      *string

	attach     *kingpin.CmdClause
	attachTxID *string
	attachFile *string
	detach     *kingpin.CmdClause
	detachID   *string

	webhooksList        *kingpin.CmdClause
	webhooksListAccount *string
	webhooksAdd         *kingpin.CmdClause
	webhooksAddAccount  *string
	webhooksAddURL      *string
	webhooksRm          *kingpin.CmdClause
	webhooksRmID        *string
}

type transferArgs struct {
	pot      *string
	account  *string
	amount   *int64
	dedupeID *string
}

func newCLI() *cli {
	c := &cli{app: kingpin.New("monzo", "Command line client for the Monzo API.")}
	c.app.HelpFlag.Short('h')

	c.debug = c.app.Flag("debug", "Log every request.").Bool()
	c.envFile = c.app.Flag("env-file", "Read configuration from this file instead of .env.").String()

	c.auth = c.app.Command("auth", "Authorize this client in the browser and print the tokens.")
	c.authSave = c.auth.Flag("save", "Store the tokens in the env file.").Bool()
	c.refresh = c.app.Command("refresh", "Exchange the refresh token for a new access token.")
	c.refSave = c.refresh.Flag("save", "Store the tokens in the env file.").Bool()
	c.logout = c.app.Command("logout", "Invalidate the access token.")

	c.whoami = c.app.Command("whoami", "Show the identity behind the access token.")
	c.accounts = c.app.Command("accounts", "List accounts.")

	c.balance = c.app.Command("balance", "Show the balance of an account.")
	c.balanceAccount = c.balance.Arg("account", "Account ID.").Required().String()

	c.pots = c.app.Command("pots", "List pots.")
	c.potsAccount = c.pots.Flag("account", "Only pots of this account.").String()
	c.potsAll = c.pots.Flag("all", "Include deleted pots.").Bool()

	c.transfer = map[string]*transferArgs{}
	c.deposit = c.app.Command("deposit", "Move money from an account into a pot.")
	c.transfer[c.deposit.FullCommand()] = transferFlags(c.deposit)
	c.withdraw = c.app.Command("withdraw", "Move money from a pot into an account.")
	c.transfer[c.withdraw.FullCommand()] = transferFlags(c.withdraw)

	c.transactions = c.app.Command("transactions", "List the transactions of an account.")
	c.txListAccount = c.transactions.Arg("account", "Account ID.").Required().String()
	c.txListSince = c.transactions.Flag("since", "RFC 3339 timestamp or transaction ID to start after.").String()
	c.txListBefore = c.transactions.Flag("before", "RFC 3339 timestamp to stop at.").String()
	c.txListLimit = c.transactions.Flag("limit", "Page size.").Int()
	c.txListMerchant = c.transactions.Flag("merchant", "Expand merchants.").Bool()

	c.transaction = c.app.Command("transaction", "Show a transaction.")
	c.txID = c.transaction.Arg("id", "Transaction ID.").Required().String()
	c.txMerchant = c.transaction.Flag("merchant", "Expand the merchant.").Bool()

	c.annotate = c.app.Command("annotate", "Set metadata on a transaction. An empty value removes the key.")
	c.annotateTxID = c.annotate.Arg("id", "Transaction ID.").Required().String()
	c.annotateKV = c.annotate.Arg("metadata", "key=value pairs.").Required().StringMap()

	c.feed = c.app.Command("feed", "Post a basic item to an account's feed.")
	c.feedAccount = c.feed.Arg("account", "Account ID.").Required().String()
	c.feedTitle = c.feed.Flag("title", "Item title.").Required().String()
	c.feedImageURL = c.feed.Flag("image-url", "Item icon URL.").Required().String()
	c.feedBody = c.feed.Flag("body", "Item body.").String()
	c.feedURL = c.feed.Flag("url", "URL opened when the item is tapped.").String()

	c.attach = c.app.Command("attach", "Upload a file and attach it to a transaction.")
	c.attachTxID = c.attach.Arg("id", "Transaction ID.").Required().String()
	c.attachFile = c.attach.Arg("file", "File to upload.").Required().ExistingFile()
	c.detach = c.app.Command("detach", "Remove an attachment.")
	c.detachID = c.detach.Arg("attachment", "Attachment ID.").Required().String()

	webhooks := c.app.Command("webhooks", "Manage webhooks.")
	c.webhooksList = webhooks.Command("list", "List the webhooks of an account.").Default()
	c.webhooksListAccount = c.webhooksList.Arg("account", "Account ID.").Required().String()
	c.webhooksAdd = webhooks.Command("add", "Register a webhook.")
	c.webhooksAddAccount = c.webhooksAdd.Arg("account", "Account ID.").Required().String()
	c.webhooksAddURL = c.webhooksAdd.Arg("url", "URL to deliver events to.").Required().String()
	c.webhooksRm = webhooks.Command("rm", "Delete a webhook.")
	c.webhooksRmID = c.webhooksRm.Arg("id", "Webhook ID.").Required().String()

	return c
}

func transferFlags(cmd *kingpin.CmdClause) *transferArgs {
	return &transferArgs{
		pot:      cmd.Arg("pot", "Pot ID.").Required().String(),
		account:  cmd.Arg("account", "Account ID.").Required().String(),
		amount:   cmd.Arg("amount", "Amount in minor units, e.g. pence.").Required().Int64(),
		dedupeID: cmd.Flag("dedupe-id", "Reuse the dedupe ID of a transfer being retried.").String(),
	}
}

func main() {
	c := newCLI()
	cmd := kingpin.MustParse(c.app.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.run(ctx, cmd, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
