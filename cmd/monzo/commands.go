package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/baely/monzo/internal/common/errors"
	"github.com/baely/monzo/internal/common/logger"
	"github.com/baely/monzo/internal/config"
	"github.com/baely/monzo/pkg/model"
	"github.com/baely/monzo/pkg/monzo"
)

func (c *cli) envPath() string {
	if *c.envFile != "" {
		return *c.envFile
	}
	return config.DefaultEnvFile
}

func (c *cli) loadConfig() (*config.Config, error) {
	if *c.envFile != "" {
		return config.Load(*c.envFile)
	}
	return config.Load()
}

func (c *cli) newLogger(cfg *config.Config) *slog.Logger {
	level := logger.ParseLevel(cfg.Log.Level)
	if *c.debug {
		level = logger.LevelDebug
	}
	return logger.New(
		logger.WithLevel(level),
		logger.WithOutput(os.Stderr),
		logger.WithFormat(logger.FormatText),
	)
}

// run executes the parsed command, writing its result to out
func (c *cli) run(ctx context.Context, cmd string, out io.Writer, opts ...monzo.Option) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	log := c.newLogger(cfg)
	options := append(cfg.Monzo.Options(), monzo.WithLogger(log))
	client := monzo.New(cfg.Monzo.Credentials(), append(options, opts...)...)

	switch cmd {
	case c.auth.FullCommand():
		if cfg.Monzo.ClientID == "" || cfg.Monzo.ClientSecret == "" {
			return errors.Wrap(errors.ErrNotConfigured, "MONZO_CLIENT_ID and MONZO_CLIENT_SECRET are required")
		}
		if err := client.Authenticate(ctx); err != nil {
			return err
		}
		return c.outputSession(out, client.Session(), *c.authSave)

	case c.refresh.FullCommand():
		if err := client.RefreshAccessToken(ctx); err != nil {
			return err
		}
		return c.outputSession(out, client.Session(), *c.refSave)

	case c.logout.FullCommand():
		if err := client.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Logged out.")
		return nil

	case c.whoami.FullCommand():
		return output(out)(client.WhoAmI(ctx))

	case c.accounts.FullCommand():
		return output(out)(client.Accounts(ctx))

	case c.balance.FullCommand():
		return output(out)(client.Balance(ctx, *c.balanceAccount))

	case c.pots.FullCommand():
		pots, err := client.Pots(ctx, *c.potsAccount)
		if err != nil {
			return err
		}
		if !*c.potsAll {
			pots = model.ActivePots(pots)
		}
		return printJSON(out, pots)

	case c.deposit.FullCommand(), c.withdraw.FullCommand():
		args := c.transfer[cmd]
		transfer := monzo.PotTransfer{
			PotID:     *args.pot,
			AccountID: *args.account,
			Amount:    *args.amount,
			DedupeID:  *args.dedupeID,
		}
		if transfer.DedupeID == "" {
			transfer.DedupeID = monzo.NewDedupeID()
		}
		log.Info("Transferring", "pot_id", transfer.PotID, "dedupe_id", transfer.DedupeID)

		if cmd == c.deposit.FullCommand() {
			return output(out)(client.Deposit(ctx, transfer))
		}
		return output(out)(client.Withdraw(ctx, transfer))

	case c.transactions.FullCommand():
		listOpts := &monzo.TransactionsOptions{
			Since:  *c.txListSince,
			Before: *c.txListBefore,
			Limit:  *c.txListLimit,
		}
		if *c.txListMerchant {
			listOpts.Expand = []string{monzo.ExpandMerchant}
		}
		return output(out)(client.Transactions(ctx, *c.txListAccount, listOpts))

	case c.transaction.FullCommand():
		var expand []string
		if *c.txMerchant {
			expand = append(expand, monzo.ExpandMerchant)
		}
		return output(out)(client.Transaction(ctx, *c.txID, expand...))

	case c.annotate.FullCommand():
		return output(out)(client.AnnotateTransaction(ctx, *c.annotateTxID, *c.annotateKV))

	case c.feed.FullCommand():
		item := model.BasicFeedItem{
			Title:    *c.feedTitle,
			ImageURL: *c.feedImageURL,
			Body:     *c.feedBody,
			URL:      *c.feedURL,
		}.FeedItem(*c.feedAccount)
		if err := client.CreateFeedItem(ctx, item); err != nil {
			return err
		}
		fmt.Fprintln(out, "Feed item created.")
		return nil

	case c.attach.FullCommand():
		upload, err := monzo.ReadAttachment(*c.attachFile)
		if err != nil {
			return err
		}
		return output(out)(client.AttachFile(ctx, *c.attachTxID, upload))

	case c.detach.FullCommand():
		if err := client.DeregisterAttachment(ctx, *c.detachID); err != nil {
			return err
		}
		fmt.Fprintln(out, "Attachment removed.")
		return nil

	case c.webhooksList.FullCommand():
		return output(out)(client.Webhooks(ctx, *c.webhooksListAccount))

	case c.webhooksAdd.FullCommand():
		return output(out)(client.RegisterWebhook(ctx, *c.webhooksAddAccount, *c.webhooksAddURL))

	case c.webhooksRm.FullCommand():
		if err := client.DeleteWebhook(ctx, *c.webhooksRmID); err != nil {
			return err
		}
		fmt.Fprintln(out, "Webhook deleted.")
		return nil
	}

	return fmt.Errorf("unknown command %q", cmd)
}

// output returns a function printing the result of a (value, error) call,
// or returning its error
func output(out io.Writer) func(interface{}, error) error {
	return func(v interface{}, err error) error {
		if err != nil {
			return err
		}
		return printJSON(out, v)
	}
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputSession prints the tokens in env file form and optionally stores
// them in the env file
func (c *cli) outputSession(out io.Writer, session monzo.Session, save bool) error {
	values := sessionValues(session)
	if save {
		path := c.envPath()
		if err := saveEnv(path, values); err != nil {
			return err
		}
		fmt.Fprintf(out, "Tokens saved to %s.\n", path)
		return nil
	}

	env, err := godotenv.Marshal(values)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, env)
	return nil
}

func sessionValues(session monzo.Session) map[string]string {
	values := map[string]string{
		"MONZO_ACCESS_TOKEN": session.AccessToken,
	}
	if session.RefreshToken != "" {
		values["MONZO_REFRESH_TOKEN"] = session.RefreshToken
	}
	return values
}

// saveEnv merges values into the env file at path, creating it if needed
func saveEnv(path string, values map[string]string) error {
	existing, err := godotenv.Read(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "failed to read %s", path)
	}
	if existing == nil {
		existing = map[string]string{}
	}
	for k, v := range values {
		existing[k] = v
	}
	if err := godotenv.Write(existing, path); err != nil {
		return errors.Wrap(err, "failed to write %s", path)
	}
	return nil
}
