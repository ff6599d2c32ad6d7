package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ShageeshanT/kalyanijewellers/internal/adapters/backend"
	"github.com/ShageeshanT/kalyanijewellers/internal/adapters/filestore"
	"github.com/ShageeshanT/kalyanijewellers/internal/bootstrap"
	"github.com/ShageeshanT/kalyanijewellers/internal/service"
)

// cliNamespace is the credential namespace the CLI signs in under.
const cliNamespace = "cli"

const defaultMigrationTimeout = 5 * time.Minute

type cliSession struct {
	session *service.Session
	// client sends through the session transport.
	client *backend.Client
}

// openSession restores the CLI's session from its credential file.
func openSession(cmdCtx *commandContext) (*cliSession, error) {
	cfg := cmdCtx.Config
	store, err := filestore.New(cmdCtx.Dir)
	if err != nil {
		return nil, fmt.Errorf("open credential file: %w", err)
	}
	auth, err := bootstrap.BuildAuth(cmdCtx.Ctx, bootstrap.AuthConfig{
		Auth:    cfg.Auth,
		Backend: cfg.Backend,
		IsDev:   cfg.IsDev,
		Logger:  cmdCtx.Logger,
	})
	if err != nil {
		return nil, err
	}

	creds := service.NewCredentialStore(store, cliNamespace, cmdCtx.Logger)
	var sess *service.Session
	transport := backend.NewTransport(backend.TransportOptions{
		Credentials: creds,
		OnUnauthorized: func(ctx context.Context) {
			sess.Expire(ctx)
		},
		Logger: cmdCtx.Logger,
	})
	sess = service.NewSession(service.SessionOptions{
		Credentials:   creds,
		Authenticator: auth.Authenticator,
		Verifier:      auth.Verifier,
		Transport:     transport,
		Policy:        auth.Policy,
		RestoreMode:   service.RestoreMode(cfg.Auth.RestoreMode),
		LoadingScope:  service.LoadingScope(cfg.Auth.LoadingScope),
		Logger:        cmdCtx.Logger,
	})
	sess.Initialize(cmdCtx.Ctx)

	return &cliSession{
		session: sess,
		client:  auth.Client.WithHTTPClient(&http.Client{Transport: transport, Timeout: cfg.Backend.Timeout}),
	}, nil
}

type loginOptions struct {
	Email    string
	Password string
}

func parseLoginFlags(args []string) (loginOptions, error) {
	var opts loginOptions
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.Email, "email", "", "account email")
	fs.StringVar(&opts.Password, "password", "", "account password (read from stdin when omitted)")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if strings.TrimSpace(opts.Email) == "" {
		return opts, errors.New("login: -email is required")
	}
	return opts, nil
}

func runLogin(cmdCtx *commandContext, args []string) error {
	opts, err := parseLoginFlags(args)
	if err != nil {
		return err
	}
	if opts.Password == "" {
		if opts.Password, err = readPassword(cmdCtx); err != nil {
			return err
		}
	}

	cs, err := openSession(cmdCtx)
	if err != nil {
		return err
	}
	if !cs.session.Login(cmdCtx.Ctx, opts.Email, opts.Password) {
		return errors.New("login failed: check the email and password")
	}
	st := cs.session.Snapshot()
	role := "customer"
	if st.IsAdmin {
		role = "admin"
	}
	return writef(cmdCtx.Out, "Signed in as %s (%s)\n", st.CurrentUser.DisplayName(), role)
}

func readPassword(cmdCtx *commandContext) (string, error) {
	if err := writef(cmdCtx.Out, "Password: "); err != nil {
		return "", err
	}
	line, err := bufio.NewReader(cmdCtx.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("login: empty password")
	}
	return pw, nil
}

func runLogout(cmdCtx *commandContext, _ []string) error {
	cs, err := openSession(cmdCtx)
	if err != nil {
		return err
	}
	cs.session.Logout(cmdCtx.Ctx)
	return writef(cmdCtx.Out, "Signed out\n")
}

func runWhoami(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	verify := fs.Bool("verify", false, "ask the API who the stored token belongs to")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cs, err := openSession(cmdCtx)
	if err != nil {
		return err
	}
	if *verify && cs.session.Snapshot().IsAuthenticated {
		// A 401 here clears the stored token through the transport.
		if _, meErr := cs.client.Me(cmdCtx.Ctx); meErr != nil {
			cmdCtx.Logger.WarnContext(cmdCtx.Ctx, "identity check failed", "error", meErr)
		}
	}

	enc := json.NewEncoder(cmdCtx.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(cs.session.Snapshot())
}

func runGet(cmdCtx *commandContext, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: kalyani-admin get <path>")
	}
	cs, err := openSession(cmdCtx)
	if err != nil {
		return err
	}
	body, err := cs.client.Get(cmdCtx.Ctx, args[0])
	if err != nil {
		return err
	}
	if _, err := cmdCtx.Out.Write(body); err != nil {
		return err
	}
	if len(body) > 0 && body[len(body)-1] != '\n' {
		return writef(cmdCtx.Out, "\n")
	}
	return nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	timeout := fs.Duration("timeout", defaultMigrationTimeout, "maximum time to wait for migrations")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, *timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	cmdCtx.Logger.Info("running database migrations")
	return bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
}
