package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"finocr/internal/service"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseFlags reports unknown or malformed flags as usage errors.
func parseFlags(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return err
	}
	return &usageError{msg: err.Error()}
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "Account email or username")
	password := fs.String("password", "", "Account password")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if err := service.ValidateLogin(*email, *password); err != nil {
		return usagef("%v", err)
	}
	if err := a.session.Login(ctx, *email, *password); err != nil {
		return err
	}

	user := a.session.User()
	a.printf("Logged in as %s (%s)\n", user.Username, user.Email)
	return nil
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("register")
	username := fs.String("username", "", "Username")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if err := service.ValidateRegistration(*username, *email, *password); err != nil {
		return usagef("%v", err)
	}

	result, err := a.session.Register(ctx, *username, *email, *password)
	if result.Registered && !result.LoggedIn {
		a.printf("Registration successful! Please log in.\n")
		return err
	}
	if err != nil {
		return err
	}

	if result.Message != "" {
		a.printf("%s\n", result.Message)
	}
	a.printf("Logged in as %s\n", a.session.User().Username)
	return nil
}

func runLogout(ctx context.Context, a *app, args []string) error {
	if err := a.session.Logout(); err != nil {
		return err
	}
	a.printf("Logged out, cleared %s\n", a.store.Path())
	return nil
}

func runWhoami(ctx context.Context, a *app, args []string) error {
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	return renderUser(a.out, user)
}

func runUpload(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("upload")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usagef("no files given")
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	a.previews = service.NewThumbnailFactory(a.cfg.Upload.PreviewMaxPx, a.logger)
	uploads := service.NewUploadManager(a.client, a.previews, a.cfg.Upload, a.logger)
	defer uploads.Close()

	accepted := uploads.Add(fs.Args()...)
	if skipped := fs.NArg() - len(accepted); skipped > 0 {
		a.printf("Skipped %d file(s): only PDFs and images up to %s are accepted\n",
			skipped, service.FormatFileSize(a.cfg.Upload.MaxFileSize))
	}
	if err := renderPending(a.out, uploads.Files(), uploads.TotalSize()); err != nil {
		return err
	}
	if !uploads.CanSubmit() {
		return fmt.Errorf("nothing to upload")
	}

	uploads.OnProgress(func(p int) {
		fmt.Fprintf(os.Stderr, "\rUploading... %3d%%", p)
	})
	outcome, err := uploads.Submit(ctx)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	a.printf("%s\n", outcome.Message)
	for _, doc := range outcome.Documents {
		a.printf("  %s  %s\n", doc.TaskID, doc.Filename)
	}
	return nil
}

func runQueue(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("queue")
	watch := fs.Bool("watch", false, "Keep polling until every document is finished")
	once := fs.Bool("once", false, "Run a single status poll before printing")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *watch && *once {
		return usagef("-watch and -once are mutually exclusive")
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	poller := service.NewPoller(a.client, a.cfg.Poller, a.logger)
	updates := poller.Subscribe()
	if err := poller.Start(ctx); err != nil {
		return err
	}
	defer poller.Stop()

	if *once {
		poller.Cycle(ctx)
	}
	if err := renderQueue(a.out, poller.Documents()); err != nil {
		return err
	}
	if !*watch {
		return nil
	}

	// the initial fetch is already on screen
	select {
	case <-updates:
	default:
	}
	for poller.Pending() > 0 {
		select {
		case <-ctx.Done():
			return nil
		case docs, ok := <-updates:
			if !ok {
				return nil
			}
			a.printf("\n")
			if err := renderQueue(a.out, docs); err != nil {
				return err
			}
		}
	}
	return nil
}

func documentArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", usagef("expected exactly one document ID")
	}
	return fs.Arg(0), nil
}

func runStatus(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("status")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	id, err := documentArg(fs)
	if err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	status, err := a.client.GetDocumentStatus(ctx, id)
	if err != nil {
		return err
	}
	a.printf("%s\t%s\n", status.ID, status.Status)
	if status.ErrorMessage != nil {
		a.printf("Error: %s\n", *status.ErrorMessage)
	}
	return nil
}

func runShow(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("show")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	id, err := documentArg(fs)
	if err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	doc, err := a.client.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	return renderDocument(a.out, *doc)
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("export")
	formatFlag := fs.String("format", "json", "Export format: txt, json or csv")
	outDir := fs.String("out", ".", "Directory to write the export into")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	format, err := service.ParseExportFormat(*formatFlag)
	if err != nil {
		return usagef("%v", err)
	}
	id, err := documentArg(fs)
	if err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	doc, err := a.client.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	data, err := service.Export(*doc, format)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(*outDir, service.ExportFilename(doc.Filename, format))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	a.printf("Exported to %s\n", path)
	return nil
}

func runCopy(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("copy")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	id, err := documentArg(fs)
	if err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	doc, err := a.client.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	text, err := service.ClipboardText(*doc)
	if err != nil {
		return err
	}
	a.printf("%s\n", text)
	return nil
}

func runUsers(ctx context.Context, a *app, args []string) error {
	if _, err := a.requireAdmin(ctx); err != nil {
		return err
	}
	panel := service.NewAdminPanel(a.client, a, a.logger)
	users, err := panel.Users(ctx)
	if err != nil {
		return err
	}
	return renderUsers(a.out, users, panel.CanDeactivate)
}

func runDeactivate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("deactivate")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("expected exactly one user ID")
	}
	userID := fs.Arg(0)
	if _, err := a.requireAdmin(ctx); err != nil {
		return err
	}

	var confirmer service.Confirmer = a
	if *yes {
		confirmer = service.ConfirmFunc(func(string) bool { return true })
	}
	panel := service.NewAdminPanel(a.client, confirmer, a.logger)

	users, err := panel.Users(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.ID != userID {
			continue
		}
		refreshed, err := panel.Deactivate(ctx, u)
		if err != nil {
			return err
		}
		a.printf("User %q deactivated\n", u.Username)
		return renderUsers(a.out, refreshed, panel.CanDeactivate)
	}
	return fmt.Errorf("user %s not found", userID)
}
