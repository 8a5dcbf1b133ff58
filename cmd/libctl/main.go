// Command libctl is a command-line client for the study-library API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kirillkom/study-library/internal/client"
)

var errUsage = errors.New("usage")

const usageText = `libctl CLI
Usage:
  libctl [-addr URL] [-code CODE] <cmd> [args]

Commands:
  list        [-category N] [-subject N] [-q text]   (-subject needs -category)
  categories
  subjects    -category N
  upload      -file notes.pdf -category N -subject N [-name text]
  delete      -id N
  auth                                               (checks -code)

Environment:
  LIBCTL_ADDR, LIBCTL_AUTH_CODE provide defaults for -addr and -code.
`

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	err := run(ctx, os.Args[1:], os.Stdout)
	cancel()
	if errors.Is(err, errUsage) {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	global := flag.NewFlagSet("libctl", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	addr := global.String("addr", envOr("LIBCTL_ADDR", "http://localhost:5000"), "API base URL")
	code := global.String("code", os.Getenv("LIBCTL_AUTH_CODE"), "admin auth code")
	if err := global.Parse(args); err != nil {
		return errUsage
	}
	if global.NArg() < 1 {
		return errUsage
	}

	api := client.New(*addr, client.WithAuthCode(*code))
	cmd, rest := global.Arg(0), global.Args()[1:]

	switch cmd {
	case "list":
		return runList(ctx, api, rest, stdout)

	case "categories":
		categories, err := api.ListCategories(ctx)
		if err != nil {
			return err
		}
		return printJSON(stdout, categories)

	case "subjects":
		fs := flag.NewFlagSet("subjects", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		categoryID := fs.Int64("category", 0, "category id")
		if err := fs.Parse(rest); err != nil || *categoryID <= 0 {
			return errUsage
		}
		subjects, err := api.ListSubjects(ctx, *categoryID)
		if err != nil {
			return err
		}
		return printJSON(stdout, subjects)

	case "upload":
		return runUpload(ctx, api, rest, stdout)

	case "delete":
		fs := flag.NewFlagSet("delete", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		id := fs.Int64("id", 0, "document id")
		if err := fs.Parse(rest); err != nil || *id <= 0 {
			return errUsage
		}
		if err := api.Delete(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "deleted %d\n", *id)
		return nil

	case "auth":
		ok, err := api.Authenticate(ctx, *code)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("invalid authentication code")
		}
		fmt.Fprintln(stdout, "ok: admin")
		return nil
	}
	return errUsage
}

// runList loads the whole catalog and narrows it locally, the same way the
// web client does.
func runList(ctx context.Context, api *client.Client, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	categoryID := fs.Int64("category", 0, "category id")
	subjectID := fs.Int64("subject", 0, "subject id")
	query := fs.String("q", "", "name search")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *subjectID > 0 && *categoryID <= 0 {
		return errUsage
	}

	session := client.NewSession(api)
	if err := session.Load(ctx); err != nil {
		return err
	}
	view := session.View()
	switch {
	case *subjectID > 0:
		view.SetSubject(*subjectID, *categoryID)
	case *categoryID > 0:
		view.SetCategory(*categoryID)
	}
	view.Search(*query)
	return printJSON(stdout, view.Visible())
}

func runUpload(ctx context.Context, api *client.Client, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := fs.String("file", "", "PDF file")
	name := fs.String("name", "", "display name")
	categoryID := fs.Int64("category", 0, "category id")
	subjectID := fs.Int64("subject", 0, "subject id")
	if err := fs.Parse(args); err != nil || *path == "" {
		return errUsage
	}

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := api.Upload(ctx, client.Upload{
		Reader:     f,
		Filename:   filepath.Base(*path),
		Name:       *name,
		CategoryID: *categoryID,
		SubjectID:  *subjectID,
	})
	if err != nil {
		return err
	}
	return printJSON(stdout, doc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
