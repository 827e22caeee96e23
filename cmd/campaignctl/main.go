// Command campaignctl submits a campaign to a campaign service and prints
// Created or Failed.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/client"
)

type options struct {
	server  string
	verbose bool
	form    client.Form

	recipientsFile   string
	bodyPlainFile    string
	bodyHTMLFile     string
	htmlTemplateFile string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := pflag.NewFlagSet("campaignctl", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	def := os.Getenv("CAMPAIGN_SERVER")
	if def == "" {
		def = "http://localhost:5000"
	}
	fs.StringVar(&o.server, "server", def, "campaign service base URL (env CAMPAIGN_SERVER)")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "log request details to stderr")

	fs.StringVar(&o.form.Name, "name", "", "campaign name")
	fs.StringVar(&o.form.Recipients, "recipients", "", "recipient addresses, one per line")
	fs.StringVar(&o.form.Subjects, "subjects", "", "subject lines, one per line")
	fs.StringVar(&o.form.BodyPlain, "body-plain", "", "plain text body")
	fs.StringVar(&o.form.BodyHTML, "body-html", "", "HTML body")
	fs.StringVar(&o.form.HTMLTemplate, "html-template", "", "HTML template")
	fs.StringVar(&o.form.SenderName, "sender-name", "", "sender display name")
	fs.StringVar(&o.form.SenderEmail, "sender-email", "", "sender address")

	fs.StringVar(&o.recipientsFile, "recipients-file", "", "read recipients from file")
	fs.StringVar(&o.bodyPlainFile, "body-plain-file", "", "read plain body from file")
	fs.StringVar(&o.bodyHTMLFile, "body-html-file", "", "read HTML body from file")
	fs.StringVar(&o.htmlTemplateFile, "html-template-file", "", "read HTML template from file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	files := []struct {
		path string
		dst  *string
	}{
		{o.recipientsFile, &o.form.Recipients},
		{o.bodyPlainFile, &o.form.BodyPlain},
		{o.bodyHTMLFile, &o.form.BodyHTML},
		{o.htmlTemplateFile, &o.form.HTMLTemplate},
	}
	for _, f := range files {
		if f.path == "" {
			continue
		}
		b, err := os.ReadFile(f.path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.path, err)
		}
		*f.dst = string(b)
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	lg := zerolog.Nop()
	if o.verbose {
		lg = zerolog.New(zerolog.ConsoleWriter{Out: stderr}).With().Timestamp().Logger()
	}

	out, err := client.NewSubmitter(o.server, nil, lg).Submit(ctx, o.form)
	fmt.Fprintln(stdout, out)
	if err != nil {
		lg.Error().Err(err).Str("server", o.server).Msg("submission failed")
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
