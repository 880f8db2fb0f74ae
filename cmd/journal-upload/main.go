// Command journal-upload submits journal page images to the processing
// endpoint and prints one tab of the results.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/journal-ai/uploader/internal/config"
	"github.com/journal-ai/uploader/internal/models"
	"github.com/journal-ai/uploader/internal/results"
	"github.com/journal-ai/uploader/internal/widget"
	"github.com/journal-ai/uploader/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("journal-upload", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file (defaults are used when empty)")
	endpoint := fs.String("endpoint", "", "processing endpoint URL, overrides the config")
	tabName := fs.String("tab", string(results.TabTranscription), "results tab to print: transcription, themes, insights, organization")
	formatName := fs.String("format", string(results.FormatText), "output format: text, markdown, html")
	timeout := fs.Duration("timeout", 0, "give up on the submission after this long (0 waits forever)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: journal-upload [flags] files...\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	tab, err := results.ParseTab(*tabName)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	format, err := results.ParseFormat(*formatName)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if *endpoint != "" {
		cfg.Uploader.Endpoint = *endpoint
	}
	url, err := cfg.Uploader.ProcessURL()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: stderr})

	files := make([]models.SourceFile, 0, fs.NArg())
	for _, path := range fs.Args() {
		f, err := models.SourceFileFromPath(path)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		files = append(files, f)
	}

	u, err := widget.New(widget.Options{
		MaxFiles:     cfg.Uploader.MaxFiles,
		AllowedTypes: cfg.Uploader.AllowedTypes,
		MaxSizeMB:    cfg.Uploader.MaxFileSizeMB,
		Endpoint:     url,
		Notifier: widget.NotifierFunc(func(n models.Notification) {
			fmt.Fprintf(stderr, "%s: %s\n", n.Level, n.Message)
		}),
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer u.Close()

	res := u.HandleFiles(files)
	if len(res.Rejected) > 0 {
		return 1
	}

	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	if _, err := u.ProcessUploads(ctx); err != nil {
		var werr *models.WidgetError
		if !errors.As(err, &werr) {
			fmt.Fprintln(stderr, err)
		}
		return 1
	}

	p := u.Results()
	if err := p.Select(tab); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	out, err := results.Render(p.ActiveView(), format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprint(stdout, out)
	return 0
}

func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		return config.Defaults()
	}
	return config.Load(path)
}
