package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"framefill/internal/adapter/httpapi"
	"framefill/internal/application/port/input"
	"framefill/internal/di"
	"framefill/internal/domain/entity"
	"framefill/internal/infrastructure/config"
	"framefill/internal/infrastructure/env"
	"framefill/internal/infrastructure/userinteraction"

	"github.com/urfave/cli/v2"
)

func newContainer(c *cli.Context, requireReasoning bool) (*di.Container, error) {
	cfg, err := config.Load(c.String("config"), env.NewEnvService(c.String("env-dir")))
	if err != nil {
		return nil, err
	}
	if c.Bool("debug") {
		cfg.Log.Debug = true
	}

	opts := di.Options{RequireReasoning: requireReasoning}
	file, url := c.String("file"), c.String("url")
	switch {
	case file != "" && url != "":
		return nil, fmt.Errorf("--file and --url are mutually exclusive")
	case file != "":
		opts.StaticDir = filepath.Dir(file)
		opts.StaticIndex = filepath.Base(file)
	case url == "" && c.Command.Name != "serve":
		return nil, fmt.Errorf("one of --file or --url is required")
	}

	container, err := di.NewContainer(c.Context, cfg, opts)
	if err != nil {
		return nil, err
	}
	if url != "" {
		if err := container.Browser.Navigate(c.Context, url); err != nil {
			container.Close()
			return nil, err
		}
	}
	return container, nil
}

func extractAction(c *cli.Context) error {
	container, err := newContainer(c, false)
	if err != nil {
		return err
	}
	defer container.Close()

	result, err := container.Extractor.Extract(c.Context)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	console := userinteraction.NewConsole(os.Stdin, os.Stderr)
	console.ShowExtraction(result)
	fmt.Println(result.Markdown)
	return nil
}

func fillAction(c *cli.Context) error {
	container, err := newContainer(c, true)
	if err != nil {
		return err
	}
	defer container.Close()

	console := userinteraction.NewConsole(os.Stdin, os.Stderr)
	content := c.String("content")
	if content == "" {
		content, err = console.AskContent("What should go into the form?")
		if err != nil {
			return err
		}
	}

	session := container.Pipeline
	ctx := c.Context

	console.ShowStage(entity.StageDetect, "")
	detected, err := session.Detect(ctx)
	if err != nil {
		console.ShowError(err)
		return err
	}
	console.ShowForms(detected)

	console.ShowStage(entity.StageAnalyze, "")
	relevance, err := session.Analyze(ctx, input.AnalyzeRequest{Content: content, Model: c.String("model")})
	if err != nil {
		console.ShowError(err)
		return err
	}
	console.ShowRelevance(relevance)

	console.ShowStage(entity.StageMap, c.String("language"))
	mapping, err := session.Map(ctx, input.MapRequest{Language: c.String("language")})
	if err != nil {
		console.ShowError(err)
		return err
	}
	console.ShowMapping(mapping)

	console.ShowStage(entity.StageFill, "")
	report, err := session.Fill(ctx, entity.FillOptions{
		Backup:    !c.Bool("no-backup"),
		Validate:  !c.Bool("no-validate"),
		Highlight: !c.Bool("no-highlight"),
	})
	if err != nil {
		console.ShowError(err)
		return err
	}
	console.ShowFillReport(report)

	if path := c.String("screenshot"); path != "" {
		if err := saveScreenshot(ctx, container, path); err != nil {
			console.ShowError(err)
		} else {
			console.ShowOK("screenshot saved to %s", path)
		}
	}
	if path := c.String("out"); path != "" {
		if err := saveDocument(container, path); err != nil {
			return err
		}
		console.ShowOK("filled document written to %s", path)
	}

	if !report.Success {
		return cli.Exit("some fields could not be filled", 2)
	}
	return nil
}

func saveScreenshot(ctx context.Context, container *di.Container, path string) error {
	if container.Browser == nil {
		return fmt.Errorf("screenshots need a browser page")
	}
	shot, err := container.Browser.Screenshot(ctx)
	if err != nil {
		return err
	}
	return os.WriteFile(path, shot.Data, 0o644)
}

func saveDocument(container *di.Container, path string) error {
	if container.Site == nil {
		return fmt.Errorf("--out needs --file")
	}
	doc, err := container.Site.Render(container.Site.RootSrc())
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(doc), 0o644)
}

func serveAction(c *cli.Context) error {
	container, err := newContainer(c, true)
	if err != nil {
		return err
	}
	defer container.Close()

	addr := container.Config.Server.Addr
	if v := c.String("addr"); v != "" {
		addr = v
	}

	deps := httpapi.Deps{
		Pipeline:  container.Pipeline,
		Extractor: container.Extractor,
		Logger:    container.Logger,
	}
	if container.Browser != nil {
		deps.Navigator = container.Browser
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.New(deps).Router(container.Config.Log.Name),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		container.Logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	container.Logger.Info("HTTP server shutting down")
	return srv.Shutdown(shutdownCtx)
}
