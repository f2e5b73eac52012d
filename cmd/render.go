package cmd

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaelanRichards/artemisia/internal/graph"
	"github.com/KaelanRichards/artemisia/internal/rendercache"
	"github.com/KaelanRichards/artemisia/internal/tracing"
	"github.com/KaelanRichards/artemisia/internal/watcher"
)

var (
	renderOut    string
	renderStrict bool
	renderWatch  bool
)

var renderCmd = &cobra.Command{
	Use:   "render <document>",
	Short: "Composite a document into a PNG",
	Long: `Render loads a document file (JSON or YAML by extension), evaluates every
visible layer's node graph, composites them bottom to top, and writes the
result as a PNG.

By default layers that fail to evaluate are skipped with a warning. With
--strict the first failure aborts the render, which is what you want for
final export.

With --watch the document file is re-rendered whenever it changes on disk.

Examples:
  artemisia render artwork.json
  artemisia render artwork.yaml -o out.png --strict
  artemisia render artwork.json --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "render.png", "output PNG path")
	renderCmd.Flags().BoolVar(&renderStrict, "strict", false, "abort on the first layer failure")
	renderCmd.Flags().BoolVar(&renderWatch, "watch", false, "re-render when the document changes")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	docPath := args[0]

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := renderOnce(ctx, docPath); err != nil {
		return err
	}
	if !renderWatch {
		return nil
	}

	w, err := watcher.New(docPath, time.Duration(cfg.Watch.DebounceMs)*time.Millisecond)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "watching %s\n", docPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-onChange:
			if err := renderOnce(ctx, docPath); err != nil {
				// Keep watching through half-saved or broken files.
				fmt.Fprintf(cmd.ErrOrStderr(), "render failed: %v\n", err)
			}
		}
	}
}

func renderOnce(ctx context.Context, docPath string) error {
	doc, err := loadDocument(docPath, standardRegistry())
	if err != nil {
		return err
	}
	defer doc.Close()

	if cfg.Cache.Enabled {
		ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
		doc.SetRenderCache(rendercache.New[graph.Artifact]("render", ttl, ttl*2))
	}

	var img *image.NRGBA
	if renderStrict {
		img, err = doc.Export(ctx)
	} else {
		img, err = doc.Render(ctx)
	}
	if err != nil {
		return err
	}
	if img == nil {
		return fmt.Errorf("document %q produced no image: no visible layer evaluated", doc.Name())
	}
	return writePNG(renderOut, img)
}

func writePNG(path string, img *image.NRGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encoding png: %w", err)
	}
	return f.Close()
}
