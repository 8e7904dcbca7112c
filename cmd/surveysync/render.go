package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	surveysync "github.com/goliatone/go-surveysync"
	"github.com/goliatone/go-surveysync/pkg/definition"
	"github.com/goliatone/go-surveysync/pkg/renderers/html"
)

var (
	renderOpenAPI   string
	renderOperation string
	renderOutput    string
	renderTheme     string
	renderVariant   string
)

var renderCmd = &cobra.Command{
	Use:   "render [definition]",
	Short: "Render a survey definition to HTML",
	Long: `Render a survey definition (JSON or YAML) to a standalone HTML page.

With --openapi and --operation the definition is derived from the request
body of an OpenAPI operation instead.`,
	Example: `  surveysync render testdata/visit.yaml
  surveysync render --openapi api.yaml --operation createVisit -o visit.html`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderOpenAPI, "openapi", "", "OpenAPI document to derive the definition from")
	renderCmd.Flags().StringVar(&renderOperation, "operation", "", "Operation ID used with --openapi")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output file (stdout if empty)")
	renderCmd.Flags().StringVar(&renderTheme, "theme", "", "Theme name (default $SURVEYSYNC_THEME)")
	renderCmd.Flags().StringVar(&renderVariant, "variant", "", "Theme variant (default $SURVEYSYNC_THEME_VARIANT)")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	opts := []html.Option{html.WithLogger(logger)}
	themeName := firstNonEmpty(renderTheme, cfg.Theme)
	variant := firstNonEmpty(renderVariant, cfg.ThemeVariant)
	if themeName != "" || variant != "" {
		selector := html.NewManifestSelector(html.DefaultManifest())
		opts = append(opts, html.WithThemeSelector(selector, themeName, variant))
	}

	var (
		out []byte
		err error
	)
	switch {
	case renderOpenAPI != "":
		if renderOperation == "" {
			return errors.New("--operation is required with --openapi")
		}
		doc, readErr := os.ReadFile(renderOpenAPI)
		if readErr != nil {
			return readErr
		}
		out, err = surveysync.GenerateHTMLFromOperation(ctx, doc, renderOperation, opts...)
	case len(args) == 1 || cfg.Definition != "":
		location := cfg.Definition
		if len(args) == 1 {
			location = args[0]
		}
		src, srcErr := definition.ResolveSource(location)
		if srcErr != nil {
			return srcErr
		}
		def, loadErr := definition.NewLoader().Load(ctx, src)
		if loadErr != nil {
			return loadErr
		}
		out, err = surveysync.GenerateHTML(def, opts...)
	default:
		return errors.New("a definition file or --openapi is required")
	}
	if err != nil {
		return err
	}

	if renderOutput == "" {
		_, err := os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(renderOutput, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("Survey written", zap.String("path", renderOutput))
	return nil
}
