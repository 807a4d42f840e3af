package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/bitop-dev/firefly"
	"github.com/bitop-dev/firefly/config"
	"github.com/bitop-dev/firefly/internal/mock"
	"github.com/spf13/cobra"
)

var (
	clientID     string
	clientSecret string
	prompt       string
	download     bool
	outputDir    string
	showImages   bool
	useMocks     bool
	outputFormat string
	timeout      time.Duration

	numVariations  int
	negativePrompt string
	aspectRatio    string
	contentClass   string
	seed           int64
	localeCode     string
	imageFormat    string
)

// httpClientFactory is swapped in tests.
var httpClientFactory = func() *http.Client { return &http.Client{} }

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an image from a text prompt",
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&clientID, "client-id", "", "Firefly client ID (or "+config.EnvClientID+")")
	f.StringVar(&clientSecret, "client-secret", "", "Firefly client secret (or "+config.EnvClientSecret+")")
	f.StringVar(&prompt, "prompt", "", "text prompt for image generation")
	f.BoolVar(&download, "download", false, "download the generated images (filename is taken from the image URL)")
	f.StringVar(&outputDir, "output-dir", ".", "directory for downloaded images")
	f.BoolVar(&showImages, "show-images", false, "display the images in the terminal with imgcat")
	f.BoolVar(&useMocks, "use-mocks", false, "answer API calls locally, for trying the CLI without valid credentials")
	f.StringVar(&outputFormat, "format", "text", "output format: text or json")
	f.DurationVar(&timeout, "timeout", 0, "timeout for each API call (default 30s)")

	f.IntVar(&numVariations, "num-variations", 0, "number of images to generate (1-4)")
	f.StringVar(&negativePrompt, "negative-prompt", "", "what to avoid in the image")
	f.StringVar(&aspectRatio, "aspect-ratio", "", "aspect ratio, e.g. 16:9")
	f.StringVar(&contentClass, "content-class", "", "photo or art")
	f.Int64Var(&seed, "seed", 0, "seed for reproducible output")
	f.StringVar(&localeCode, "locale", "", "prompt biasing locale code, e.g. en-US")
	f.StringVar(&imageFormat, "output-format", "", "image output format requested from the service")

	_ = generateCmd.MarkFlagRequired("prompt")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("invalid --format %q: must be text or json", outputFormat)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	file, err := config.LoadFile(cfgFile)
	if err != nil {
		return err
	}
	settings := config.Resolve(file, config.Overrides{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Timeout:      timeout,
	}, os.Getenv)
	if err := settings.Check(); err != nil {
		return err
	}

	hc := httpClientFactory()
	if useMocks {
		hc = mock.NewClient()
	}

	cfg := firefly.Config{
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		Timeout:      settings.Timeout,
		TokenURL:     settings.TokenURL,
		GenerateURL:  settings.GenerateURL,
		HTTPClient:   hc,
		Logger:       newLogger(stderr, verbose),
	}
	if verbose {
		cfg.Observer = func(info firefly.ResponseInfo) {
			if info.Err != nil && info.StatusCode == 0 {
				notice(stderr, "Request to %s failed: %v", info.URL, info.Err)
				return
			}
			notice(stderr, "Received HTTP %d response (%d bytes) from %s.", info.StatusCode, info.Bytes, info.URL)
		}
	}
	client := firefly.NewClient(cfg)

	if verbose {
		notice(stderr, "Doing request to %s ...", client.Config().GenerateURL)
	}
	resp, err := client.GenerateImage(ctx, buildRequest(cmd))
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, resp.Raw(), "", "  "); err != nil {
			return fmt.Errorf("formatting response: %w", err)
		}
		buf.WriteByte('\n')
		_, err := stdout.Write(buf.Bytes())
		return err
	}

	for _, out := range resp.Outputs {
		fmt.Fprintf(stdout, "Generated image URL: %s\n", out.Image.URL)
		var saved string
		if download {
			path, n, err := downloadImage(ctx, hc, out.Image.URL, outputDir)
			if err != nil {
				return err
			}
			saved = path
			fmt.Fprintf(stdout, "Downloaded image (%d bytes) to %s\n", n, path)
		}
		if showImages {
			if err := showImage(ctx, saved, out.Image.URL); err != nil {
				notice(stderr, "[warn] Could not display image in terminal using imgcat: %v", err)
			}
		}
	}
	return nil
}

func buildRequest(cmd *cobra.Command) firefly.GenerateImageRequest {
	req := firefly.GenerateImageRequest{
		Prompt:                  prompt,
		NumVariations:           numVariations,
		NegativePrompt:          negativePrompt,
		AspectRatio:             aspectRatio,
		ContentClass:            contentClass,
		PromptBiasingLocaleCode: localeCode,
		OutputFormat:            imageFormat,
	}
	if cmd != nil && cmd.Flags().Changed("seed") {
		s := seed
		req.Seed = &s
	}
	return req
}
