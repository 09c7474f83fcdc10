package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate an image",
	Long: `Generate an image from a prompt.

With --file the images are uploaded to /generate-with-images; otherwise the
prompt and parameters are posted to /generate as JSON.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

var generateOpts struct {
	aspect        string
	version       string
	stylize       string
	chaos         string
	speed         string
	tile          bool
	upscaleIndex  int
	upscaleMethod string
	references    []string
	files         []string
	out           string
}

func init() {
	flags := generateCmd.Flags()
	flags.StringVar(&generateOpts.aspect, "ar", "", "Aspect ratio, for example 16:9")
	flags.StringVar(&generateOpts.version, "model-version", "", "Midjourney model version")
	flags.StringVar(&generateOpts.stylize, "stylize", "", "Stylize value")
	flags.StringVar(&generateOpts.chaos, "chaos", "", "Chaos value")
	flags.StringVar(&generateOpts.speed, "speed", "", "Speed: relax, fast or turbo")
	flags.BoolVar(&generateOpts.tile, "tile", false, "Generate a tileable image")
	flags.IntVar(&generateOpts.upscaleIndex, "upscale-index", 0, "Grid image to upscale (1-4)")
	flags.StringVar(&generateOpts.upscaleMethod, "upscale-method", "", "Upscale method: creative or subtle")
	flags.StringArrayVar(&generateOpts.references, "image", nil, "Reference image URL (repeatable)")
	flags.StringArrayVar(&generateOpts.files, "file", nil, "Reference image file to upload (repeatable)")
	flags.StringVarP(&generateOpts.out, "out", "o", "", "Write the generated image to this path")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")
	client := newAPIClient()

	var (
		doc document
		err error
	)
	if len(generateOpts.files) > 0 {
		doc, err = client.postFiles("/generate-with-images", map[string]string{"prompt": prompt}, generateOpts.files)
	} else {
		doc, err = client.postJSON("/generate", generateBody(prompt))
	}
	if err != nil {
		if doc != nil {
			_ = render(cmd.ErrOrStderr(), globalOpts.format, doc)
		}
		return err
	}

	if generateOpts.out != "" {
		if err := saveImage(client, doc, generateOpts.out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "image written to %s\n", generateOpts.out)
	}
	return render(cmd.OutOrStdout(), globalOpts.format, summarize(doc))
}

func generateBody(prompt string) map[string]any {
	body := map[string]any{"prompt": prompt}
	set := func(key, value string) {
		if value != "" {
			body[key] = value
		}
	}
	set("aspectRatio", generateOpts.aspect)
	set("version", generateOpts.version)
	set("stylize", generateOpts.stylize)
	set("chaos", generateOpts.chaos)
	set("speed", generateOpts.speed)
	set("upscaleMethod", generateOpts.upscaleMethod)
	if generateOpts.upscaleIndex > 0 {
		body["upscaleIndex"] = generateOpts.upscaleIndex
	}
	if generateOpts.tile {
		body["tile"] = true
	}
	if len(generateOpts.references) > 0 {
		body["images"] = generateOpts.references
	}
	return body
}

// saveImage writes the inline base64 image when present and otherwise
// downloads the locally served copy.
func saveImage(client *apiClient, doc document, dest string) error {
	if encoded, ok := doc["image"].(string); ok && encoded != "" {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("decode image: %w", err)
		}
		return os.WriteFile(dest, data, 0o644)
	}
	if url, ok := doc["localImageUrl"].(string); ok && url != "" {
		return client.download(url, dest)
	}
	return fmt.Errorf("response carries no image")
}

// summarize replaces the inline image with its decoded size.
func summarize(doc document) document {
	encoded, ok := doc["image"].(string)
	if !ok {
		return doc
	}
	out := make(document, len(doc))
	for key, value := range doc {
		out[key] = value
	}
	out["image"] = fmt.Sprintf("<%d bytes>", base64.StdEncoding.DecodedLen(len(encoded)))
	return out
}
