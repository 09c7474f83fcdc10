package generation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"jan-server/services/midjourney-api/internal/utils/platformerrors"
)

const varyLabelMarker = "Vary"

// Phase names are used in timeout messages, metrics and spans.
const (
	PhaseImagine          = "image generation"
	PhaseUpscaleCreative  = "upscale creative"
	PhaseUpscaleSubtle    = "upscale subtle"
	PhaseUpscaleFallback  = "upscale fallback"
	PhaseImagineReference = "generation with images"
	PhaseUpscaleReference = "upscale with images"
	PhaseDownload         = "download"
)

var upscaleLabel = regexp.MustCompile(`^U[1-4]$`)

// upscalePlan is the button chosen for the upscale phase.
type upscalePlan struct {
	option Option
	phase  string
}

// UpscaleOptions returns the U1..U4 buttons of job that can be pressed.
func UpscaleOptions(job *Job) []Option {
	if job == nil {
		return nil
	}
	return lo.Filter(job.Options, func(o Option, _ int) bool {
		return upscaleLabel.MatchString(o.Label) && o.Custom != ""
	})
}

func planUpscale(ctx context.Context, job *Job, index int, method UpscaleMethod) (upscalePlan, error) {
	options := UpscaleOptions(job)
	if len(options) == 0 {
		return upscalePlan{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"no upscale options available", nil, "")
	}

	label := fmt.Sprintf("U%d", index)
	selected, found := lo.Find(options, func(o Option) bool { return o.Label == label })
	if !found {
		available := lo.Map(options, func(o Option, _ int) string { return o.Label })
		return upscalePlan{}, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("upscale option %s not available (available: %s)", label, strings.Join(available, ", ")), nil, "",
			map[string]any{"available_options": available})
	}

	if method != UpscaleSubtle {
		return upscalePlan{option: selected, phase: PhaseUpscaleCreative}, nil
	}

	vary, found := lo.Find(job.Options, func(o Option) bool {
		return strings.Contains(o.Label, varyLabelMarker) && o.Custom != ""
	})
	if !found {
		return upscalePlan{option: selected, phase: PhaseUpscaleFallback}, nil
	}
	return upscalePlan{option: vary, phase: PhaseUpscaleSubtle}, nil
}
