package encoders

import (
	"strings"

	"github.com/nodewee/image-to-jp2/pkg/types"
)

// KakaduLosslessOptions returns the reversible 5/3 profile for kdu_compress
func KakaduLosslessOptions() types.EncoderOptions {
	return types.EncoderOptions{
		{Name: "-rate", Value: "-"},
		{Name: "Creversible", Value: "yes"},
		{Name: "Clevels", Value: "5"},
		{Name: "Stiles", Value: "{1024,1024}"},
		{Name: "Corder", Value: "RPCL"},
		{Name: "Cprecincts", Value: "{256,256},{256,256},{128,128}"},
		{Name: "Cblk", Value: "{64,64}"},
		{Name: "ORGgen_plt", Value: "yes"},
		{Name: "ORGtparts", Value: "R"},
		{Name: "-jp2_space", Value: "sRGB"},
	}
}

// OpenJPEGLosslessOptions returns the lossless profile for opj_compress.
// Six resolutions match the five decomposition levels of the Kakadu profile.
func OpenJPEGLosslessOptions() types.EncoderOptions {
	return types.EncoderOptions{
		{Name: "n", Value: "6"},
		{Name: "t", Value: "1024,1024"},
		{Name: "p", Value: "RPCL"},
		{Name: "b", Value: "64,64"},
		{Name: "c", Value: "[256,256],[256,256],[128,128]"},
		{Name: "SOP"},
		{Name: "EPH"},
	}
}

// renderKakadu renders options in kdu_compress syntax. Dash-prefixed names
// are switches followed by their value; the rest are Name=Value attributes.
func renderKakadu(opts types.EncoderOptions) []string {
	args := make([]string, 0, len(opts)*2)
	for _, opt := range opts {
		switch {
		case strings.HasPrefix(opt.Name, "-"):
			args = append(args, opt.Name)
			if opt.Value != "" {
				args = append(args, opt.Value)
			}
		case opt.Value == "":
			args = append(args, opt.Name)
		default:
			args = append(args, opt.Name+"="+opt.Value)
		}
	}
	return args
}

// renderOpenJPEG renders options in opj_compress syntax: -Name [Value]
func renderOpenJPEG(opts types.EncoderOptions) []string {
	args := make([]string, 0, len(opts)*2)
	for _, opt := range opts {
		args = append(args, "-"+strings.TrimPrefix(opt.Name, "-"))
		if opt.Value != "" {
			args = append(args, opt.Value)
		}
	}
	return args
}
