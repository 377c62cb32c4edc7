package types

// EncoderKind selects one of the external JP2 encoder bindings
type EncoderKind string

const (
	EncoderKakadu   EncoderKind = "kakadu"
	EncoderOpenJPEG EncoderKind = "openjpeg"
)

// Description returns a human readable encoder name
func (k EncoderKind) Description() string {
	switch k {
	case EncoderKakadu:
		return "Kakadu"
	case EncoderOpenJPEG:
		return "OpenJPEG"
	default:
		return string(k)
	}
}

// InputFile is a candidate image discovered in the input directory
type InputFile struct {
	Path      string `json:"path"`
	Name      string `json:"name"`      // file name with extension
	Base      string `json:"base"`      // file name without extension
	Extension string `json:"extension"` // lower-case, no leading dot
}

// ConversionTask describes the work for one input file.
// StagedPath is empty unless an intermediate file was allocated.
type ConversionTask struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`
	StagedPath string `json:"staged_path,omitempty"`
}

// EffectiveInput returns the path the encoder should read
func (t *ConversionTask) EffectiveInput() string {
	if t.StagedPath != "" {
		return t.StagedPath
	}
	return t.InputPath
}

// Option is a single encoder flag. Value is empty for bare flags.
type Option struct {
	Name  string
	Value string
}

// EncoderOptions is an ordered option set passed to an encoder
type EncoderOptions []Option

// ValidationVerdict is the conformance checker result for one JP2 file
type ValidationVerdict struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
	Raw   []byte `json:"-"`
}
