package audio

const (
	// DefaultInputSampleRate is the rate the live protocols expect for
	// microphone audio.
	DefaultInputSampleRate = 16000
	// DefaultOutputSampleRate is the rate the live protocols deliver
	// assistant audio at.
	DefaultOutputSampleRate = 24000

	DefaultFormat = "linear16"
)

func GetDefaultInputEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultInputSampleRate, Format: encodingFormat(DefaultFormat)}
}

func GetDefaultOutputEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultOutputSampleRate, Format: encodingFormat(DefaultFormat)}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

const EncodingLinear16 encodingFormat = "linear16"
